package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkstream/internal/config"
	"github.com/inkstream/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file:router_test?mode=memory&cache=shared"),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&db.User{}, &db.Category{}, &db.Post{}, &db.PostView{},
		&db.Subscriber{}, &db.ContactMessage{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	db.DB = gdb
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
		db.DB = nil
	})

	return SetupRouter(config.AppConfig{
		SessionSecret: "router-test-secret",
		UploadDir:     t.TempDir(),
		UploadURLPath: "/static/uploads",
	})
}

func TestPingRoute(t *testing.T) {
	r := setupRouterTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != `{"message":"pong"}` {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestAdminAPIRequiresSession(t *testing.T) {
	r := setupRouterTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestPublicPostsRouteIsOpen(t *testing.T) {
	r := setupRouterTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
