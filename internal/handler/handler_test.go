package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/inkstream/internal/config"
	"github.com/inkstream/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingDispatcher 同步记录浏览派发，替代异步派发器以便断言。
type recordingDispatcher struct {
	events []uint
}

func (d *recordingDispatcher) DispatchView(postID uint, sessionToken string) {
	d.events = append(d.events, postID)
}

func testConfig(t *testing.T) config.AppConfig {
	return config.AppConfig{
		SessionSecret:        "test-secret",
		UploadDir:            t.TempDir(),
		UploadURLPath:        "/static/uploads",
		GenerationWebhookURL: "https://hooks.test/generate",
		RefinementWebhookURL: "https://hooks.test/refine",
		GenerationMode:       config.GenerationModePersist,
	}
}

func setupHandlerTest(t *testing.T) (*gin.Engine, *API, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&db.User{}, &db.Category{}, &db.Post{}, &db.PostView{},
		&db.Subscriber{}, &db.ContactMessage{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := testConfig(t)
	api := NewAPI(gdb, cfg)

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte(cfg.SessionSecret))))

	public := r.Group("/api")
	{
		public.GET("/posts", api.ListPosts)
		public.GET("/posts/:slug", api.ShowPost)
		public.GET("/categories", api.ListCategories)
		public.POST("/views", api.TrackView)
		public.POST("/newsletter/subscribe", api.Subscribe)
		public.POST("/newsletter/unsubscribe", api.Unsubscribe)
		public.POST("/contact", api.SubmitContact)
	}

	admin := r.Group("/admin")
	{
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		auth := admin.Group("/api")
		auth.Use(AuthRequired())
		{
			auth.GET("/posts", api.GetPosts)
			auth.GET("/posts/:id", api.GetPost)
			auth.POST("/posts", api.CreatePost)
			auth.PUT("/posts/:id", api.UpdatePost)
			auth.POST("/posts/:id/publish", api.PublishPost)
			auth.POST("/posts/:id/unpublish", api.UnpublishPost)
			auth.POST("/posts/:id/archive", api.ArchivePost)
			auth.POST("/preview", api.PreviewPost)
			auth.POST("/categories", api.CreateCategory)
			auth.POST("/generate", api.GeneratePost)
			auth.POST("/refine", api.RefinePost)
			auth.POST("/upload", api.UploadImage)
			auth.GET("/stats", api.GetStats)
		}
	}

	return r, api, gdb
}

func jsonUint(v uint) string {
	return fmt.Sprintf("%d", v)
}

func doJSON(r *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
