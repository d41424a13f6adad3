package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkstream/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeHTTPClient struct {
	handler func(*http.Request) (*http.Response, error)
}

func (f fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if f.handler == nil {
		return nil, errors.New("no handler configured")
	}
	return f.handler(req)
}

func seedAdmin(t *testing.T, gdb *gorm.DB) db.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	user := db.User{Email: "admin@example.com", FullName: "Admin", Password: string(hashed)}
	require.NoError(t, gdb.Create(&user).Error)
	return user
}

func loginAdmin(t *testing.T, r *gin.Engine) *http.Cookie {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/admin/login", `{"email":"admin@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == "test_session" {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _, gdb := setupHandlerTest(t)
	seedAdmin(t, gdb)

	w := doJSON(r, http.MethodPost, "/admin/login", `{"email":"admin@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardRoutesRequireAuth(t *testing.T) {
	r, _, _ := setupHandlerTest(t)

	w := doJSON(r, http.MethodGet, "/admin/api/posts", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePublishLifecycle(t *testing.T) {
	r, _, gdb := setupHandlerTest(t)
	seedAdmin(t, gdb)
	session := loginAdmin(t, r)

	w := doJSON(r, http.MethodPost, "/admin/api/posts", `{"title":"My Post","content":"# body"}`, session)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID     uint   `json:"id"`
		Slug   string `json:"slug"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "my-post", created.Slug)
	assert.Equal(t, db.PostStatusDraft, created.Status)

	w = doJSON(r, http.MethodPost, "/admin/api/posts/"+jsonUint(created.ID)+"/publish", "", session)
	require.Equal(t, http.StatusOK, w.Code)

	var stored db.Post
	require.NoError(t, gdb.First(&stored, created.ID).Error)
	assert.Equal(t, db.PostStatusPublished, stored.Status)
	require.NotNil(t, stored.PublishedAt)

	// 公开接口现在可以按 slug 取到
	w = doJSON(r, http.MethodGet, "/api/posts/my-post", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGeneratePersistsDraftAndReturnsRedirect(t *testing.T) {
	r, api, gdb := setupHandlerTest(t)
	seedAdmin(t, gdb)
	session := loginAdmin(t, r)

	api.Generation().SetHTTPClient(fakeHTTPClient{handler: func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"title":"Generated Title","content":"Generated body"}`)),
		}, nil
	}})

	w := doJSON(r, http.MethodPost, "/admin/api/generate", `{"title":"Seed title"}`, session)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		PostID   string `json:"post_id"`
		Redirect string `json:"redirect"`
		Mode     string `json:"mode"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "persist", resp.Mode)
	assert.Equal(t, "/dashboard/edit-post/"+resp.PostID, resp.Redirect)

	var stored db.Post
	require.NoError(t, gdb.Where("title = ?", "Generated Title").First(&stored).Error)
	assert.Equal(t, db.PostStatusDraft, stored.Status)
	assert.Equal(t, "Generated body", stored.Content)
}

func TestGenerateValidationGateReturns400(t *testing.T) {
	r, api, gdb := setupHandlerTest(t)
	seedAdmin(t, gdb)
	session := loginAdmin(t, r)

	api.Generation().SetHTTPClient(fakeHTTPClient{handler: func(req *http.Request) (*http.Response, error) {
		t.Fatal("validation failure must short-circuit before any network call")
		return nil, nil
	}})

	w := doJSON(r, http.MethodPost, "/admin/api/generate", `{"title":"","content":""}`, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateSurfacesUpstreamError(t *testing.T) {
	r, api, gdb := setupHandlerTest(t)
	seedAdmin(t, gdb)
	session := loginAdmin(t, r)

	api.Generation().SetHTTPClient(fakeHTTPClient{handler: func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`{"message":"seed too vague"}`)),
		}, nil
	}})

	w := doJSON(r, http.MethodPost, "/admin/api/generate", `{"title":"Seed"}`, session)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "seed too vague")

	// 失败路径不得留下任何草稿
	var count int64
	require.NoError(t, gdb.Model(&db.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRefineReturnsMergedFields(t *testing.T) {
	r, api, gdb := setupHandlerTest(t)
	seedAdmin(t, gdb)
	session := loginAdmin(t, r)

	api.Generation().SetHTTPClient(fakeHTTPClient{handler: func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"content":"polished body"}`)),
		}, nil
	}})

	w := doJSON(r, http.MethodPost, "/admin/api/refine",
		`{"post_id":3,"title":"Kept","content":"rough","instructions":"polish"}`, session)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Kept", resp.Title)
	assert.Equal(t, "polished body", resp.Content)

	var count int64
	require.NoError(t, gdb.Model(&db.Post{}).Count(&count).Error)
	assert.Zero(t, count, "refine must not persist anything")
}

func TestPreviewSharesSanitizationPipeline(t *testing.T) {
	r, _, gdb := setupHandlerTest(t)
	seedAdmin(t, gdb)
	session := loginAdmin(t, r)

	w := doJSON(r, http.MethodPost, "/admin/api/preview", `{"content":"# Draft\n\n<script>x</script>"}`, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Draft")
	assert.NotContains(t, w.Body.String(), "<script")
}

func TestUploadRequiresImageFile(t *testing.T) {
	r, _, gdb := setupHandlerTest(t)
	seedAdmin(t, gdb)
	session := loginAdmin(t, r)

	w := doJSON(r, http.MethodPost, "/admin/api/upload", "", session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	r, _, gdb := setupHandlerTest(t)
	seedAdmin(t, gdb)
	session := loginAdmin(t, r)

	post := seedPublishedPost(t, gdb, "Popular", "popular", "body")
	require.NoError(t, gdb.Model(&db.Post{}).Where("id = ?", post.ID).Update("view_count", 7).Error)

	w := doJSON(r, http.MethodGet, "/admin/api/stats", "", session)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TotalPosts     int64           `json:"total_posts"`
		ViewTotals     map[string]uint `json:"view_totals"`
		GenerationMode string          `json:"generation_mode"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.TotalPosts)
	assert.Equal(t, uint(7), resp.ViewTotals[jsonUint(post.ID)])
	assert.Equal(t, "persist", resp.GenerationMode)
}
