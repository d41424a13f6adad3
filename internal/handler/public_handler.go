package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkstream/internal/db"
	"github.com/inkstream/internal/service"
	"github.com/inkstream/internal/viewtrack"
)

// postSummaryView 是列表接口的文章视图。
type postSummaryView struct {
	ID               uint          `json:"id"`
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	Excerpt          string        `json:"excerpt"`
	FeaturedImageURL string        `json:"featured_image_url,omitempty"`
	PublishedAt      *time.Time    `json:"published_at"`
	ViewCount        uint64        `json:"view_count"`
	Category         *categoryView `json:"category,omitempty"`
	Author           authorView    `json:"author"`
}

type categoryView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color,omitempty"`
}

type authorView struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func newPostSummaryView(post db.Post) postSummaryView {
	view := postSummaryView{
		ID:               post.ID,
		Title:            post.Title,
		Slug:             post.Slug,
		Excerpt:          post.Excerpt,
		FeaturedImageURL: post.FeaturedImageURL,
		PublishedAt:      post.PublishedAt,
		ViewCount:        post.ViewCount,
		Author: authorView{
			FullName:  post.Author.FullName,
			AvatarURL: post.Author.AvatarURL,
		},
	}
	if post.Category != nil {
		view.Category = &categoryView{
			ID:    post.Category.ID,
			Name:  post.Category.Name,
			Slug:  post.Category.Slug,
			Color: post.Category.Color,
		}
	}
	return view
}

// ListPosts 返回已发布文章列表，支持搜索、分类过滤与分页。
func (a *API) ListPosts(c *gin.Context) {
	filter := service.PostFilter{
		Search:       c.Query("search"),
		CategorySlug: c.Query("category"),
		Page:         parsePositiveInt(c.Query("page"), 1),
		PerPage:      parsePositiveInt(c.Query("per_page"), 10),
	}

	result, err := a.posts.ListPublished(filter)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "category not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to list posts")
		return
	}

	views := make([]postSummaryView, 0, len(result.Posts))
	for _, post := range result.Posts {
		views = append(views, newPostSummaryView(post))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       views,
		"total":       result.Total,
		"page":        result.Page,
		"per_page":    result.PerPage,
		"total_pages": result.TotalPages,
	})
}

// ShowPost 按 slug 返回已发布文章详情，正文经过白名单净化。
// 浏览上报作为副作用挂载：冷却命中则静默跳过，派发失败不影响响应。
func (a *API) ShowPost(c *gin.Context) {
	post, err := a.posts.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load post")
		return
	}

	tracker := viewtrack.New(viewtrack.NewCookieStore(c), a.viewDispatcher)
	tracker.Track(post.ID)

	view := newPostSummaryView(*post)
	c.JSON(http.StatusOK, gin.H{
		"post": view,
		"html": service.RenderContentHTML(post.Content),
	})
}

// ListCategories 返回全部分类。
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list categories")
		return
	}

	views := make([]categoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, categoryView{
			ID:    category.ID,
			Name:  category.Name,
			Slug:  category.Slug,
			Color: category.Color,
		})
	}
	c.JSON(http.StatusOK, gin.H{"categories": views})
}

type trackViewRequest struct {
	PostID       uint   `json:"post_id"`
	SessionToken string `json:"session_token"`
}

// TrackView 接收一次浏览上报。统计失败对调用方永远不可见。
func (a *API) TrackView(c *gin.Context) {
	var req trackViewRequest
	if !bindJSON(c, &req, "invalid view payload") {
		return
	}

	if err := a.analytics.RecordView(req.PostID, req.SessionToken, time.Now()); err != nil {
		log.Printf("view record failed for post %d: %v", req.PostID, err)
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

type subscribeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Subscribe 登记邮件订阅，重复订阅幂等。
func (a *API) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindJSON(c, &req, "invalid subscribe payload") {
		return
	}

	subscriber, err := a.subscribers.Subscribe(req.Email, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailInvalid) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": subscriber.Email, "subscribed": true})
}

// Unsubscribe 标记退订。
func (a *API) Unsubscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindJSON(c, &req, "invalid unsubscribe payload") {
		return
	}

	if err := a.subscribers.Unsubscribe(req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailInvalid):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSubscriberNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "failed to unsubscribe")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribed": false})
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmitContact 保存联系表单留言。
func (a *API) SubmitContact(c *gin.Context) {
	var req contactRequest
	if !bindJSON(c, &req, "invalid contact payload") {
		return
	}

	if _, err := a.contacts.Submit(service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}); err != nil {
		if errors.Is(err, service.ErrMessageFieldMissing) || errors.Is(err, service.ErrEmailInvalid) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to save message")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true})
}
