package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkstream/internal/db"
	"github.com/inkstream/internal/service"
)

type postRequest struct {
	Title            string `json:"title"`
	Slug             string `json:"slug"`
	Content          string `json:"content"`
	Excerpt          string `json:"excerpt"`
	FeaturedImageURL string `json:"featured_image_url"`
	CategoryID       *uint  `json:"category_id"`
}

// postDetailView 是后台接口的完整文章视图，草稿可见。
type postDetailView struct {
	postSummaryView
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newPostDetailView(post db.Post) postDetailView {
	return postDetailView{
		postSummaryView: newPostSummaryView(post),
		Content:         post.Content,
		Status:          post.Status,
		UpdatedAt:       post.UpdatedAt,
	}
}

// GetPosts 返回后台文章列表，包含草稿与归档。
func (a *API) GetPosts(c *gin.Context) {
	filter := service.PostFilter{
		Search:  c.Query("search"),
		Status:  c.Query("status"),
		Page:    parsePositiveInt(c.Query("page"), 1),
		PerPage: parsePositiveInt(c.Query("per_page"), 20),
	}

	result, err := a.posts.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list posts")
		return
	}

	views := make([]postDetailView, 0, len(result.Posts))
	for _, post := range result.Posts {
		views = append(views, newPostDetailView(post))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":           views,
		"total":           result.Total,
		"published_count": result.PublishedCount,
		"draft_count":     result.DraftCount,
		"page":            result.Page,
		"per_page":        result.PerPage,
		"total_pages":     result.TotalPages,
	})
}

// GetPost 返回单篇文章，草稿可见。
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := a.posts.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to load post")
		return
	}

	c.JSON(http.StatusOK, newPostDetailView(*post))
}

// CreatePost 新建草稿。
func (a *API) CreatePost(c *gin.Context) {
	var req postRequest
	if !bindJSON(c, &req, "invalid post payload") {
		return
	}

	post, err := a.posts.Create(service.PostInput{
		Title:            req.Title,
		Slug:             req.Slug,
		Content:          req.Content,
		Excerpt:          req.Excerpt,
		FeaturedImageURL: req.FeaturedImageURL,
		CategoryID:       req.CategoryID,
		AuthorID:         currentUserID(c),
	})
	if err != nil {
		a.respondPostMutationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newPostDetailView(*post))
}

// UpdatePost 修改既有文章。
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req postRequest
	if !bindJSON(c, &req, "invalid post payload") {
		return
	}

	post, err := a.posts.Update(id, service.PostInput{
		Title:            req.Title,
		Slug:             req.Slug,
		Content:          req.Content,
		Excerpt:          req.Excerpt,
		FeaturedImageURL: req.FeaturedImageURL,
		CategoryID:       req.CategoryID,
	})
	if err != nil {
		a.respondPostMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPostDetailView(*post))
}

func (a *API) respondPostMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "post not found")
	case errors.Is(err, service.ErrTitleRequired), errors.Is(err, service.ErrSlugTaken):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "failed to save post")
	}
}

// PublishPost 将文章置为已发布，首次发布时写入时间戳。
func (a *API) PublishPost(c *gin.Context) {
	a.transitionPost(c, func(id uint) (*db.Post, error) {
		return a.posts.Publish(id, time.Now())
	})
}

// UnpublishPost 将文章撤回为草稿。
func (a *API) UnpublishPost(c *gin.Context) {
	a.transitionPost(c, a.posts.Unpublish)
}

// ArchivePost 归档文章。
func (a *API) ArchivePost(c *gin.Context) {
	a.transitionPost(c, a.posts.Archive)
}

func (a *API) transitionPost(c *gin.Context, transition func(uint) (*db.Post, error)) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := transition(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "post not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to update post status")
		return
	}

	c.JSON(http.StatusOK, newPostDetailView(*post))
}

// PreviewPost 渲染编辑器里的正文草稿，与正式发布共用同一条净化管线。
func (a *API) PreviewPost(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if !bindJSON(c, &req, "invalid preview payload") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"html": service.RenderContentHTML(req.Content)})
}

type generateRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	CategoryID *uint  `json:"category_id"`
}

// GeneratePost 触发 AI 生成工作流，成功时返回编辑页跳转目标。
// 失败时不返回任何跳转信息，由前端展示错误。
func (a *API) GeneratePost(c *gin.Context) {
	var req generateRequest
	if !bindJSON(c, &req, "invalid generate payload") {
		return
	}

	result, err := a.generation.SubmitGeneration(c.Request.Context(), service.GenerationInput{
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CategoryID: req.CategoryID,
		AuthorID:   currentUserID(c),
	})
	if err != nil {
		a.respondGenerationError(c, err)
		return
	}

	response := gin.H{
		"post_id":  result.PostID,
		"redirect": fmt.Sprintf("/dashboard/edit-post/%s", result.PostID),
		"mode":     a.generation.Mode(),
	}
	if result.Post != nil {
		response["post"] = newPostDetailView(*result.Post)
	}
	c.JSON(http.StatusOK, response)
}

type refineRequest struct {
	PostID       uint   `json:"post_id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Excerpt      string `json:"excerpt"`
	Instructions string `json:"instructions"`
	CategoryID   *uint  `json:"category_id"`
}

// RefinePost 对编辑中的内容做一次迭代润色，返回合并后的字段，不落库不跳转。
func (a *API) RefinePost(c *gin.Context) {
	var req refineRequest
	if !bindJSON(c, &req, "invalid refine payload") {
		return
	}

	result, err := a.generation.Refine(c.Request.Context(), service.RefinementInput{
		PostID:       req.PostID,
		Title:        req.Title,
		Content:      req.Content,
		Excerpt:      req.Excerpt,
		Instructions: req.Instructions,
		CategoryID:   req.CategoryID,
	})
	if err != nil {
		a.respondGenerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title":       result.Title,
		"content":     result.Content,
		"excerpt":     result.Excerpt,
		"category_id": result.CategoryID,
	})
}

// respondGenerationError 按错误类别映射状态码：
// 校验失败 400，配置缺失 500，其余（传输、解析、对账）502 交给上游展示。
func (a *API) respondGenerationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGenerationInputRequired),
		errors.Is(err, service.ErrRefineInstructionsRequired):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWebhookNotConfigured):
		respondError(c, http.StatusInternalServerError, err.Error())
	default:
		respondError(c, http.StatusBadGateway, err.Error())
	}
}

// GetStats 返回文章浏览统计与生成策略等面板数据。
func (a *API) GetStats(c *gin.Context) {
	result, err := a.posts.List(service.PostFilter{PerPage: 100})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load stats")
		return
	}

	ids := make([]uint, 0, len(result.Posts))
	for _, post := range result.Posts {
		ids = append(ids, post.ID)
	}

	totals, err := a.analytics.ViewTotals(ids)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load stats")
		return
	}

	subscriberCount, err := a.subscribers.ActiveCount()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_posts":     result.Total,
		"published_count": result.PublishedCount,
		"draft_count":     result.DraftCount,
		"view_totals":     totals,
		"subscribers":     subscriberCount,
		"generation_mode": a.generation.Mode(),
	})
}
