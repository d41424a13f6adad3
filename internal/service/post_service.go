package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/inkstream/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTitleRequired    = errors.New("post title is required")
	ErrSlugTaken        = errors.New("post slug is already taken")
)

// PostService wraps post related database operations.
type PostService struct {
	db *gorm.DB
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Search       string
	Status       string
	CategorySlug string
	Page         int
	PerPage      int
}

// PostListResult aggregates paginated list data and counters.
type PostListResult struct {
	Posts          []db.Post
	Total          int64
	PublishedCount int64
	DraftCount     int64
	TotalPages     int
	Page           int
	PerPage        int
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Title            string
	Slug             string
	Content          string
	Excerpt          string
	FeaturedImageURL string
	CategoryID       *uint
	AuthorID         uint
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb}
}

// Get fetches a post by id with relations preloaded, drafts included.
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("Category").Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPublishedBySlug 按 slug 查找已发布文章，草稿与归档文章对外不可见。
func (s *PostService) GetPublishedBySlug(slug string) (*db.Post, error) {
	var post db.Post
	err := s.db.Preload("Category").Preload("Author").
		Where("slug = ? AND status = ?", strings.TrimSpace(slug), db.PostStatusPublished).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create persists a new draft post, generating a unique slug when absent.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	slug, err := s.resolveSlug(input.Slug, title, 0)
	if err != nil {
		return nil, err
	}

	post := db.Post{
		Title:            title,
		Slug:             slug,
		Content:          input.Content,
		Excerpt:          strings.TrimSpace(input.Excerpt),
		Status:           db.PostStatusDraft,
		FeaturedImageURL: strings.TrimSpace(input.FeaturedImageURL),
		CategoryID:       input.CategoryID,
		AuthorID:         input.AuthorID,
	}

	if err := s.db.Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Update applies updates to an existing post. The slug only changes when
// explicitly provided, so published URLs stay stable across edits.
func (s *PostService) Update(id uint, input PostInput) (*db.Post, error) {
	var existing db.Post
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if slug := strings.TrimSpace(input.Slug); slug != "" && slug != existing.Slug {
		resolved, err := s.resolveSlug(slug, title, existing.ID)
		if err != nil {
			return nil, err
		}
		existing.Slug = resolved
	}

	existing.Title = title
	existing.Content = input.Content
	existing.Excerpt = strings.TrimSpace(input.Excerpt)
	existing.FeaturedImageURL = strings.TrimSpace(input.FeaturedImageURL)
	existing.CategoryID = input.CategoryID

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// Publish transitions a post into the published state.
// PublishedAt 只在第一次发布时写入，撤回再发布不会刷新时间戳。
func (s *PostService) Publish(id uint, now time.Time) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	post.Status = db.PostStatusPublished
	if post.PublishedAt == nil {
		stamp := now
		post.PublishedAt = &stamp
	}

	if err := s.db.Save(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Unpublish returns a post to draft without clearing its publish timestamp.
func (s *PostService) Unpublish(id uint) (*db.Post, error) {
	return s.setStatus(id, db.PostStatusDraft)
}

// Archive marks a post as archived, removing it from public queries.
func (s *PostService) Archive(id uint) (*db.Post, error) {
	return s.setStatus(id, db.PostStatusArchived)
}

func (s *PostService) setStatus(id uint, status string) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	post.Status = status
	if err := s.db.Save(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts for the dashboard with filters, drafts included.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	query := s.db.Model(&db.Post{}).Preload("Category").Preload("Author")

	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	query = applySearch(query, filter.Search)

	return s.paginate(query.Order("updated_at desc"), filter)
}

// ListPublished returns published posts for the public site, newest first.
func (s *PostService) ListPublished(filter PostFilter) (*PostListResult, error) {
	query := s.db.Model(&db.Post{}).Preload("Category").Preload("Author").
		Where("status = ? AND published_at IS NOT NULL", db.PostStatusPublished)

	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		var category db.Category
		if err := s.db.Where("slug = ?", slug).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		query = query.Where("category_id = ?", category.ID)
	}
	query = applySearch(query, filter.Search)

	return s.paginate(query.Order("published_at desc"), filter)
}

func applySearch(query *gorm.DB, search string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" {
		return query
	}
	pattern := "%" + search + "%"
	return query.Where("title LIKE ? OR excerpt LIKE ?", pattern, pattern)
}

func (s *PostService) paginate(query *gorm.DB, filter PostFilter) (*PostListResult, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 10
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []db.Post
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&posts).Error; err != nil {
		return nil, err
	}

	result := &PostListResult{
		Posts:      posts,
		Total:      total,
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
		Page:       page,
		PerPage:    perPage,
	}

	if err := s.db.Model(&db.Post{}).Where("status = ?", db.PostStatusPublished).Count(&result.PublishedCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&db.Post{}).Where("status = ?", db.PostStatusDraft).Count(&result.DraftCount).Error; err != nil {
		return nil, err
	}

	return result, nil
}

var slugInvalidPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title into a lowercase URL-safe slug.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugInvalidPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// resolveSlug 校验显式 slug 的唯一性，或从标题派生一个不冲突的 slug。
// excludeID 用于更新场景下排除文章自身。
func (s *PostService) resolveSlug(explicit, title string, excludeID uint) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		taken, err := s.slugTaken(explicit, excludeID)
		if err != nil {
			return "", err
		}
		if taken {
			return "", ErrSlugTaken
		}
		return explicit, nil
	}

	base := Slugify(title)
	if base == "" {
		base = "post"
	}

	candidate := base
	for i := 2; ; i++ {
		taken, err := s.slugTaken(candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *PostService) slugTaken(slug string, excludeID uint) (bool, error) {
	query := s.db.Model(&db.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
