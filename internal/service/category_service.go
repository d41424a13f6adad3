package service

import (
	"errors"
	"strings"

	"github.com/inkstream/internal/db"
	"gorm.io/gorm"
)

// ErrCategoryNameRequired 在分类名称为空时返回。
var ErrCategoryNameRequired = errors.New("category name is required")

// CategoryService wraps category related database operations.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List returns all categories ordered by name.
func (s *CategoryService) List() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// GetBySlug fetches a category by its slug.
func (s *CategoryService) GetBySlug(slug string) (*db.Category, error) {
	var category db.Category
	if err := s.db.Where("slug = ?", strings.TrimSpace(slug)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create 新建分类，slug 缺省时从名称派生。
func (s *CategoryService) Create(name, slug, description, color string) (*db.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}

	if slug = strings.TrimSpace(slug); slug == "" {
		slug = Slugify(name)
	}

	var count int64
	if err := s.db.Model(&db.Category{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	category := db.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(description),
		Color:       strings.TrimSpace(color),
	}
	if err := s.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
