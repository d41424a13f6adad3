package db

import (
	"time"

	"gorm.io/gorm"
)

// 文章状态的合法取值。
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusArchived  = "archived"
)

// Post 定义了文章模型。
// PublishedAt 仅在首次进入 published 状态时写入，后续编辑不会清除它。
type Post struct {
	gorm.Model
	Title            string `gorm:"size:255;not null"`
	Slug             string `gorm:"size:255;uniqueIndex;not null"`
	Content          string
	Excerpt          string `gorm:"size:500"`
	Status           string `gorm:"size:20;default:draft;index"`
	PublishedAt      *time.Time
	ViewCount        uint64 `gorm:"default:0"`
	FeaturedImageURL string `gorm:"size:512"`
	CategoryID       *uint  `gorm:"index"`
	Category         *Category
	AuthorID         uint `gorm:"index"`
	Author           User
}

// IsPublished 判断文章当前是否对外可见。
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}
