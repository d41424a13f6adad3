package db

import "gorm.io/gorm"

// Category 定义了文章分类模型
type Category struct {
	gorm.Model
	Name        string `gorm:"size:100;not null"`
	Slug        string `gorm:"size:100;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
	Color       string `gorm:"size:20"`
}
