package db

import "gorm.io/gorm"

// ContactMessage 保存前台联系表单提交的留言
type ContactMessage struct {
	gorm.Model
	Name    string `gorm:"size:120;not null"`
	Email   string `gorm:"size:255;not null"`
	Subject string `gorm:"size:255"`
	Message string `gorm:"not null"`
}
