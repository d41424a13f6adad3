package db

import "gorm.io/gorm"

// Subscriber 定义了邮件订阅者模型。
// 取消订阅不删除记录，仅翻转 Subscribed 标记，便于重复订阅时幂等恢复。
type Subscriber struct {
	gorm.Model
	Email      string `gorm:"size:255;uniqueIndex;not null"`
	Name       string `gorm:"size:120"`
	Subscribed bool   `gorm:"default:true"`
}
