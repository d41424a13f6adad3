package db

import "time"

// PostView 记录一次文章浏览事实，只追加不修改。
// SessionToken 由客户端随机生成，服务端不做唯一性约束，
// 去重完全交给客户端的冷却窗口策略。
type PostView struct {
	ID           uint   `gorm:"primaryKey"`
	PostID       uint   `gorm:"index"`
	SessionToken string `gorm:"size:64;index"`
	ViewedAt     time.Time
	CreatedAt    time.Time
}

// TableName 指定自定义表名。
func (PostView) TableName() string {
	return "post_views"
}
