package service

import (
	"errors"
	"time"

	"github.com/inkstream/internal/db"
	"gorm.io/gorm"
)

// AnalyticsService 负责处理文章浏览相关的统计逻辑。
// 浏览记录只追加；view_count 单调递增，永不回退。
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService 创建 AnalyticsService。
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// RecordView 记录一次文章浏览并累加文章的浏览计数。
// 服务端不做任何去重，重复请求的抑制完全由客户端冷却窗口负责。
func (s *AnalyticsService) RecordView(postID uint, sessionToken string, now time.Time) error {
	if postID == 0 || sessionToken == "" {
		return errors.New("invalid post id or session token")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		view := db.PostView{
			PostID:       postID,
			SessionToken: sessionToken,
			ViewedAt:     now,
		}
		if err := tx.Create(&view).Error; err != nil {
			return err
		}

		result := tx.Model(&db.Post{}).
			Where("id = ?", postID).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

// ViewTotals 返回指定文章的浏览总数，未找到的文章不会出现在结果中。
func (s *AnalyticsService) ViewTotals(postIDs []uint) (map[uint]uint64, error) {
	result := make(map[uint]uint64, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var posts []db.Post
	if err := s.db.Select("id", "view_count").Where("id IN ?", postIDs).Find(&posts).Error; err != nil {
		return nil, err
	}

	for _, post := range posts {
		result[post.ID] = post.ViewCount
	}
	return result, nil
}

// RecentViews 返回某篇文章最近的浏览记录，供后台诊断使用。
func (s *AnalyticsService) RecentViews(postID uint, limit int) ([]db.PostView, error) {
	if limit < 1 {
		limit = 20
	}

	var views []db.PostView
	if err := s.db.Where("post_id = ?", postID).
		Order("viewed_at desc").
		Limit(limit).
		Find(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}
