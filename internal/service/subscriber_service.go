package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/inkstream/internal/db"
	"gorm.io/gorm"
)

var (
	ErrEmailInvalid        = errors.New("email address is invalid")
	ErrSubscriberNotFound  = errors.New("subscriber not found")
	ErrMessageFieldMissing = errors.New("name, email and message are required")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SubscriberService 负责邮件订阅的增删与幂等恢复。
type SubscriberService struct {
	db *gorm.DB
}

// NewSubscriberService 创建 SubscriberService。
func NewSubscriberService(gdb *gorm.DB) *SubscriberService {
	return &SubscriberService{db: gdb}
}

// Subscribe 登记订阅者。重复订阅是幂等的：已退订的记录会被恢复。
func (s *SubscriberService) Subscribe(email, name string) (*db.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	var existing db.Subscriber
	err := s.db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		existing.Subscribed = true
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			existing.Name = trimmed
		}
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		subscriber := db.Subscriber{
			Email:      email,
			Name:       strings.TrimSpace(name),
			Subscribed: true,
		}
		if err := s.db.Create(&subscriber).Error; err != nil {
			return nil, err
		}
		return &subscriber, nil
	default:
		return nil, err
	}
}

// Unsubscribe 将订阅者标记为退订，记录保留。
func (s *SubscriberService) Unsubscribe(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}

	result := s.db.Model(&db.Subscriber{}).
		Where("email = ?", email).
		Update("subscribed", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriberNotFound
	}
	return nil
}

// ActiveCount 返回当前有效订阅数。
func (s *SubscriberService) ActiveCount() (int64, error) {
	var count int64
	if err := s.db.Model(&db.Subscriber{}).Where("subscribed = ?", true).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
