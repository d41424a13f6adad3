package service

import (
	"strings"

	"github.com/inkstream/internal/db"
	"gorm.io/gorm"
)

// ContactService 负责保存联系表单留言。
type ContactService struct {
	db *gorm.DB
}

// NewContactService 创建 ContactService。
func NewContactService(gdb *gorm.DB) *ContactService {
	return &ContactService{db: gdb}
}

// ContactInput 描述一次联系表单提交。
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Submit 校验并保存一条留言。
func (s *ContactService) Submit(input ContactInput) (*db.ContactMessage, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	message := strings.TrimSpace(input.Message)

	if name == "" || message == "" {
		return nil, ErrMessageFieldMissing
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	record := db.ContactMessage{
		Name:    name,
		Email:   email,
		Subject: strings.TrimSpace(input.Subject),
		Message: message,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Recent 返回最近的留言，供后台查看。
func (s *ContactService) Recent(limit int) ([]db.ContactMessage, error) {
	if limit < 1 {
		limit = 20
	}

	var messages []db.ContactMessage
	if err := s.db.Order("created_at desc").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
