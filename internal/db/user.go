package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了后台作者账号模型
type User struct {
	gorm.Model
	Email     string `gorm:"size:255;uniqueIndex;not null"`
	FullName  string `gorm:"size:120"`
	Password  string `gorm:"not null"`
	AvatarURL string `gorm:"size:512"`
}

// EnsureUser 存在性检查：若提供的邮箱与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
func EnsureUser(email, password, fullName string) error {
	trimmedEmail := strings.TrimSpace(email)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return DB.Create(&User{
			Email:    trimmedEmail,
			FullName: strings.TrimSpace(fullName),
			Password: string(hashed),
		}).Error
	}

	return nil
}
