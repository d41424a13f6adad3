package config

import (
	"fmt"
	"os"
	"strings"
)

// 生成结果的两种对账策略，二选一，由部署配置决定。
const (
	GenerationModeRedirect = "redirect"
	GenerationModePersist  = "persist"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr           string
	Port                 string
	DatabasePath         string
	SessionSecret        string
	GinMode              string
	UploadDir            string
	UploadURLPath        string
	AdminEmail           string
	AdminPassword        string
	AdminFullName        string
	GenerationWebhookURL string
	RefinementWebhookURL string
	GenerationMode       string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "inkstream.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "inkstream-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "web/static/uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/static/uploads"
	}

	generationMode := strings.ToLower(strings.TrimSpace(os.Getenv("GENERATION_MODE")))
	if generationMode != GenerationModeRedirect {
		generationMode = GenerationModePersist
	}

	return AppConfig{
		ListenAddr:           listenAddr,
		Port:                 port,
		DatabasePath:         databasePath,
		SessionSecret:        sessionSecret,
		GinMode:              ginMode,
		UploadDir:            uploadDir,
		UploadURLPath:        uploadURLPath,
		AdminEmail:           strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:        strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		AdminFullName:        strings.TrimSpace(os.Getenv("ADMIN_FULL_NAME")),
		GenerationWebhookURL: strings.TrimSpace(os.Getenv("GENERATION_WEBHOOK_URL")),
		RefinementWebhookURL: strings.TrimSpace(os.Getenv("REFINEMENT_WEBHOOK_URL")),
		GenerationMode:       generationMode,
	}
}
