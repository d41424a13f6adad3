package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/inkstream/internal/config"
	"github.com/inkstream/internal/db"
	"github.com/inkstream/internal/router"
	"github.com/joho/godotenv"
)

func main() {
	// .env 缺失不视为错误，容器环境直接注入环境变量
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 按配置确保后台管理账号存在
	if err := db.EnsureUser(cfg.AdminEmail, cfg.AdminPassword, cfg.AdminFullName); err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
