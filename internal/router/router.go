package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/inkstream/internal/config"
	"github.com/inkstream/internal/db"
	"github.com/inkstream/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("inkstream_session", store))

	// 静态文件服务
	r.Static(cfg.UploadURLPath, cfg.UploadDir)

	api := handler.NewAPI(db.DB, cfg)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// 前台公开接口
	public := r.Group("/api")
	{
		public.GET("/posts", api.ListPosts)
		public.GET("/posts/:slug", api.ShowPost)
		public.GET("/categories", api.ListCategories)
		public.POST("/views", api.TrackView)
		public.POST("/newsletter/subscribe", api.Subscribe)
		public.POST("/newsletter/unsubscribe", api.Unsubscribe)
		public.POST("/contact", api.SubmitContact)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("/api")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/posts", api.GetPosts)
			auth.GET("/posts/:id", api.GetPost)
			auth.POST("/posts", api.CreatePost)
			auth.PUT("/posts/:id", api.UpdatePost)
			auth.POST("/posts/:id/publish", api.PublishPost)
			auth.POST("/posts/:id/unpublish", api.UnpublishPost)
			auth.POST("/posts/:id/archive", api.ArchivePost)
			auth.POST("/preview", api.PreviewPost)

			auth.POST("/categories", api.CreateCategory)

			auth.POST("/generate", api.GeneratePost)
			auth.POST("/refine", api.RefinePost)

			auth.POST("/upload", api.UploadImage)
			auth.GET("/stats", api.GetStats)
		}
	}

	return r
}
