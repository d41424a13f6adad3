package handler

import (
	"github.com/inkstream/internal/config"
	"github.com/inkstream/internal/service"
	"github.com/inkstream/internal/viewtrack"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db             *gorm.DB
	posts          *service.PostService
	categories     *service.CategoryService
	analytics      *service.AnalyticsService
	subscribers    *service.SubscriberService
	contacts       *service.ContactService
	generation     *service.GenerationService
	viewDispatcher viewtrack.Dispatcher
	uploadDir      string
	uploadURL      string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig) *API {
	posts := service.NewPostService(gdb)
	analytics := service.NewAnalyticsService(gdb)

	return &API{
		db:          gdb,
		posts:       posts,
		categories:  service.NewCategoryService(gdb),
		analytics:   analytics,
		subscribers: service.NewSubscriberService(gdb),
		contacts:    service.NewContactService(gdb),
		generation: service.NewGenerationService(
			gdb,
			posts,
			cfg.GenerationWebhookURL,
			cfg.RefinementWebhookURL,
			cfg.GenerationMode,
		),
		viewDispatcher: &asyncViewDispatcher{analytics: analytics},
		uploadDir:      cfg.UploadDir,
		uploadURL:      cfg.UploadURLPath,
	}
}

// SetViewDispatcher 覆盖默认的异步浏览派发器，主要用于测试。
func (a *API) SetViewDispatcher(dispatcher viewtrack.Dispatcher) {
	if dispatcher != nil {
		a.viewDispatcher = dispatcher
	}
}

// Generation exposes the generation service for tests that need to swap
// its HTTP client.
func (a *API) Generation() *service.GenerationService {
	return a.generation
}
