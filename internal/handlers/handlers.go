package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
	"github.com/xuxiaoleilancy/ai-codehub/internal/config"
	"github.com/xuxiaoleilancy/ai-codehub/internal/flash"
	"github.com/xuxiaoleilancy/ai-codehub/internal/i18n"
	"github.com/xuxiaoleilancy/ai-codehub/internal/middleware"
	"github.com/xuxiaoleilancy/ai-codehub/internal/navbar"
	"github.com/xuxiaoleilancy/ai-codehub/internal/service"
	"github.com/xuxiaoleilancy/ai-codehub/internal/views"
)

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	authService  *service.AuthService
	modelService *service.ModelService
	navbar       *navbar.Presenter
	views        *views.Renderer
	table        i18n.Table
	backend      *apiclient.Client
	cache        *redis.Client
	flashes      *flash.Jar
}

// NewHandlerSet wires the page controllers. cache may be nil when Redis is
// disabled.
func NewHandlerSet(log zerolog.Logger, backend *apiclient.Client, cache *redis.Client, renderer *views.Renderer, cfg *config.AppConfig) HandlerSet {
	return HandlerSet{
		log:          log,
		cfg:          cfg,
		authService:  service.NewAuthService(backend, cfg.Session.DefaultTTL, log),
		modelService: service.NewModelService(backend, log),
		navbar:       navbar.NewPresenter(backend, cache, cfg.Navbar.CacheTTL, log),
		views:        renderer,
		table:        i18n.DefaultTable(),
		backend:      backend,
		cache:        cache,
		flashes:      flash.NewJar(cfg.Session.CookieSecret, cfg.Session.CookieSecure),
	}
}

func (h HandlerSet) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	router.GET("/", h.Home)
	router.GET("/login", h.LoginPage)
	router.POST("/login", h.Login)
	router.POST("/register", h.Register)
	router.POST("/logout", h.Logout)
	router.POST("/language/:code", h.SetLanguage)

	router.GET("/session", h.SessionStatus)
	router.POST("/session/check", h.SessionCheck)

	protected := router.Group("/")
	protected.Use(middleware.RequireSession(h.flashes))
	{
		protected.GET("/models", h.ListModels)
		protected.POST("/models", h.UploadModel)
		protected.GET("/models/:name", h.ModelDetails)
		protected.POST("/models/:name/update", h.UpdateModel)
		protected.POST("/models/:name/delete", h.DeleteModel)
		protected.GET("/export/models.xlsx", h.ExportModels)
	}
}
