package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/vodhub/internal/api/handler"
	"github.com/timmy/vodhub/internal/api/middleware"
	"github.com/timmy/vodhub/internal/config"
	"github.com/timmy/vodhub/internal/logger"
	"github.com/timmy/vodhub/internal/service"
)

// Services bundles what the routes are served from.
type Services struct {
	Catalog  *service.CatalogService
	Sessions *service.SessionService
	Library  *service.LibraryService
	// PageSize is the default page size of stateless video requests.
	PageSize int
}

// SetupRouter configures the Gin router with all routes.
// Parameters:
//   - svc: services backing the handlers.
//   - cfg: server configuration (mode, CORS, cache lifetime).
//   - log: base logger for request logging.
//
// Returns:
//   - *gin.Engine: configured router.
func SetupRouter(svc Services, cfg *config.ServerConfig, log *logger.Logger) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler()
	catalogHandler := handler.NewCatalogHandler(svc.Catalog, svc.PageSize)
	sessionHandler := handler.NewSessionHandler(svc.Sessions)
	libraryHandler := handler.NewLibraryHandler(svc.Library)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		// Catalog, cacheable by browsers and CDNs
		catalog := v1.Group("", middleware.CacheControl(cfg.CacheSeconds))
		catalog.GET("/sources", catalogHandler.ListSources)
		catalog.GET("/sources/:id/categories", catalogHandler.GetCategories)
		catalog.GET("/sources/:id/videos", catalogHandler.ListVideos)
		catalog.GET("/home", catalogHandler.Home)
		catalog.GET("/feed", catalogHandler.Feed)

		// Browse sessions
		v1.POST("/sessions", sessionHandler.Open)
		v1.GET("/sessions/:id", sessionHandler.Get)
		v1.POST("/sessions/:id/next", sessionHandler.Next)
		v1.POST("/sessions/:id/scroll", sessionHandler.Scroll)
		v1.PUT("/sessions/:id/query", sessionHandler.UpdateQuery)
		v1.DELETE("/sessions/:id", sessionHandler.Close)

		// Library
		v1.GET("/favorites", libraryHandler.ListFavorites)
		v1.POST("/favorites", libraryHandler.AddFavorite)
		v1.GET("/favorites/:source/:video", libraryHandler.CheckFavorite)
		v1.DELETE("/favorites/:source/:video", libraryHandler.RemoveFavorite)
		v1.GET("/history", libraryHandler.ContinueWatching)
		v1.PUT("/history/:source/:video", libraryHandler.SavePlayRecord)
		v1.DELETE("/history/:source/:video", libraryHandler.DeletePlayRecord)
	}

	return r
}
