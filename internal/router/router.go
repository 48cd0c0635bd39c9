package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kaiwsv/rootsrecipes-api/internal/ai"
	"github.com/kaiwsv/rootsrecipes-api/internal/cards"
	"github.com/kaiwsv/rootsrecipes-api/internal/config"
	"github.com/kaiwsv/rootsrecipes-api/internal/handlers"
	"github.com/kaiwsv/rootsrecipes-api/internal/logger"
	"github.com/kaiwsv/rootsrecipes-api/internal/middleware"
	"github.com/kaiwsv/rootsrecipes-api/internal/preview"
	"github.com/kaiwsv/rootsrecipes-api/internal/service"
	"github.com/kaiwsv/rootsrecipes-api/internal/session"
	"github.com/kaiwsv/rootsrecipes-api/internal/ws"
)

// SetupRouter sets up the Gin router.
func SetupRouter(cfg *config.Config) *gin.Engine {
	// Create default Gin router
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowCredentials = true
	corsConfig.AllowOrigins = []string{
		"https://rootsandrecipes.app",
		"https://www.rootsandrecipes.app",
		"http://localhost:5173",
	}
	r.Use(cors.New(corsConfig))

	// Add request ID middleware for request correlation
	r.Use(logger.RequestIDMiddleware())

	// Ping route for testing
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Grounded AI provider setup
	var provider ai.GroundedProvider
	switch cfg.EnvVars.AIProvider {
	case "openai":
		provider = ai.NewOpenAIProvider(cfg.EnvVars.OpenAIAPIKey)
	default:
		provider = ai.NewAnthropicProvider(cfg.EnvVars.AnthropicAPIKey)
	}

	// Link preview fetcher: configured relay chain, else the built-in one.
	var fetcherOpts []preview.Option
	if len(cfg.EnvVars.PreviewProxyURLs) > 0 {
		fetcherOpts = append(fetcherOpts, preview.WithProxies(preview.ProxiesFromURLs(cfg.EnvVars.PreviewProxyURLs)))
	}
	fetcher := preview.NewFetcher(fetcherOpts...)

	// Card media stream
	hub := ws.NewHub()
	go hub.Run()
	enricher := cards.NewEnricher(fetcher, hub)

	// Session store: expire sessions idle for an hour.
	sessions := session.NewStore(time.Hour, 10*time.Minute)

	searchService := service.NewSearchService(cfg, provider)
	searchHandler := handlers.NewSearchHandler(searchService, sessions, enricher)
	previewHandler := handlers.NewPreviewHandler(fetcher)
	cardStreamHandler := ws.NewCardStreamHandler(hub, sessions)

	api := r.Group("/v1")
	{
		// Searches fan out to a paid AI backend; keep them tightly limited.
		searches := api.Group("/search")
		searches.Use(middleware.RateLimitByIP(2, 5*time.Minute, 15*time.Minute))
		{
			searches.POST("/recipes", searchHandler.SearchRecipes)
			searches.POST("/recipes/more", searchHandler.LoadMoreRecipes)
			searches.POST("/businesses", searchHandler.SearchBusinesses)
			searches.POST("/businesses/more", searchHandler.LoadMoreBusinesses)
		}

		// Preview fetches are cheap but still hit public relays.
		api.GET("/preview", middleware.RateLimitByIP(10, 5*time.Minute, 15*time.Minute), previewHandler.GetPreview)

		// Card media stream
		api.GET("/ws/cards/:session_id", cardStreamHandler.HandleCardStream)
	}

	return r
}
