package routes

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gwarren3210/song-recommender/internal/config"
	"github.com/gwarren3210/song-recommender/internal/handlers"
	"github.com/gwarren3210/song-recommender/internal/middleware"
)

func SetupRoutes(
	cfg *config.Config,
	songHandler *handlers.SongHandler,
	recommendationHandler *handlers.RecommendationHandler,
) *gin.Engine {

	router := gin.New()

	// =========================
	// GLOBAL MIDDLEWARE
	// =========================
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// =========================
	// CORS CONFIG (DEV / PROD)
	// =========================
	env := os.Getenv("ENV") // development | production
	frontendURL := os.Getenv("CORS_ORIGIN")

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if env == "production" {
		if frontendURL == "" {
			log.Fatal("❌ CORS_ORIGIN environment variable is NOT set in production!")
		}
		corsConfig.AllowOrigins = []string{frontendURL}
		log.Printf("✅ CORS configured for production: %s", frontendURL)
	} else {
		allowedOrigins := []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
		}
		if frontendURL != "" {
			allowedOrigins = append(allowedOrigins, frontendURL)
		}

		corsConfig.AllowOriginFunc = func(origin string) bool {
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			// Allow local network IPs (192.168.x.x, 10.x.x.x)
			if strings.HasPrefix(origin, "http://192.168.") || strings.HasPrefix(origin, "http://10.") {
				return true
			}
			return false
		}
		log.Printf("✅ CORS configured for development with %d allowed origins", len(allowedOrigins))
	}

	router.Use(cors.New(corsConfig))

	// =========================
	// SECURITY HEADERS MIDDLEWARE
	// =========================
	router.Use(func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	// =========================
	// API ROUTES
	// =========================
	api := router.Group("/api")
	{
		// ---------- PUBLIC READS ----------
		songs := api.Group("/songs")
		{
			songs.GET("", songHandler.ListSongs)
			songs.GET("/search", songHandler.SearchSongs)
			songs.GET("/resolve", songHandler.ResolveSong)
			songs.GET("/:id", songHandler.GetSong)
			songs.GET("/:id/embedding", songHandler.GetEmbedding)
		}

		api.GET("/genres", songHandler.GetGenres)
		api.GET("/stats", songHandler.GetStats)
		api.GET("/recommendations", recommendationHandler.GetRecommendations)

		// ---------- PROTECTED WRITES ----------
		protected := api.Group("/songs")
		protected.Use(middleware.JWTMiddleware(cfg.JWTSecret))
		{
			protected.POST("", songHandler.UploadAudio)
			protected.POST("/:id/embedding", songHandler.StoreEmbedding)
			protected.POST("/:id/metadata", songHandler.StoreMetadata)
			protected.DELETE("/:id", songHandler.DeleteSong)
		}
	}

	// =========================
	// HEALTH & ROOT
	// =========================
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "success",
			"message": "Server is running",
		})
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "success",
			"message": "Song Recommender API",
			"version": "1.0.0",
		})
	})

	return router
}
