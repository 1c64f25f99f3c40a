// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gwarren3210/song-recommender/internal/cache"
	"github.com/gwarren3210/song-recommender/internal/config"
	"github.com/gwarren3210/song-recommender/internal/database"
	"github.com/gwarren3210/song-recommender/internal/handlers"
	"github.com/gwarren3210/song-recommender/internal/models"
	"github.com/gwarren3210/song-recommender/internal/repository"
	"github.com/gwarren3210/song-recommender/internal/routes"
	"github.com/gwarren3210/song-recommender/internal/services"
)

func main() {

	// =========================
	// LOAD CONFIG
	// =========================
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Config load failed:", err)
	}

	// =========================
	// CONNECT DATABASE
	// =========================
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("❌ Database connection failed:", err)
	}

	advanced, err := database.EnsureSchema(db, cfg)
	if err != nil {
		log.Fatal("❌ Schema setup failed:", err)
	}
	if !advanced {
		log.Println("⚠️ Advanced search unavailable, serving substring fallback")
	}

	// =========================
	// INIT REPOSITORY & SERVICES
	// =========================
	songRepo := repository.NewSongRepository(db, cfg, advanced)

	songCache := cache.NewLFU[models.Song](cfg.CacheSize)
	searchService := services.NewSearchService(songRepo, songCache)
	recService := services.NewRecommendationService(songRepo)

	// =========================
	// INIT HANDLERS & ROUTES
	// =========================
	songHandler := handlers.NewSongHandler(songRepo, searchService)
	recommendationHandler := handlers.NewRecommendationHandler(recService)

	router := routes.SetupRoutes(cfg, songHandler, recommendationHandler)

	// =========================
	// SERVER CONFIG
	// =========================
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.ServerPort
	}
	bindAddr := "0.0.0.0:" + port

	server := &http.Server{
		Addr:         bindAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// =========================
	// START SERVER
	// =========================
	go func() {
		log.Println("🎵 =======================================")
		log.Println("🎵   SONG RECOMMENDER API SERVER")
		log.Println("🎵 =======================================")
		log.Printf("🎵   Running on: %s", bindAddr)
		log.Printf("🎵   Advanced search: %v", advanced)
		log.Println("🚀 Server started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Println("❌ Server error:", err)
		}
	}()

	// =========================
	// GRACEFUL SHUTDOWN
	// =========================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("❌ Forced shutdown:", err)
	}

	log.Println("✅ Server exited properly")
}
