package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artcatalog/backend/internal/config"
	"github.com/artcatalog/backend/internal/handlers"
	"github.com/artcatalog/backend/internal/middleware"
	"github.com/artcatalog/backend/internal/models"
	"github.com/artcatalog/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize artwork store
	var artworkStore services.ArtworkStore
	switch cfg.StoreDriver {
	case "memory":
		log.Println("WARN: using in-memory artwork store, data is lost on restart")
		artworkStore = services.NewMemoryArtworkStore()
	default:
		db, err := models.InitDB(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}

		// Run migrations
		if err := models.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		artworkStore = services.NewGormArtworkStore(db)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize object storage
	var objectStore services.ObjectStore
	if cfg.UsesS3() {
		s3Service, err := services.NewS3Service(cfg)
		if err != nil {
			log.Fatalf("Failed to init S3 service: %v", err)
		}
		objectStore = s3Service
	} else {
		log.Printf("Media storage: local directory %s", cfg.LocalAssetsPath)
		objectStore = services.NewStorageService(cfg)
	}

	// Initialize services
	imageService := services.NewImageService(cfg, objectStore)
	svc := handlers.Services{
		Artworks:    services.NewArtworkService(artworkStore, imageService),
		Auth:        services.NewAuthService(cfg),
		Email:       services.NewEmailService(cfg),
		MailingList: services.NewMailingListService(cfg),
		Assets:      services.NewAssetService(objectStore),
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadSize + 1<<20
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))

	if !cfg.UsesS3() {
		router.Static("/assets", cfg.LocalAssetsPath)
	}

	handlers.RegisterRoutes(router, cfg, redisClient, svc)

	// Start server; uploads may be slow, so only header reads are bounded
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
