package handlers

import (
	"net/http"

	"github.com/artcatalog/backend/internal/config"
	"github.com/artcatalog/backend/internal/middleware"
	"github.com/artcatalog/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Services bundles what the routes depend on.
type Services struct {
	Artworks    *services.ArtworkService
	Auth        *services.AuthService
	Email       *services.EmailService
	MailingList *services.MailingListService
	Assets      *services.AssetService
}

// RegisterRoutes mounts the API on router.
func RegisterRoutes(router *gin.Engine, cfg *config.Config, redisClient *redis.Client, svc Services) {
	artworkHandler := NewArtworkHandler(svc.Artworks, cfg.MaxUploadSize)
	authHandler := NewAuthHandler(svc.Auth)
	contactHandler := NewContactHandler(svc.Email, svc.MailingList)
	storageHandler := NewStorageHandler(svc.Assets, cfg.MaxUploadSize)

	requireAuth := middleware.RequireAuth(svc.Auth)
	uploadLimit := middleware.UploadRateLimit(redisClient, cfg)
	bodyLimit := limitBody(cfg.MaxUploadSize)

	api := router.Group("/api")
	{
		api.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "running ok"})
		})

		api.POST("/users", authHandler.Login)
		api.POST("/passwords/hash", authHandler.HashPassword)

		api.POST("/email", contactHandler.Email)
		api.POST("/front-email", contactHandler.FrontEmail)
		api.POST("/mailing-list", contactHandler.Subscribe)

		artworks := api.Group("/artworks")
		artworks.Use(middleware.Authenticate(svc.Auth))
		{
			artworks.GET("", artworkHandler.List)
			artworks.GET("/sold", artworkHandler.ListSold)
			artworks.GET("/meta-data", artworkHandler.MetaData)
			artworks.PUT("/:id/likes", artworkHandler.Like)

			artworks.POST("", requireAuth, uploadLimit, bodyLimit, artworkHandler.Create)
			artworks.PUT("/:id", requireAuth, bodyLimit, artworkHandler.Update)
			artworks.DELETE("/:id", requireAuth, artworkHandler.Delete)
		}

		storage := api.Group("/storage")
		storage.Use(requireAuth)
		{
			storage.POST("/upload", uploadLimit, bodyLimit, storageHandler.Upload)
		}
	}
}
