package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nutriplan/backend/config"
	"github.com/nutriplan/backend/internal/usecase"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, auth *usecase.AuthService) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
		}

		secured := v1.Group("", AuthMiddleware(auth))
		{
			users := secured.Group("/users")
			{
				users.GET("/me", handler.Me)
				users.PUT("/me/profile", handler.UpsertProfile)
			}

			diets := secured.Group("/diets")
			{
				diets.POST("", handler.CreateDiet)
				diets.GET("", handler.ListDiets)
				diets.GET("/:id", handler.GetDiet)
			}
		}
	}

	return router
}
