package api

import (
	"net/http"

	"playtube-backend/internal/auth/delivery"
	authUsecase "playtube-backend/internal/auth/usecase"
	"playtube-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUc authUsecase.AuthUsecase) {
	authHandler := delivery.NewAuthHandler(authUc)

	api := r.Group("/api/v1")
	{
		// Health check (no auth required)
		api.GET("/healthcheck", func(c *gin.Context) {
			httpx.JSON(c, http.StatusOK, gin.H{"status": "ok"}, "OK")
		})

		users := api.Group("/users")
		{
			users.POST("/register", authHandler.Register)
			users.POST("/login", authHandler.Login)
			users.POST("/refresh-token", authHandler.RefreshToken)

			users.POST("/logout", delivery.AuthMiddleware(authUc), authHandler.Logout)
			users.POST("/change-password", delivery.AuthMiddleware(authUc), authHandler.ChangePassword)
			users.GET("/current-user", delivery.AuthMiddleware(authUc), authHandler.CurrentUser)
		}
	}
}
