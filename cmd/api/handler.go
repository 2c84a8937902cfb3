package api

import (
	"log/slog"

	authUsecase "playtube-backend/internal/auth/usecase"
	"playtube-backend/pkg/config"
	"playtube-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase authUsecase.AuthUsecase
	config      *config.Config
	log         *slog.Logger
}

func NewHandler(authUc authUsecase.AuthUsecase, cfg *config.Config, log *slog.Logger) *Handler {
	return &Handler{
		authUsecase: authUc,
		config:      cfg,
		log:         log,
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && h.config.CORSOrigin != "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", h.config.CORSOrigin)
		} else if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.Use(httpx.ErrorHandler(h.log))

	SetupRoutes(r, h.authUsecase)

	return r.Run(addr)
}
