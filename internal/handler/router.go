package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/embedserver/internal/middleware"
)

type RouterDeps struct {
	Embed          *EmbedHandler
	Health         *HealthHandler
	Metrics        http.Handler
	MetricsPath    string
	APIKeyHashes   []string
	AdminJWTSecret []byte
	SetModelWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", deps.Health.Healthz)
	api.GET("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil && deps.MetricsPath != "" {
		api.GET(deps.MetricsPath, gin.WrapH(deps.Metrics))
	}

	keyGroup := api.Group("")
	keyGroup.Use(middleware.APIKey(deps.APIKeyHashes))
	keyGroup.GET("/", deps.Embed.Hello)

	embedGroup := keyGroup.Group("/embed")
	embedGroup.POST("/generate", deps.Embed.Generate)
	embedGroup.GET("/model-info", deps.Embed.ModelInfo)
	embedGroup.GET("/available-models", deps.Embed.AvailableModels)
	embedGroup.POST("/set-model-name",
		middleware.AdminAuth(deps.AdminJWTSecret),
		middleware.RateLimit(deps.SetModelWindow),
		deps.Embed.SetModelName,
	)
}
