// Package api exposes the inventory over a JSON HTTP interface.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kitchen-inventory/internal/app"
	"kitchen-inventory/internal/logger"
)

// NewRouter registers every route on a new gin engine.
func NewRouter(a *app.App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := NewHandler(a)

	r.GET("/health", h.Health())

	items := r.Group("/items")
	items.GET("", h.ListItems())
	items.GET("/:id", h.GetItem())
	items.PUT("/:id", h.PutItem())
	items.DELETE("/:id", h.DeleteItem())
	items.GET("/:id/report", h.GetReport())
	items.POST("/:id/report", h.PreviewReport())

	r.GET("/ghosts", h.ListGhosts())
	r.POST("/ghosts/replace", h.ReplaceGhost())
	r.GET("/match", h.Match())
	r.GET("/metrics/usage", h.Usage())

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.L().Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
