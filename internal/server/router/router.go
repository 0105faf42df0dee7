package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockscan/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.ScanHandler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.POST("/scans", handler.Scan)

	session := r.Group("/session")
	session.GET("", handler.Session)
	session.PUT("/delta", handler.SetDelta)
	session.POST("/commit", handler.Commit)
	session.POST("/cancel", handler.Cancel)

	r.GET("/history", handler.History)
	r.GET("/catalog", handler.Catalog)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	logger.Info("router initialized")
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
