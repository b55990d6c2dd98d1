package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studentorg/newsletter-service/internal/config"
	"github.com/studentorg/newsletter-service/internal/handlers"
	"github.com/studentorg/newsletter-service/internal/middleware"
	"github.com/studentorg/newsletter-service/internal/store"
)

// NewRouter wires the public endpoints.
// Public: /health, /ready, /api/newsletter/subscribe
func NewRouter(cfg config.Config, list handlers.ListClient, backup *store.PostgresStore) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: the backup store is advisory, so an unreachable backup
	// degrades the report without failing it — the subscribe path still
	// works on the marketing list alone.
	r.GET("/ready", func(c *gin.Context) {
		backupStatus := "not_configured"
		if backup != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()

			backupStatus = "ok"
			if err := backup.Ping(ctx); err != nil {
				backupStatus = "unavailable"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "backup": backupStatus})
	})

	deps := handlers.Deps{List: list}
	if backup != nil {
		deps.Subscribers = backup
	}
	handlers.RegisterNewsletterRoutes(r, deps)

	return r
}
