package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"grameen_connect/internal/config"
	"grameen_connect/internal/httpx"
)

// Health reports liveness plus database reachability.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := config.Ping(ctx, db); err != nil {
			logrus.WithError(err).Warn("health check: database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "message": httpx.T(c, "api_degraded")})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": httpx.T(c, "api_running")})
	}
}
