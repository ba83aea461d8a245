package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthHandler reports whether the service's dependencies are reachable
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
	log   *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, client *redis.Client, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, redis: client, log: log}
}

// Health pings the database and Redis
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok", "redis": "ok"}
	healthy := true

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.log.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unavailable"
		healthy = false
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		h.log.Warn("redis health check failed", zap.Error(err))
		checks["redis"] = "unavailable"
		healthy = false
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks, "time": time.Now().UTC()})
}
