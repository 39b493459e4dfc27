package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// HealthCheck returns service health status (basic)
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "admin-gateway-service",
	})
}

// HealthHandler exposes the extended health endpoint with dependency checks.
type HealthHandler struct {
	redis *redis.Client
}

func NewHealthHandler(redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{redis: redisClient}
}

// ExtendedHealthCheck returns detailed health status including Redis
func (h *HealthHandler) ExtendedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health := gin.H{
		"status":  "healthy",
		"service": "admin-gateway-service",
		"checks":  gin.H{},
	}
	checks := health["checks"].(gin.H)

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			health["status"] = "degraded"
		} else {
			checks["redis"] = gin.H{
				"status": "healthy",
			}
		}
	} else {
		checks["redis"] = gin.H{
			"status": "disabled",
		}
	}

	c.JSON(http.StatusOK, health)
}
