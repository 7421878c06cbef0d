package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	amqpConn    *amqp.Connection
}

func NewHealthHandler(dbPool *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp.Connection) *HealthHandler {
	return &HealthHandler{dbPool: dbPool, redisClient: redisClient, amqpConn: amqpConn}
}

// Healthz reports process liveness only.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}

// Readyz checks every backing store and reports them all, so a failing
// readiness probe names exactly which dependency is down.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	checks := gin.H{"postgres": "up", "redis": "up", "rabbitmq": "up"}
	ready := true

	if err := h.dbPool.Ping(ctx); err != nil {
		checks["postgres"] = "down"
		ready = false
	}
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = "down"
		ready = false
	}
	if h.amqpConn == nil || h.amqpConn.IsClosed() {
		checks["rabbitmq"] = "down"
		ready = false
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ready": ready, "checks": checks})
}
