package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// HealthCheck is one named dependency checked by /healthz.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// RedisCheck pings the queue's redis connection.
func RedisCheck(client *redis.Client) HealthCheck {
	return HealthCheck{
		Name: "queue",
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

type healthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	Environment string            `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Checks:      make(map[string]string, len(h.health)),
		Environment: h.cfg.Environment,
	}
	for _, check := range h.health {
		status := "ok"
		if err := check.Ping(ctx); err != nil {
			status = "error"
			resp.Status = "degraded"
			h.log.Error().Err(err).Str("check", check.Name).Msg("health check failed")
		}
		resp.Checks[check.Name] = status
	}

	c.JSON(http.StatusOK, resp)
}
