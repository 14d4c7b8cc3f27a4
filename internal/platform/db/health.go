package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"totalConns"`
	IdleConns       int32  `json:"idleConns"`
	AcquiredConns   int32  `json:"acquiredConns"`
	MaxConns        int32  `json:"maxConns"`
	AcquireCount    int64  `json:"acquireCount"`
	AcquireDuration string `json:"acquireDuration"`
	Healthy         bool   `json:"healthy"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// Pinger is anything the readiness endpoint can probe (the pool, the cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database pool state plus any extra dependencies.
// A failing extra dependency degrades the status but keeps a 200 since the
// service can still answer from the database.
func HealthHandler(pool *pgxpool.Pool, extras map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		err := pool.Ping(ctx)
		stats := GetPoolStats(pool)

		if err != nil {
			stats.Healthy = false
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"success": false,
				"status":  "unhealthy",
				"error":   err.Error(),
				"pool":    stats,
			})
		}

		status := "healthy"
		deps := make(map[string]string, len(extras))
		for name, p := range extras {
			if perr := p.Ping(ctx); perr != nil {
				deps[name] = perr.Error()
				status = "degraded"
				continue
			}
			deps[name] = "ok"
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":      true,
			"status":       status,
			"pool":         stats,
			"dependencies": deps,
		})
	}
}
