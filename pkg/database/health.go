package database

import (
	"context"
	"database/sql"
	"time"
)

// PoolHealth is the ping latency and pool utilization reported by the
// health endpoint.
type PoolHealth struct {
	Latency time.Duration
	Open    int
	InUse   int
	Idle    int
}

// CheckHealth pings the database and snapshots pool utilization.
func CheckHealth(ctx context.Context, db *sql.DB) (PoolHealth, error) {
	start := time.Now()
	if err := db.PingContext(ctx); err != nil {
		return PoolHealth{Latency: time.Since(start)}, err
	}

	stats := db.Stats()
	return PoolHealth{
		Latency: time.Since(start),
		Open:    stats.OpenConnections,
		InUse:   stats.InUse,
		Idle:    stats.Idle,
	}, nil
}
