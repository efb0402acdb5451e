// Package db provides database connection infrastructure.
// This is part of the platform layer and contains no business logic.
package db

import (
	"context"
	"strings"
	"time"

	"leadflow_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const healthCheckPeriod = time.Minute

// NewPool opens the pool described by cfg and verifies it with a ping.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := buildPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// buildPoolConfig parses the connection URL and applies the sizing knobs.
// Settings already present in the URL (pool_max_conns, application_name) win.
func buildPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}

	params := poolConfig.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok && cfg.GetDBApplicationName() != "" {
		params["application_name"] = cfg.GetDBApplicationName()
	}

	url := cfg.GetDatabaseURL()
	if !hasParam(url, "pool_max_conns") && cfg.GetDBMaxConns() > 0 {
		poolConfig.MaxConns = cfg.GetDBMaxConns()
	}
	if !hasParam(url, "pool_min_conns") {
		poolConfig.MinConns = min(cfg.GetDBMinConns(), poolConfig.MaxConns)
	}
	if d := cfg.GetDBMaxConnLifetime(); d > 0 && !hasParam(url, "pool_max_conn_lifetime") {
		poolConfig.MaxConnLifetime = d
	}
	if d := cfg.GetDBMaxConnIdleTime(); d > 0 && !hasParam(url, "pool_max_conn_idle_time") {
		poolConfig.MaxConnIdleTime = d
	}
	poolConfig.HealthCheckPeriod = healthCheckPeriod

	return poolConfig, nil
}

// hasParam reports whether the URL or keyword/value DSN sets key explicitly.
func hasParam(dsn, key string) bool {
	return strings.Contains(dsn, key+"=")
}
