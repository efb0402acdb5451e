// Package http holds the composition types shared by the router and the
// lead service modules.
package http

import (
	"context"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/logger"
)

// RouterConfig is what the router reads: listener and CORS settings, the JWT
// secret and the message ingestion limits.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
	httpkit.MessageRateConfig
}

// HealthChecker backs /api/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is assembled by the api main and handed to router.New.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health is pinged by /api/health; nil reports healthy.
	Health  HealthChecker
	Modules []Module
}
