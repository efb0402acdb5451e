package adapters

import (
	"leadflow_backend/internal/automation"
	"leadflow_backend/internal/events"
	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/notification"
	tenantsrepo "leadflow_backend/internal/tenants/repository"
	"leadflow_backend/platform/clock"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DecayConfig is the configuration a fully wired decay runner needs.
type DecayConfig interface {
	config.AutomationConfig
	ChannelConfig
}

// NewDecayRunner wires the temperature decay runner over Postgres with
// re-engagement messages sent through the configured channels.
func NewDecayRunner(pool *pgxpool.Pool, eventBus events.Bus, clk clock.Clock, cfg DecayConfig, log *logger.Logger) *automation.Runner {
	leads := leadsrepo.New(pool)
	dispatcher := NewChannelDispatcher(leads, cfg, log)
	notifier := notification.NewDecayNotifier(dispatcher, leads, log)

	return automation.NewRunner(tenantsrepo.New(pool), leads, eventBus, clk, cfg, log).
		WithNotifier(notifier)
}
