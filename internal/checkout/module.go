package checkout

import (
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/backend"
	"github.com/polkiloo/storefront/internal/adapter/gateway"
	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/usecase"
)

// Module provides the checkout orchestrator and its session janitor.
var Module = fx.Provide(
	newOrchestrator,
	newJanitor,
)

type orchestratorParams struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	Backend   backend.Client
	Carts     *usecase.CartUseCase
	Addresses *usecase.AddressUseCase
	Gateway   *gateway.Hosted
	Attempts  repository.AttemptRepository `optional:"true"`
}

func newOrchestrator(p orchestratorParams) *Orchestrator {
	return NewOrchestrator(p.Backend, p.Carts, p.Addresses, p.Gateway, p.Attempts, Options{
		Currency:        p.Config.Currency,
		Merchant:        p.Config.MerchantName,
		ConfirmInterval: p.Config.ConfirmPollInterval,
		ConfirmAttempts: p.Config.ConfirmMaxAttempts,
		SessionTTL:      p.Config.SessionTTL,
	}, p.Logger)
}

func newJanitor(cfg *config.Config, o *Orchestrator, logger *slog.Logger) *Janitor {
	interval := cfg.SessionTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	return NewJanitor(o, interval, logger)
}
