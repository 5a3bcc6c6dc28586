package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/backend"
	"github.com/polkiloo/storefront/internal/adapter/geocoder"
	"github.com/polkiloo/storefront/internal/config"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewCartUseCase,
	newAddressUseCase,
	NewOrderUseCase,
)

func newAddressUseCase(cfg *config.Config, client backend.Client, geo geocoder.Client, logger *slog.Logger) *AddressUseCase {
	return NewAddressUseCase(client, geo, cfg.GeocodeTimeout, logger)
}
