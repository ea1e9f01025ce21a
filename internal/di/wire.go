//go:build wireinject
// +build wireinject

package di

import (
	"TickVault/pkg/config"
	"TickVault/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideKafkaProducer,

		// Repositories
		ProvideRawStore,
		ProvideBucketStore,
		ProvideExtentSource,
		ProvideNotifier,

		// Use cases
		ProvideRollupBuilder,
		ProvideRollupRunner,
		ProvidePointsUseCase,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
