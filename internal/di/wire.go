//go:build wireinject
// +build wireinject

package di

import (
	"GridPulse/pkg/config"
	"GridPulse/pkg/server"

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
		ProvideHTTPClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,
		ProvideS3Archive,

		// Services
		ProvidePriceFetcher,
		ProvideEmissionsFetcher,
		ProvideFeatureEngine,
		ProvideSummarizer,

		// Use cases
		ProvidePipeline,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
