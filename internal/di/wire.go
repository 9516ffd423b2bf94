//go:build wireinject
// +build wireinject

package di

import (
	"TradeMind/pkg/config"
	"TradeMind/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideMemoryStore,
		ProvideKafkaProducer,
		ProvideAuditPublisher,
		ProvideRetryQueue,
		ProvideQueueService,

		// Market data
		ProvideMarketStore,
		ProvideMarketStream,
		ProvideRESTClient,
		ProvideExchange,

		// Trading core
		ProvideSimLedger,
		ProvideGateway,
		ProvideSizer,
		ProvideDecisionService,
		ProvideAlertSender,
		ProvideHealthChecker,
		ProvideFilterEngine,

		// Use cases
		ProvideRecorder,
		ProvideCollector,
		ProvideScheduler,

		// HTTP and application
		ProvideResponseCache,
		ProvideStatusHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
