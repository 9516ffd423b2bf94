package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"TradeMind/internal/domain/repository"
	"TradeMind/internal/domain/service"
	"TradeMind/internal/execution"
	"TradeMind/internal/filters"
	"TradeMind/internal/handler/api"
	"TradeMind/internal/marketstate"
	internalrepo "TradeMind/internal/repository"
	"TradeMind/internal/risk"
	"TradeMind/internal/service/decision"
	"TradeMind/internal/service/exchange"
	"TradeMind/internal/service/peers"
	"TradeMind/internal/usecase"
	pkgcache "TradeMind/pkg/cache"
	pkgch "TradeMind/pkg/clickhouse"
	"TradeMind/pkg/config"
	xhttp "TradeMind/pkg/http"
	pkgkafka "TradeMind/pkg/kafka"
	applogger "TradeMind/pkg/logger"
	"TradeMind/pkg/metrics"
	pkgqueue "TradeMind/pkg/queue"
	"TradeMind/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates the ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideMemoryStore creates the append-only store and ensures its schema.
func ProvideMemoryStore(chClient *pkgch.Client, cfg *config.Config) (repository.MemoryStore, error) {
	store := internalrepo.NewClickHouseMemoryStore(chClient.DB(), cfg.ClickHouse.RetentionDays)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideKafkaProducer creates the audit producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAuditPublisher mirrors persisted rows to Kafka, or nil.
func ProvideAuditPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AuditPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaAuditPublisher(producer, cfg.Kafka.Topic)
}

// ProvideRetryQueue creates the Redis-backed persistence replay queue, or
// nil when Redis is disabled. The queue runs in producer-consumer mode: it
// both accepts failed rows and replays them.
func ProvideRetryQueue(cfg *config.Config, lgr *applogger.Logger, store repository.MemoryStore) *pkgqueue.RedisQueue {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	q := pkgqueue.NewRedisQueue(lgr, &pkgqueue.QueueConfig{
		Workers:    1,
		RetryLimit: 5,
		RetryDelay: 30 * time.Second,
	}, client, pkgqueue.ModeProducerConsumer)
	q.RegisterJobs([]pkgqueue.Job{
		internalrepo.NewFilterResultReplayJob(store),
		internalrepo.NewVerdictReplayJob(store),
		internalrepo.NewTradeRecordReplayJob(store),
	})
	return q
}

// ProvideQueueService narrows the retry queue to its publish interface.
func ProvideQueueService(q *pkgqueue.RedisQueue) pkgqueue.QueueService {
	if q == nil {
		return nil
	}
	return q
}

// ProvideMarketStore creates the rolling market state store.
func ProvideMarketStore(cfg *config.Config) *marketstate.Store {
	return marketstate.New(cfg.Trading.Symbol, cfg.Trading.CandleWindowMax)
}

// ProvideMarketStream creates the exchange WebSocket stream.
func ProvideMarketStream(cfg *config.Config, lgr *applogger.Logger) repository.MarketStream {
	return exchange.NewStream(
		cfg.Exchange.WebSocketURL,
		cfg.Trading.Symbol,
		cfg.Exchange.ReconnectDelay,
		cfg.Exchange.PingInterval,
		lgr,
	)
}

// ProvideRESTClient creates the exchange REST client.
func ProvideRESTClient(cfg *config.Config, lgr *applogger.Logger) *exchange.RESTClient {
	return exchange.NewRESTClient(
		cfg.Exchange.RESTURL,
		cfg.Exchange.APIKey,
		cfg.Exchange.APISecret,
		30*time.Second,
		lgr,
	)
}

// ProvideExchange narrows the REST client to the order submission port.
func ProvideExchange(rest *exchange.RESTClient) service.Exchange {
	return rest
}

// ProvideSimLedger creates and restores the paper account.
func ProvideSimLedger(cfg *config.Config, lgr *applogger.Logger) (*execution.SimLedger, error) {
	ledger := execution.NewSimLedger(
		cfg.Trading.SimulationStatePath,
		cfg.Trading.SimulationInitialCapital,
		lgr,
	)
	if err := ledger.Load(); err != nil {
		return nil, fmt.Errorf("simulation ledger: %w", err)
	}
	return ledger, nil
}

// ProvideGateway creates the execution gateway.
func ProvideGateway(
	ex service.Exchange,
	ledger *execution.SimLedger,
	m repository.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
) *execution.Gateway {
	return execution.NewGateway(ex, ledger, m, lgr, cfg.Trading.MaxQuantity, cfg.Trading.DryRun)
}

// ProvideSizer creates the risk sizer.
func ProvideSizer(cfg *config.Config) *risk.Sizer {
	return risk.NewSizer(cfg)
}

// ProvideDecisionService creates the adjudication client.
func ProvideDecisionService(cfg *config.Config, lgr *applogger.Logger) service.DecisionService {
	return decision.NewClient(cfg.AI.URL, cfg.AI.APIKey, cfg.AI.Timeout, lgr)
}

// ProvideAlertSender creates the peer alert client.
func ProvideAlertSender(cfg *config.Config, lgr *applogger.Logger) service.AlertSender {
	return peers.NewAlertClient(cfg.Peers.AlertURL, cfg.Peers.Timeout, lgr)
}

// ProvideHealthChecker creates the peer health prober.
func ProvideHealthChecker(cfg *config.Config) service.HealthChecker {
	return peers.NewHealthClient(cfg.Peers.HealthURLs, cfg.Peers.Timeout)
}

// ProvideFilterEngine builds the static filter registry and its engine.
func ProvideFilterEngine(cfg *config.Config, m repository.Metrics) *filters.Engine {
	return filters.NewEngine(filters.NewRegistry(cfg.Filters), m)
}

// ProvideRecorder creates the persistence write path.
func ProvideRecorder(
	store repository.MemoryStore,
	audit repository.AuditPublisher,
	retry pkgqueue.QueueService,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.CycleRecorder {
	return usecase.NewCycleRecorder(store, audit, retry, m, lgr)
}

// ProvideCollector creates the stream-to-store pump.
func ProvideCollector(
	stream repository.MarketStream,
	market *marketstate.Store,
	m repository.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
) *usecase.MarketCollector {
	return usecase.NewMarketCollector(stream, market, m, lgr, cfg.Exchange.ReconnectDelay)
}

// ProvideScheduler creates the trading loop.
func ProvideScheduler(
	cfg *config.Config,
	market *marketstate.Store,
	engine *filters.Engine,
	dec service.DecisionService,
	sizer *risk.Sizer,
	gateway *execution.Gateway,
	recorder *usecase.CycleRecorder,
	alerts service.AlertSender,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.Scheduler {
	return usecase.NewScheduler(cfg, market, engine, dec, sizer, gateway, recorder, alerts, m, lgr)
}

// ProvideResponseCache creates the cache for the read API: layered over
// Redis when Redis is configured, plain in-memory otherwise.
func ProvideResponseCache(cfg *config.Config, lgr *applogger.Logger) pkgcache.Service {
	if cfg.Redis.Enabled {
		host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
		if err == nil {
			port, _ := strconv.Atoi(portStr)
			redisCache, rerr := pkgcache.NewRedisCache(
				pkgcache.WithRedisHost(host),
				pkgcache.WithRedisPort(port),
				pkgcache.WithRedisPassword(cfg.Redis.Password),
				pkgcache.WithRedisDB(cfg.Redis.DB),
			)
			if rerr == nil {
				return pkgcache.NewLayeredCache(redisCache, pkgcache.WithLayeredMemorySize(256))
			}
			lgr.Warn("redis cache unavailable, using memory cache", applogger.Error(rerr))
		}
	}
	return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(256))
}

// ProvideStatusHandler creates the read-only HTTP API.
func ProvideStatusHandler(
	lgr *applogger.Logger,
	scheduler *usecase.Scheduler,
	market *marketstate.Store,
	stream repository.MarketStream,
	memory repository.MemoryStore,
	ledger *execution.SimLedger,
	health service.HealthChecker,
	cache pkgcache.Service,
) xhttp.Handler {
	return api.NewStatusHandler(lgr, scheduler, market, stream, memory, ledger, health, cache)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	market *marketstate.Store,
	rest *exchange.RESTClient,
	collector *usecase.MarketCollector,
	scheduler *usecase.Scheduler,
	retryQueue *pkgqueue.RedisQueue,
	audit repository.AuditPublisher,
	alerts service.AlertSender,
	memory repository.MemoryStore,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, lgr, market, rest, collector, scheduler, retryQueue, audit, alerts, memory, chClient, handler)
}
