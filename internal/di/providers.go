package di

import (
	"context"
	"fmt"
	"time"

	"TickVault/internal/domain/repository"
	"TickVault/internal/handler/api"
	internalrepo "TickVault/internal/repository"
	"TickVault/internal/usecase"
	pkgcache "TickVault/pkg/cache"
	pkgch "TickVault/pkg/clickhouse"
	"TickVault/pkg/config"
	xhttp "TickVault/pkg/http"
	pkgkafka "TickVault/pkg/kafka"
	applogger "TickVault/pkg/logger"
	"TickVault/pkg/metrics"
	"TickVault/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Log.Level
	if level == "" {
		level = "info"
	}
	format := cfg.Log.Format
	if format == "" {
		format = "json"
	}
	output := cfg.Log.Output
	if output == "" {
		output = "stdout"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: output})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideCache creates the cache backend (redis or in-memory).
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Cache.Type == "redis" {
		c, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
			pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return pkgcache.NewMemoryCache(), nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRawStore creates ClickHouse raw tick storage.
func ProvideRawStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.RawStore {
	store := internalrepo.NewCHRawStore(chClient.DB(), cfg.ClickHouse.Database+".ticks_raw")
	if s, ok := store.(*internalrepo.CHRawStore); ok {
		s.SetLogger(l)
	}
	return store
}

// ProvideBucketStore creates ClickHouse bucket storage.
func ProvideBucketStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.BucketStore {
	store := internalrepo.NewCHBucketStore(chClient.DB(), cfg.ClickHouse.Database)
	if s, ok := store.(*internalrepo.CHBucketStore); ok {
		s.SetLogger(l)
	}
	return store
}

// ProvideExtentSource wraps the raw store extent lookup with a TTL cache.
func ProvideExtentSource(raw repository.RawStore, cache pkgcache.Service, cfg *config.Config) repository.ExtentSource {
	return internalrepo.NewCachedExtentSource(raw, cache, cfg.Cache.ExtentTTL)
}

// ProvideNotifier creates the rollup completion notifier. Kafka delivery is
// optional; extent cache invalidation always happens.
func ProvideNotifier(producer *pkgkafka.Producer, cache pkgcache.Service, cfg *config.Config) repository.Notifier {
	var next repository.Notifier
	if producer != nil {
		next = internalrepo.NewKafkaNotifier(producer, cfg.Kafka.Topic)
	}
	return internalrepo.NewInvalidatingNotifier(next, cache)
}

// ProvideRollupBuilder creates the tier builder.
func ProvideRollupBuilder(
	raw repository.RawStore,
	buckets repository.BucketStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.RollupBuilder {
	return usecase.NewRollupBuilder(raw, buckets, m, l, cfg.Rollup.ChunkSize)
}

// ProvideRollupRunner creates the rollup trigger surface.
func ProvideRollupRunner(builder *usecase.RollupBuilder, notifier repository.Notifier, l *applogger.Logger) *usecase.RollupRunner {
	return usecase.NewRollupRunner(builder, notifier, l)
}

// ProvidePointsUseCase assembles the adaptive query pipeline.
func ProvidePointsUseCase(
	buckets repository.BucketStore,
	extents repository.ExtentSource,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PointsUseCase {
	selector := usecase.NewTierSelector(buckets, m, l)
	aligner := usecase.NewTimeGridAligner(extents)
	executor := usecase.NewQueryExecutor(buckets, m)
	return usecase.NewPointsUseCase(selector, aligner, executor, l)
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	points *usecase.PointsUseCase,
	runner *usecase.RollupRunner,
	raw repository.RawStore,
) xhttp.Handler {
	return api.NewPointsEchoHandler(l, points, runner, raw, cfg.Query.DefaultPoints, cfg.Query.MaxPoints)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	chClient *pkgch.Client,
	cache pkgcache.Service,
	notifier repository.Notifier,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, chClient, cache, notifier, handler)
}
