package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"TickVault/internal/di"
	domrepo "TickVault/internal/domain/repository"
	"TickVault/internal/usecase"
	"TickVault/pkg/config"
)

// Batch rollup trigger. Builds one tier from its source, or the whole chain
// with -all. Exits non-zero on the first failed tier.
func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	source := flag.String("source", "raw", "build source: raw or a tier width (1ms..10s)")
	target := flag.String("target", "1ms", "target tier width (1ms..60s)")
	symbols := flag.String("symbols", "", "comma-separated symbols (defaults to rollup.symbols from config)")
	all := flag.Bool("all", false, "rebuild the full chain raw -> 1ms -> ... -> 60s")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	syms := cfg.Rollup.Symbols
	if *symbols != "" {
		syms = strings.Split(*symbols, ",")
	}
	if len(syms) == 0 {
		log.Fatal("no symbols: pass -symbols or set rollup.symbols in config")
	}

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	chClient, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		log.Fatalf("clickhouse init failed: %v", err)
	}
	defer chClient.Close()

	cache, err := di.ProvideCache(cfg)
	if err != nil {
		log.Fatalf("cache init failed: %v", err)
	}
	defer cache.Close()

	producer, err := di.ProvideKafkaProducer(cfg)
	if err != nil {
		log.Fatalf("kafka init failed: %v", err)
	}

	raw := di.ProvideRawStore(chClient, cfg, logger)
	buckets := di.ProvideBucketStore(chClient, cfg, logger)
	notifier := di.ProvideNotifier(producer, cache, cfg)
	defer notifier.Close()

	builder := di.ProvideRollupBuilder(raw, buckets, di.ProvideMetrics(), logger, cfg)
	runner := di.ProvideRollupRunner(builder, notifier, logger)

	ctx := context.Background()

	if *all {
		res, err := runner.RunChain(ctx, syms)
		if err != nil {
			log.Fatalf("rollup chain failed: %v (processed=%d written=%d)", err, res.Processed, res.Written)
		}
		log.Printf("rollup chain done: processed=%d written=%d symbols=%s", res.Processed, res.Written, strings.Join(syms, ","))
		return
	}

	src, err := usecase.ParseBuildSource(*source)
	if err != nil {
		log.Fatalf("invalid -source: %v", err)
	}
	tgt, err := domrepo.ParseTier(*target)
	if err != nil {
		log.Fatalf("invalid -target: %v", err)
	}

	res, err := runner.RunRollup(ctx, src, tgt, syms)
	if err != nil {
		log.Fatalf("rollup failed: %v (processed=%d written=%d)", err, res.Processed, res.Written)
	}
	log.Printf("rollup done: source=%s target=%s processed=%d written=%d symbols=%s",
		src, tgt, res.Processed, res.Written, strings.Join(syms, ","))
}
