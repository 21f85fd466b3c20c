// Command server runs the document search HTTP service.
//
// It serves ranked search (POST /api/search, /api/v1/search), document upload,
// listing and deletion, result-cache administration, usage analytics and
// health probes. Prometheus metrics are exposed on a separate port.
//
// Usage:
//
//	go run ./cmd/server [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/analytics/snapshots"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/documents"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/service"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/executor"
	searchhandler "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Engine/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults plus DS_* env when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("document search server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting document search server",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"redis", cfg.Redis.Enabled,
		"kafka", cfg.Kafka.Enabled,
	)
	m := metrics.New(prometheus.DefaultRegisterer)

	store, err := documents.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	defer store.Close()

	checker := health.NewChecker()
	checker.Register("document_store", health.PingCheck(store.Ping, true))

	var workers sync.WaitGroup
	goWorker := func(name string, fn func(ctx context.Context) error) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("background worker stopped", "worker", name, "error", err)
			}
		}()
	}
	defer workers.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		resultCache executor.ResultCache
		cacheAdmin  searchhandler.CacheAdmin
		queryCache  *cache.QueryCache
	)
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			resultCache, cacheAdmin = queryCache, queryCache
			checker.Register("redis", health.PingCheck(redisClient.Ping, false))
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	aggregator := analytics.NewAggregator()
	var (
		eventProducer   publisher.EventProducer  = aggregator
		analyticsSink   analytics.BatchPublisher = aggregator
		snapshotHistory analytics.History
	)
	if cfg.Kafka.Enabled {
		onResult := func(topic string, err error) {
			status := "ok"
			if err != nil {
				status = "error"
			}
			m.EventsPublishedTotal.WithLabelValues(topic, status).Inc()
		}
		docProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentEvents, onResult)
		defer docProducer.Close()
		analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, onResult)
		defer analyticsProducer.Close()
		eventProducer, analyticsSink = docProducer, analyticsProducer

		consumers := []*kafka.Consumer{
			kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, "analytics", aggregator.HandleMessage),
			kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentEvents, "analytics", aggregator.HandleMessage),
		}
		if queryCache != nil {
			inv := cache.NewInvalidator(queryCache)
			consumers = append(consumers, kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentEvents, "cache", inv.HandleMessage))
		}
		for i, c := range consumers {
			defer c.Close()
			goWorker(fmt.Sprintf("consumer-%d", i), c.Start)
		}
		slog.Info("kafka enabled", "brokers", cfg.Kafka.Brokers, "consumers", len(consumers))
	}

	if pg, ok := store.(*documents.PostgresStore); ok {
		snaps := snapshots.NewStore(pg.Client())
		if err := snaps.EnsureSchema(ctx); err != nil {
			return err
		}
		latest, err := snaps.Latest(ctx)
		if err != nil {
			slog.Warn("could not restore analytics snapshot", "error", err)
		} else if latest != nil {
			aggregator.Restore(latest.Stats)
			slog.Info("analytics restored", "captured_at", latest.CapturedAt)
		}
		snapshotHistory = snaps
		goWorker("analytics-snapshots", func(ctx context.Context) error {
			snaps.Run(ctx, aggregator, cfg.Analytics.SnapshotInterval)
			return nil
		})
	}

	collector := analytics.NewCollector(analyticsSink, analytics.CollectorConfig{
		BatchSize:     cfg.Analytics.BatchSize,
		FlushInterval: cfg.Analytics.FlushInterval,
	})
	collector.Start(ctx)
	defer collector.Close()

	docs := service.New(
		store,
		validator.New(cfg.Ingestion.MaxUploadBytes, cfg.Ingestion.AllowedExtensions),
		tokenizer.NewAnalyzer(nil),
		service.WithPublisher(publisher.New(eventProducer)),
		service.WithMetrics(m),
		service.WithBulkWorkers(cfg.Ingestion.BulkWorkers),
	)
	ingestH := ingesthandler.New(docs, cfg.Ingestion.MaxUploadBytes)

	searchOpts := []searchhandler.Option{
		searchhandler.WithTracker(collector),
		searchhandler.WithTracer(tracing.NewTracer(cfg.Tracing.Enabled, cfg.Tracing.SampleRate)),
	}
	if cacheAdmin != nil {
		searchOpts = append(searchOpts, searchhandler.WithCache(cacheAdmin))
	}
	searchH := searchhandler.New(
		executor.New(store, resultCache, m),
		parser.New(cfg.Search.MaxQueryBytes),
		searchOpts...,
	)
	analyticsH := analytics.NewHandler(aggregator, snapshotHistory)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search", searchH.Search)
	mux.HandleFunc("POST /api/v1/search", searchH.Search)
	mux.HandleFunc("GET /api/v1/search", searchH.SearchGet)
	mux.HandleFunc("POST /api/upload", ingestH.Upload)
	mux.HandleFunc("POST /api/v1/documents", ingestH.Upload)
	mux.HandleFunc("GET /api/documents", ingestH.List)
	mux.HandleFunc("GET /api/v1/documents", ingestH.List)
	mux.HandleFunc("GET /api/v1/documents/{id}", ingestH.Get)
	mux.HandleFunc("POST /api/delete", ingestH.DeletePost)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", ingestH.DeleteByPath)
	mux.HandleFunc("GET /api/v1/cache/stats", searchH.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", searchH.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /api/v1/analytics/history", analyticsH.History)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)),
		middleware.Metrics(m),
	}
	if rl := cfg.Server.RateLimit; rl.Requests > 0 {
		limiter := ratelimit.New(rl.Requests, rl.Window)
		goWorker("rate-limit-evict", func(ctx context.Context) error {
			limiter.Run(ctx, rl.Window)
			return nil
		})
		mws = append(mws, middleware.RateLimit(limiter))
		slog.Info("rate limiting enabled", "requests", rl.Requests, "window", rl.Window)
	}
	mws = append(mws, middleware.Timeout(cfg.Search.RequestTimeout))
	chain := middleware.Chain(mux, mws...)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = shutdownMetrics(shutdownCtx)
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("document search server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listening on %s: %w", server.Addr, err)
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
