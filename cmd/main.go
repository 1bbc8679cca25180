package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/atscore/internal/adapters/extract"
	"github.com/okian/atscore/internal/adapters/http/api"
	"github.com/okian/atscore/internal/adapters/http/swagger"
	"github.com/okian/atscore/internal/adapters/llm"
	"github.com/okian/atscore/internal/adapters/mq/amqp"
	app "github.com/okian/atscore/internal/app"
	"github.com/okian/atscore/internal/config"
	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/keywords"
	"github.com/okian/atscore/internal/domain/suggest"
	"github.com/okian/atscore/pkg/logger"
	"github.com/okian/atscore/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 90 * time.Second // synchronous analyses may call the LLM
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
	bytesPerMB                = 1 << 20
)

func main() {
	// We collect our own runtime metrics on the service registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "atscore stopped with error", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	analyzer, err := newAnalyzer(ctx, cfg, log)
	if err != nil {
		return err
	}

	svc := newService(cfg, analyzer, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	if cfg.AMQP.URL != "" {
		consumer, err := amqp.NewConsumer(cfg.AMQP.URL, svc,
			amqp.WithQueue(cfg.AMQP.Queue),
			amqp.WithPrefetch(cfg.AMQP.Prefetch),
			amqp.WithLogger(log.Named("amqp")),
		)
		if err != nil {
			return fmt.Errorf("amqp consumer: %w", err)
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "amqp consumer stopped", logger.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newAnalyzer builds the pipeline. The LLM generator is only attached when
// enabled; otherwise suggestions come from the rule engine.
func newAnalyzer(ctx context.Context, cfg *config.Config, log logger.Logger) (*analysis.Analyzer, error) {
	var kwOpts []keywords.Option
	if cfg.VocabularyFile != "" {
		vocab, err := keywords.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		kwOpts = append(kwOpts, keywords.WithVocabulary(vocab))
	}

	var completer suggest.Completer
	if cfg.LLM.Enabled {
		gemini, err := llm.New(ctx, cfg.LLM.APIKey, cfg.LLM.Model, llm.WithLogger(log.Named("llm")))
		if err != nil {
			return nil, fmt.Errorf("llm client: %w", err)
		}
		completer = gemini
		log.Info(ctx, "LLM suggestions enabled", logger.String("model", gemini.Model()))
	}
	generator := suggest.NewGenerator(completer,
		suggest.WithTimeout(time.Duration(cfg.LLM.TimeoutMS)*time.Millisecond),
		suggest.WithRatePerMinute(cfg.LLM.RatePerMinute),
		suggest.WithMaxFailures(cfg.LLM.MaxFailures),
		suggest.WithLogger(log.Named("suggest")),
	)

	return analysis.New(
		analysis.WithExtractor(keywords.NewExtractor(kwOpts...)),
		analysis.WithGenerator(generator),
		analysis.WithLogger(log.Named("analysis")),
	), nil
}

func newService(cfg *config.Config, a *analysis.Analyzer, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log),
		app.WithAnalyzer(a),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxRecords(cfg.MaxRecords),
		app.WithAnalysisTimeout(time.Duration(cfg.AnalysisTimeoutMS)*time.Millisecond),
		app.WithDefaultMode(analysis.Mode(cfg.CandidateMode)),
	)
}

func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	maxBytes := int64(cfg.MaxUploadMB) * bytesPerMB
	apiServer := api.NewServer(svc, svc,
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithExtractor(extract.NewChain(extract.WithMaxBytes(maxBytes), extract.WithLogger(log.Named("extract")))),
		api.WithLogger(log.Named("api")),
	)
	apiServer.Register(ctx, mux)
	return api.RecoverMiddleware(mux, log)
}

// startSystemMetricsUpdater refreshes runtime metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes queue and store gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics publishes the gauges GetStats does not already set.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	records, rok := stats["records"].(int)
	ranked, kok := stats["ranked"].(int)
	if rok && kok {
		metrics.UpdateStoreCounts(records, ranked)
	}
	active, aok := stats["activeWorkers"].(int)
	workers, wok := stats["workerCount"].(int)
	if aok && wok {
		metrics.UpdateWorkerActivity(active, max(workers-active, 0))
	}
}
