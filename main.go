// @title incident-watch API
// @version 1.0
// @description Chat incident classification and windowed alert aggregation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ffnexus/incident-watch/internal/classifier"
	"github.com/ffnexus/incident-watch/internal/client"
	"github.com/ffnexus/incident-watch/internal/config"
	"github.com/ffnexus/incident-watch/internal/db"
	"github.com/ffnexus/incident-watch/internal/handler"
	"github.com/ffnexus/incident-watch/internal/ingest"
	"github.com/ffnexus/incident-watch/internal/logging"
	"github.com/ffnexus/incident-watch/internal/metrics"
	"github.com/ffnexus/incident-watch/internal/service"
)

func main() {
	envFile := pflag.String("env-file", "", "path to a .env file (default: ./.env if present)")
	logLevel := pflag.String("log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	pflag.Parse()

	if err := run(*envFile, *logLevel); err != nil {
		slog.Error("incident-watch stopped", "error", err)
		os.Exit(1)
	}
}

func run(envFile, logLevel string) error {
	// 1. 설정 로드 및 검증
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}
	cfg := config.Load()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. 어휘 사전, Guard, 규칙 분류기
	lex, warnings, err := classifier.LoadLexicon(cfg.Guard.LexiconPath)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn("lexicon warning", "path", cfg.Guard.LexiconPath, "warning", w)
	}
	guardOpt := classifier.GuardOptions{
		MinWords:       cfg.Guard.MinWords,
		DomainRequired: cfg.Guard.DomainRequired,
	}
	guard, err := classifier.NewGuard(lex, guardOpt)
	if err != nil {
		return err
	}
	rules, err := classifier.NewRules(lex)
	if err != nil {
		return err
	}

	// 3. 메트릭
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 4. AI 분류 서비스 (설정이 없으면 규칙만 사용)
	aiClient, err := newAIClient(ctx, cfg.AI, logger)
	if err != nil {
		return err
	}
	ai := service.NewAIAdapter(aiClient, service.AIOptions{
		Timeout:  cfg.AI.Timeout,
		MinScore: cfg.AI.MinScore,
		Logger:   logger.With("component", "ai"),
		Metrics:  m,
	})

	// 5. DB (웹훅 설정, 운영자 키워드)
	var pg *db.Postgres
	if cfg.Postgres.Enabled() {
		pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		pg = &db.Postgres{Pool: pool}
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
	} else {
		logger.Info("postgres not configured, settings api disabled")
	}

	// 6. 알림 싱크
	var primary service.Sink
	if slackClient := client.NewSlackClient(cfg.Slack); slackClient.IsConfigured() {
		primary = service.NewSlackSink(slackClient)
	} else {
		logger.Info("slack not configured, alerts are logged only")
		primary = service.NewLogSink(logger.With("component", "sink"))
	}
	var notifiers []service.Notifier
	if pg != nil {
		notifiers = append(notifiers, service.NewWebhookNotifier(pg, logger.With("component", "webhook")))
	}
	sink := service.NewFanoutSink(primary, notifiers...)

	// 7. 윈도우 집계기, 이벤트 파이프라인
	agg, err := service.NewAggregator(service.AggregatorConfig{
		WindowDuration: cfg.Incident.WindowDuration,
		Thresholds: service.Thresholds{
			Medium: cfg.Incident.MediumAt,
			High:   cfg.Incident.HighAt,
		},
		ExampleCapacity: cfg.Incident.ExampleCapacity,
		SweepInterval:   cfg.Incident.SweepInterval,
		SinkTimeout:     cfg.Incident.SinkTimeout,
	}, sink,
		service.WithAggregatorLogger(logger.With("component", "aggregator")),
		service.WithAggregatorMetrics(m),
	)
	if err != nil {
		return err
	}
	svc := service.NewIncidentService(guard, rules, ai, agg, service.IncidentOptions{
		Workers: cfg.Incident.Workers,
		Logger:  logger.With("component", "pipeline"),
		Metrics: m,
	})

	// 8. HTTP 라우터
	routes := handler.RouterConfig{
		Events:    handler.NewEventHandler(svc, logger, m),
		Windows:   handler.NewWindowHandler(svc),
		Metrics:   m,
		Logger:    logger.With("component", "http"),
		JWTSecret: cfg.Server.IngestJWTSecret,
	}
	var keywords *service.KeywordService
	if pg != nil {
		keywords = service.NewKeywordService(pg, lex, guardOpt, svc.SetGuard, service.KeywordOptions{
			TTL:    cfg.Keywords.CacheTTL,
			Logger: logger.With("component", "keywords"),
		})
		routes.Keywords = handler.NewKeywordSettingsHandler(keywords)
		routes.Webhooks = handler.NewWebhookSettingsHandler(service.NewWebhookService(pg))
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler.NewRouter(routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 9. Kafka 수집 (선택)
	var consumer *ingest.Consumer
	if cfg.Kafka.Enabled() {
		consumer, err = ingest.NewConsumer(cfg.Kafka, svc, logger.With("component", "kafka"), m)
		if err != nil {
			return err
		}
	}

	// 10. 실행
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return agg.Run(gctx) })
	if keywords != nil {
		g.Go(func() error { return keywords.Run(gctx) })
	}
	if consumer != nil {
		g.Go(func() error { return consumer.Run(gctx) })
	}

	err = g.Wait()

	// 진행 중인 이벤트, 알림 전송, 웹훅 전송 순서로 마무리
	svc.Wait()
	sink.Wait()
	logger.Info("incident-watch shut down")
	return err
}

// newAIClient - CLASSIFIER_URL이 있으면 HTTP 분류 서비스, 없으면 AI_API_KEY로 Gemini
func newAIClient(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (service.Classifier, error) {
	if !cfg.Enabled {
		logger.Info("ai classification disabled")
		return nil, nil
	}
	switch {
	case cfg.ClassifierURL != "":
		logger.Info("using http classification service", "url", cfg.ClassifierURL)
		return client.NewHTTPClassifier(cfg.ClassifierURL), nil
	case cfg.APIKey != "":
		c, err := client.NewGeminiClassifier(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("using gemini classification", "model", cfg.Model)
		return c, nil
	default:
		logger.Info("no ai classifier configured, rules only")
		return nil, nil
	}
}
