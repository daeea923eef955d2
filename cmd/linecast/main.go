package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hsinyuc/linecast/internal/api"
	"github.com/hsinyuc/linecast/internal/config"
	"github.com/hsinyuc/linecast/internal/line"
	"github.com/hsinyuc/linecast/internal/obs"
	kafkaRepo "github.com/hsinyuc/linecast/internal/repository/kafka"
	pg "github.com/hsinyuc/linecast/internal/repository/postgres"
	"github.com/hsinyuc/linecast/internal/schedule"
	"github.com/hsinyuc/linecast/internal/services/scheduler"
	"github.com/hsinyuc/linecast/internal/services/scheduler/repo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := flag.String("config", "config/linecast.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(obs.LogConfig{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		App:    "linecast",
	})
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting linecast",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.String("metrics_addr", cfg.Sched.MetricsAddr),
		zap.Duration("tick", cfg.Sched.Tick),
		zap.String("timezone", cfg.Sched.Timezone),
	)

	otelCloser, err := obs.SetupOTel(ctx, &obs.OTELConfig{
		Enable:      cfg.OTEL.Enable,
		Endpoint:    cfg.OTEL.Endpoint,
		ServiceName: cfg.OTEL.ServiceName,
		SampleRatio: cfg.OTEL.SampleRatio,
	})
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	loc, err := time.LoadLocation(cfg.Sched.Timezone)
	if err != nil {
		l.Fatal("load timezone", zap.String("timezone", cfg.Sched.Timezone), zap.Error(err))
	}

	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	messageRepo := pg.NewMessageRepo(db)
	groupRepo := pg.NewGroupRepo(db)
	templateRepo := pg.NewTemplateRepo(db)
	settingsRepo := pg.NewSettingsRepo(db)

	creds := repo.TokenFromSettings{S: settingsRepo}
	notifier := line.NewClient(cfg.Line, creds, l)

	var events repo.Events
	if cfg.Kafka.Enable {
		prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(l)
		defer func() { _ = prod.Close() }()
		events = repo.ReportPublisher{P: prod}
	}

	ms := obs.BootstrapMetricsServer(cfg.Sched.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	uc := scheduler.NewUC(
		messageRepo,
		groupRepo,
		creds,
		notifier,
		events,
		schedule.NewEvaluator(loc),
		scheduler.SystemClock{},
		l.With(zap.String("component", "dispatcher")),
	)
	runner := scheduler.New(l, uc, &cfg.Sched)

	router := api.NewRouter(
		l.With(zap.String("component", "api")),
		api.NewMessageHandler(messageRepo, loc, l),
		api.NewGroupHandler(groupRepo, l),
		api.NewTemplateHandler(templateRepo, l),
		api.NewSettingsHandler(settingsRepo, l),
	)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() { errCh <- runner.Run(ctx) }()
	go func() {
		l.Info("api listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	l.Info("linecast started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runtime error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
