package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "MarketSentry/internal/domain/repository"
	"MarketSentry/internal/usecase"
	pkgch "MarketSentry/pkg/clickhouse"
	"MarketSentry/pkg/config"
	xhttp "MarketSentry/pkg/http"
	pkgkafka "MarketSentry/pkg/kafka"
	applogger "MarketSentry/pkg/logger"
	"MarketSentry/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	l         *applogger.Logger
	scheduler *usecase.IngestionScheduler
	collector *usecase.StreamCollector // nil when streaming is disabled
	consumer  *pkgkafka.Consumer       // nil when streaming is disabled
	analyzer  *usecase.TickAnalyzer    // nil when streaming is disabled
	queue     queue.Server
	notifyJob *usecase.AlertNotifyJob
	samples   domrepo.SampleStore
	chClient  *pkgch.Client
	handler   xhttp.Handler

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	scheduler *usecase.IngestionScheduler,
	collector *usecase.StreamCollector,
	consumer *pkgkafka.Consumer,
	analyzer *usecase.TickAnalyzer,
	q queue.Server,
	notifyJob *usecase.AlertNotifyJob,
	samples domrepo.SampleStore,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		scheduler: scheduler,
		collector: collector,
		consumer:  consumer,
		analyzer:  analyzer,
		queue:     q,
		notifyJob: notifyJob,
		samples:   samples,
		chClient:  chClient,
		handler:   handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Schema first: nothing else is useful without storage.
	initCtx, initCancel := context.WithTimeout(ctx, 15*time.Second)
	if err := a.samples.Init(initCtx); err != nil {
		initCancel()
		a.l.Error("storage init failed", applogger.Error(err))
		return err
	}
	initCancel()
	a.l.Info("storage ready", applogger.String("database", a.cfg.ClickHouse.Database))

	// Notification dispatch. A queue failure degrades to stored-only alerts.
	a.queue.RegisterJob(a.notifyJob)
	if err := a.queue.Start(); err != nil {
		a.l.Error("notification queue start failed, alerts will not be delivered", applogger.Error(err))
	}

	a.scheduler.Start(ctx)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.l.Error("stream collector error", applogger.Error(err))
			}
		}()
		a.l.Info("stream collector started", applogger.Strings("symbols", a.cfg.Market.Symbols))
	}

	if a.consumer != nil && a.analyzer != nil {
		a.consumer.RegisterHandler(a.analyzer)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.analyzer.Topic()))
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
	)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services, in-flight work first.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.scheduler.Stop(ctx); err != nil {
		a.l.Warn("scheduler stop error", applogger.Error(err))
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.l.Warn("stream collector stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	// Queue last so alerts raised during drain still get dispatched.
	if err := a.queue.Stop(ctx); err != nil {
		a.l.Warn("queue stop error", applogger.Error(err))
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
