package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"freelanceflow/internal/ai"
	"freelanceflow/internal/amqp"
	"freelanceflow/internal/auth"
	"freelanceflow/internal/cache"
	"freelanceflow/internal/cli"
	"freelanceflow/internal/config"
	"freelanceflow/internal/core"
	"freelanceflow/internal/events"
	apphttp "freelanceflow/internal/http"
	"freelanceflow/internal/log"
	"freelanceflow/internal/middleware/ratelimit"
	"freelanceflow/internal/payment"
	"freelanceflow/internal/services"
	"freelanceflow/internal/worker"
)

const (
	eventQueueSize = 256
	sweepInterval  = time.Hour
	shutdownWait   = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentApp)

	if err := run(logger, cfg); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}

func run(logger *log.Logger, cfg *config.Config) error {
	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	rules, err := cli.LoadRules(logger, cfg)
	if err != nil {
		return err
	}

	be, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Store close failed", log.FieldError, err)
		}
	}()
	store := be.Store

	userCache := cache.NewLRUCache[core.UserData](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(userCache)
	caches.StartCleanup(cfg.CacheTTL)
	defer caches.Stop()

	sheets, err := cli.OpenSheets(ctx, logger, cfg)
	if err != nil {
		return err
	}
	var sink worker.TransactionSink
	var exporter apphttp.SheetsExporter
	if sheets != nil {
		sink, exporter = sheets, sheets
	}

	g, gctx := errgroup.WithContext(ctx)

	// Events go to the broker when one is configured; the standalone
	// worker then consumes them. Otherwise they are handled in-process.
	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		publisher = client
		logger.Info("Publishing events to AMQP", "exchange", cfg.AMQPExchange)
	} else {
		bus := events.NewBus(eventQueueSize, logger)
		handler := worker.NewEventWorker(store, store, sink, logger)
		g.Go(func() error { return bus.Run(gctx, handler.HandleEvent) })
		publisher = bus
		logger.Info("Handling events in-process")
	}

	opts := []services.Option{
		services.WithCache(userCache),
		services.WithPublisher(publisher),
		services.WithCheckoutStore(store),
		services.WithLogger(logger),
	}
	if cfg.AdvisorEnabled() {
		model, err := ai.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		opts = append(opts, services.WithAdvisor(ai.NewAdvisor(model, logger)))
		logger.Info("Advisor enabled", "model", cfg.GeminiModel)
	}
	ws := services.NewWorkspace(store, rules, opts...)

	var billing *services.Billing
	if cfg.PaymentsEnabled() {
		provider, err := payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		if err != nil {
			return err
		}
		billing = services.NewBilling(ws, provider, cfg.PublicBaseURL, logger)
		logger.Info("Payments enabled")
	}

	authSvc := auth.NewService(store, ws, cfg.SessionTTL, logger)

	sweeper := worker.NewSessionSweeper(store, logger)
	g.Go(func() error { return sweeper.Run(gctx, sweepInterval) })

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Workspace:     ws,
		Auth:          authSvc,
		Billing:       billing,
		Sheets:        exporter,
		Activity:      store,
		Health:        store,
		Logger:        logger,
		RateLimit:     ratelimit.DefaultConfig(),
		SecureCookies: strings.HasPrefix(cfg.PublicBaseURL, "https://"),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 45 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g.Go(func() error {
		logger.Info("Starting freelanceflow server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := cli.ShutdownContext(shutdownWait)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
