package main

import (
	"context"
	"errors"
	"os"

	"freelanceflow/internal/amqp"
	"freelanceflow/internal/cli"
	"freelanceflow/internal/config"
	"freelanceflow/internal/log"
	"freelanceflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)

	logger.Info("Starting flow-worker", log.FieldOperation, log.OpStartup)
	if err := run(logger, cfg); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}

func run(logger *log.Logger, cfg *config.Config) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer be.Cleanup()

	sheets, err := cli.OpenSheets(ctx, logger, cfg)
	if err != nil {
		return err
	}
	var sink worker.TransactionSink
	if sheets != nil {
		sink = sheets
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	handler := worker.NewEventWorker(be.Store, be.Store, sink, logger)

	logger.Info("Consuming events", "queue", cfg.AMQPQueue, log.FieldOperation, log.OpConsume)
	err = client.Consume(ctx, handler.HandleEvent)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
