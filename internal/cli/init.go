// Package cli provides common process initialization utilities shared by
// cmd/freelanceflow, cmd/flow-worker and cmd/flowctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"freelanceflow/internal/backend"
	"freelanceflow/internal/config"
	"freelanceflow/internal/export"
	"freelanceflow/internal/log"
)

// SetupLogger initializes structured logging at the configured level and sets
// it as the default logger.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	if cfg != nil {
		lc.Level = cfg.SlogLevel()
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// LoadRules reads the product rules file, falling back to compiled-in
// defaults when none is configured.
func LoadRules(logger *log.Logger, cfg *config.Config) (config.Rules, error) {
	if cfg.RulesFile == "" {
		return config.DefaultRules(), nil
	}
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		return config.Rules{}, fmt.Errorf("load rules %s: %w", cfg.RulesFile, err)
	}
	logger.Info("Product rules loaded", "path", cfg.RulesFile)
	return rules, nil
}

// OpenStore creates the configured storage backend.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.Result, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bc.Type, err)
	}
	return res, nil
}

// OpenSheets connects the spreadsheet exporter, or returns nil when export is
// not configured.
func OpenSheets(ctx context.Context, logger *log.Logger, cfg *config.Config) (*export.Sheets, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil, nil
	}
	s, err := export.NewSheets(ctx, export.SheetsConfig{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return s, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// ShutdownContext bounds the time given to shutdown hooks.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
