package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"freelanceflow/internal/auth"
	"freelanceflow/internal/cli"
	"freelanceflow/internal/config"
	"freelanceflow/internal/core"
	"freelanceflow/internal/log"
)

var (
	flagUser    string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "flowctl",
	Short:         "freelanceflow workspace CLI",
	Long:          "Plan budgets, inspect workspaces and export reports without the web API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	cli.LoadEnvFile()
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", auth.GuestUserID, "Workspace owner")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log store activity to stderr")
}

func cmdLogger(cfg *config.Config) *log.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = cfg.SlogLevel()
	}
	return log.New(log.Config{Level: level, Component: log.ComponentCLI, Output: os.Stderr})
}

// loadConfig reads the environment without the server-side directory checks.
func loadConfig() *config.Config {
	return config.Load()
}

// loadWorkspace opens the configured store and reads one user's data.
func loadWorkspace(ctx context.Context) (core.UserData, error) {
	cfg := loadConfig()
	logger := cmdLogger(cfg)
	be, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return core.UserData{}, err
	}
	defer be.Cleanup()

	d, found, err := be.Store.LoadUserData(ctx, flagUser)
	if err != nil {
		return core.UserData{}, fmt.Errorf("load workspace %q: %w", flagUser, err)
	}
	if !found {
		return core.UserData{}, fmt.Errorf("no workspace for user %q", flagUser)
	}
	return d, nil
}
