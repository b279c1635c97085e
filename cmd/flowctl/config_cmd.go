package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"freelanceflow/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration with secrets redacted",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func redact(s string) string {
	if s == "" {
		return "(unset)"
	}
	return "********"
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	rules := cfg.RulesFile
	if rules == "" {
		rules = "(built-in)"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderTitle("freelanceflow configuration"))
	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Headers: []string{"Setting", "Value"},
		Rows: [][]string{
			{"Port", cfg.Port},
			{"Public URL", cfg.PublicBaseURL},
			{"Backend", cfg.DataBackend},
			{"SQLite path", cfg.SQLiteDBPath},
			{"Rules", rules},
			{"Session TTL", cfg.SessionTTL.String()},
			{"Cache", strconv.Itoa(cfg.CacheSize) + " entries, " + cfg.CacheTTL.String()},
			{"AMQP", enabled(cfg.AMQPURL != "")},
			{"Advisor", enabled(cfg.AdvisorEnabled()) + " " + cfg.GeminiModel},
			{"Gemini key", redact(cfg.GeminiAPIKey)},
			{"Payments", enabled(cfg.PaymentsEnabled())},
			{"Stripe key", redact(cfg.StripeSecretKey)},
			{"Sheets export", enabled(cfg.SheetsEnabled())},
			{"Log level", cfg.LogLevel},
		},
	}))
	return nil
}
