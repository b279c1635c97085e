package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"freelanceflow/internal/cli"
)

var flagXP int

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Show the level for a workspace or a raw XP value",
	Example: `  flowctl level --user alice
  flowctl level --xp 420`,
	RunE: runLevel,
}

func init() {
	levelCmd.Flags().IntVar(&flagXP, "xp", -1, "Resolve this XP value instead of reading a workspace")
	rootCmd.AddCommand(levelCmd)
}

func runLevel(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	xp := flagXP
	if xp < 0 {
		d, err := loadWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		xp = d.XP
	}
	rules, err := cli.LoadRules(cmdLogger(cfg), cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderLevel(rules.Levels.Info(xp)))
	return nil
}
