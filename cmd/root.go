package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/config"
)

var (
	cfg       *config.Config
	actorFlag string
)

var rootCmd = &cobra.Command{
	Use:   "directory-cli",
	Short: "Provider directory validation and reconciliation engine",
	Long:  "Validates healthcare provider records, scores data quality, reconciles conflicting values across web, mobile, and print directory sources, and exports cleaned directories.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "actor recorded in the audit log (default: OS user)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
