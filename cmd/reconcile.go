package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/reconcile"
	"github.com/sells-group/directory-cli/internal/store"
)

var reconcileLimit int

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Cross-check stored records across directory sources",
	Long:  "Groups stored records by provider identity, detects fields that disagree between web, mobile, and print sources, and synthesizes a cleaned record per provider.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		records, err := st.ListProviders(ctx, store.ProviderFilter{Limit: reconcileLimit})
		if err != nil {
			return eris.Wrap(err, "load records")
		}

		report := reconcile.New(cfg.Reconcile).Run(toPointers(records))

		zap.L().Info("reconciliation complete",
			zap.Int("checked", report.TotalChecked),
			zap.Int("inconsistent", report.InconsistentCount),
			zap.Int("consistency_score", report.ConsistencyScore()),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileLimit, "limit", 10000, "max records to load")
	rootCmd.AddCommand(reconcileCmd)
}
