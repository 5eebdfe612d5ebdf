package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/export"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/reconcile"
	"github.com/sells-group/directory-cli/internal/store"
)

var (
	exportMode   string
	exportOutput string
	exportStatus string
	exportSource string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a directory CSV",
	Long:  "Exports either the validated directory with confidence scores, or the cleaned cross-source directory produced by reconciliation.",
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

		var exported int
		switch exportMode {
		case "directory":
			exported, err = exportDirectory(ctx, st)
		case "cleaned":
			exported, err = exportCleaned(ctx, st)
		default:
			return eris.Errorf("unknown export mode %q (expected directory or cleaned)", exportMode)
		}
		if err != nil {
			return err
		}

		if err := st.CreateAuditEntry(ctx, &model.AuditEntry{
			Action:      model.AuditExport,
			Description: fmt.Sprintf("exported %d %s records to %s", exported, exportMode, exportOutput),
			Actor:       currentActor(),
		}); err != nil {
			return eris.Wrap(err, "audit export")
		}

		zap.L().Info("export complete",
			zap.String("mode", exportMode),
			zap.String("output", exportOutput),
			zap.Int("records", exported),
		)
		return nil
	},
}

// exportDirectory writes stored records with their confidence scores.
// By default only reviewed or passing records are included.
func exportDirectory(ctx context.Context, st store.Store) (int, error) {
	var source model.Source
	if exportSource != "" {
		s, ok := model.ParseSource(exportSource)
		if !ok {
			return 0, eris.Errorf("unknown source %q (expected web, mobile, or print)", exportSource)
		}
		source = s
	}

	statuses := []model.RecordStatus{model.StatusApproved, model.StatusValidated}
	if exportStatus != "" {
		statuses = []model.RecordStatus{model.RecordStatus(exportStatus)}
	}

	var records []model.Provider
	for _, status := range statuses {
		batch, err := st.ListProviders(ctx, store.ProviderFilter{Status: status, Source: source, Limit: 100000})
		if err != nil {
			return 0, eris.Wrap(err, "load records")
		}
		records = append(records, batch...)
	}

	if err := export.WriteDirectoryFile(exportOutput, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// exportCleaned reconciles all stored records and writes the cleaned
// cross-source directory.
func exportCleaned(ctx context.Context, st store.Store) (int, error) {
	records, err := st.ListProviders(ctx, store.ProviderFilter{Limit: 100000})
	if err != nil {
		return 0, eris.Wrap(err, "load records")
	}

	report := reconcile.New(cfg.Reconcile).Run(toPointers(records))
	if err := export.WriteCleanedFile(exportOutput, report.CleanedRecords); err != nil {
		return 0, err
	}
	return len(report.CleanedRecords), nil
}

func init() {
	exportCmd.Flags().StringVar(&exportMode, "mode", "directory", "export mode: directory or cleaned")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "directory.csv", "output file path")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "restrict directory mode to one record status")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "restrict directory mode to one source (web, mobile, or print)")
	rootCmd.AddCommand(exportCmd)
}
