package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/batch"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/validate"
)

var (
	validateSource  string
	validateName    string
	validateOffline bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a provider directory file",
	Long:  "Loads provider records from a CSV or XLSX file, validates and scores every record, and stores the results as a new batch.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		source, ok := model.ParseSource(validateSource)
		if !ok {
			return eris.Errorf("unknown source %q (expected web, mobile, or print)", validateSource)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		records, err := loadRecords(ctx, path, source)
		if err != nil {
			return err
		}

		zap.L().Info("loaded directory file",
			zap.String("file", path),
			zap.String("source", string(source)),
			zap.Int("records", len(records)),
		)

		name := validateName
		if name == "" {
			name = filepath.Base(path)
		}

		batchCfg := cfg.Batch
		batchCfg.Actor = currentActor()
		runner := batch.New(st, validate.New(cfg.Validation), initEnricher(validateOffline), batchCfg)
		summary, err := runner.Run(ctx, name, filepath.Base(path), source, records)
		if err != nil {
			return eris.Wrap(err, "validation run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateSource, "source", "", "directory source: web, mobile, or print (required)")
	validateCmd.Flags().StringVar(&validateName, "name", "", "batch name (defaults to the file name)")
	validateCmd.Flags().BoolVar(&validateOffline, "offline", false, "skip the suggestion API, use stub suggestions")
	_ = validateCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(validateCmd)
}
