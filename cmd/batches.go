package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/directory-cli/internal/model"
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List validation batches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		batches, err := st.ListBatches(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "batches list")
		}

		if len(batches) == 0 {
			fmt.Fprintln(os.Stderr, "No batches found.")
			return nil
		}

		formatBatchesList(os.Stdout, batches)
		return nil
	},
}

func init() {
	batchesCmd.Flags().Int("limit", 50, "max number of batches to display")
	rootCmd.AddCommand(batchesCmd)
}

func formatBatchesList(out io.Writer, batches []model.ValidationBatch) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSOURCE\tSTATUS\tTOTAL\tVALIDATED\tFLAGGED\tAPPROVED\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t------\t-----\t---------\t-------\t--------\t-------")

	for _, b := range batches {
		name := b.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			truncateID(b.ID),
			name,
			b.Source,
			b.Status,
			b.TotalRecords,
			b.ValidatedCount,
			b.FlaggedCount,
			b.ApprovedCount,
			b.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
