package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/store"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect and review provider records",
	Long:  "Commands for listing, reviewing, and correcting validated provider records.",
}

// -- records list --

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List provider records",
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

		status, _ := cmd.Flags().GetString("status")
		source, _ := cmd.Flags().GetString("source")
		batchID, _ := cmd.Flags().GetString("batch")
		limit, _ := cmd.Flags().GetInt("limit")

		records, err := st.ListProviders(ctx, store.ProviderFilter{
			Status:  model.RecordStatus(status),
			Source:  model.Source(source),
			BatchID: batchID,
			Limit:   limit,
		})
		if err != nil {
			return eris.Wrap(err, "records list")
		}

		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No records found.")
			return nil
		}

		formatRecordsList(os.Stdout, records)
		return nil
	},
}

// -- records show --

var recordsShowCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Show full details of a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		p, err := st.GetProvider(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "records show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

// -- records approve / reject --

func reviewCmd(use, short string, status model.RecordStatus, action model.AuditAction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <record-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}

			note, _ := cmd.Flags().GetString("note")
			if err := st.UpdateProviderStatus(ctx, id, status, note); err != nil {
				return err
			}

			p, err := st.GetProvider(ctx, id)
			if err != nil {
				return err
			}
			if status == model.StatusApproved && p.BatchID != "" {
				if err := st.IncrementBatchApproved(ctx, p.BatchID); err != nil {
					return err
				}
			}

			if err := st.CreateAuditEntry(ctx, &model.AuditEntry{
				Action:      action,
				Description: fmt.Sprintf("%s %s", use, p.Name),
				BatchID:     p.BatchID,
				RecordID:    id,
				Actor:       currentActor(),
			}); err != nil {
				return err
			}

			fmt.Printf("%s %s (%s)\n", use, truncateID(id), p.Name)
			return nil
		},
	}
	cmd.Flags().String("note", "", "review note")
	return cmd
}

// -- records apply-suggestion --

var recordsApplyCmd = &cobra.Command{
	Use:   "apply-suggestion <record-id> <field>",
	Short: "Apply a suggested correction to a record field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, field := args[0], args[1]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		p, err := st.GetProvider(ctx, id)
		if err != nil {
			return err
		}

		value, ok := p.Suggestions[field]
		if !ok {
			return eris.Errorf("record %s has no suggestion for field %q", truncateID(id), field)
		}

		old := p.Field(field)
		p.SetField(field, value)
		delete(p.Suggestions, field)

		if err := st.UpdateProviderFields(ctx, p); err != nil {
			return err
		}

		if err := st.CreateAuditEntry(ctx, &model.AuditEntry{
			Action:      model.AuditApplySuggestion,
			Description: fmt.Sprintf("applied suggestion for %s: %q -> %q", field, old, value),
			BatchID:     p.BatchID,
			RecordID:    id,
			Actor:       currentActor(),
		}); err != nil {
			return err
		}

		fmt.Printf("applied %s: %q -> %q\n", field, old, value)
		return nil
	},
}

func init() {
	recordsListCmd.Flags().String("status", "", "filter by status (pending, validated, flagged, approved, rejected)")
	recordsListCmd.Flags().String("source", "", "filter by source (web, mobile, print)")
	recordsListCmd.Flags().String("batch", "", "filter by batch ID")
	recordsListCmd.Flags().Int("limit", 50, "max number of records to display")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(reviewCmd("approve", "Approve a validated or flagged record", model.StatusApproved, model.AuditApprove))
	recordsCmd.AddCommand(reviewCmd("reject", "Reject a validated or flagged record", model.StatusRejected, model.AuditReject))
	recordsCmd.AddCommand(recordsApplyCmd)
	rootCmd.AddCommand(recordsCmd)
}

// formatRecordsList writes a tabular record listing to w.
func formatRecordsList(out io.Writer, records []model.Provider) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSOURCE\tSTATUS\tSCORE\tSUGGESTIONS")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t------\t-----\t-----------")

	for _, p := range records {
		name := p.Name
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			truncateID(p.ID),
			name,
			p.Source,
			p.Status,
			p.ConfidenceScore,
			len(p.Suggestions),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
