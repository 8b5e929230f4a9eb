package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/curate-cli/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect processed batch history",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored batch outcomes",
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

		batches, err := st.ListBatches(ctx)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(batches) == 0 {
			fmt.Fprintln(os.Stderr, "No batches processed yet.")
			return nil
		}

		formatBatchList(os.Stdout, batches)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <batch>",
	Short: "Show a batch's full stored outcome",
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

		outcome, err := st.GetBatch(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		if outcome == nil {
			return eris.Errorf("no stored outcome for batch %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	},
}

func init() {
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatBatchList writes a tabular batch history to w.
func formatBatchList(out io.Writer, batches []model.BatchSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BATCH\tSTATUS\tADDRESSES\tFINGERPRINT\tPROCESSED")

	for _, b := range batches {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			b.Batch,
			b.Status,
			b.Addresses,
			truncateID(b.Fingerprint),
			b.ProcessedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a fingerprint or run ID for
// compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
