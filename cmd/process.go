package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/curate-cli/internal/model"
	"github.com/sells-group/curate-cli/internal/pipeline"
	"github.com/sells-group/curate-cli/internal/scoring"
)

var processCmd = &cobra.Command{
	Use:   "process <file>...",
	Short: "Run the curation pipeline over one or more batch files",
	Long:  "Each file is one batch. Unchanged batches (same content fingerprint, prior success) are skipped unless --force is given.",
	Args:  cobra.MinimumNArgs(1),
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

		pol, err := initPolicy()
		if err != nil {
			return err
		}

		score, _ := cmd.Flags().GetBool("score")
		profilePath, _ := cmd.Flags().GetString("profile")
		noDedup, _ := cmd.Flags().GetBool("no-dedup")
		force, _ := cmd.Flags().GetBool("force")
		outputDir, _ := cmd.Flags().GetString("output")
		if outputDir == "" {
			outputDir = cfg.Pipeline.OutputDir
		}

		var engine *scoring.Engine
		if score {
			engine, err = initEngine(profilePath)
			if err != nil {
				return err
			}
		}

		opts := pipeline.Options{
			OutputDir:       outputDir,
			CrossBatchDedup: cfg.Pipeline.CrossBatchDedup && !noDedup,
			Parallelism:     cfg.Pipeline.Parallelism,
			Force:           force,
		}

		results, err := pipeline.New(opts, st, pol, engine).Run(ctx, args)
		if err != nil {
			return eris.Wrap(err, "process")
		}

		formatResults(os.Stdout, results)

		for _, r := range results {
			if !r.Success {
				return eris.Errorf("batch %s failed: %s", r.Batch, r.Error)
			}
		}
		return nil
	},
}

func init() {
	processCmd.Flags().Bool("score", false, "score clean records against the market profile")
	processCmd.Flags().String("profile", "", "market profile file (defaults to profile.path)")
	processCmd.Flags().Bool("no-dedup", false, "disable cross-batch duplicate removal")
	processCmd.Flags().Bool("force", false, "reprocess batches even when unchanged")
	processCmd.Flags().String("output", "", "output directory (defaults to pipeline.output_dir)")

	rootCmd.AddCommand(processCmd)
}

// formatResults writes a per-batch summary table.
func formatResults(out io.Writer, results []model.BatchResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BATCH\tSTATUS\tCLEAN\tBLOCKED\tINVALID\tDUPS\tREJECTED\tSCORED\tELAPSED")

	for _, r := range results {
		status := "ok"
		switch {
		case !r.Success:
			status = "failed"
		case r.Skipped:
			status = "skipped"
		}
		blocked := r.Counts[model.CategoryBlockedByAddress] + r.Counts[model.CategoryBlockedByDomain]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.Batch,
			status,
			r.Counts[model.CategoryClean],
			blocked,
			r.Counts[model.CategoryInvalid],
			r.DuplicatesRemoved+r.PrefixDupsRemoved,
			r.Rejected,
			r.Scored,
			r.Elapsed.Round(time.Millisecond),
		)
	}
	_ = w.Flush()
}
