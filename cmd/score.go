package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/curate-cli/internal/model"
	"github.com/sells-group/curate-cli/internal/normalize"
	"github.com/sells-group/curate-cli/internal/pipeline"
	"github.com/sells-group/curate-cli/internal/reader"
)

var scoreCmd = &cobra.Command{
	Use:   "score <file>",
	Short: "Score an already-clean list against a market profile",
	Long:  "Re-scores an existing list without classification or run tracking, so the same leads can be ranked against a different market profile.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		profilePath, _ := cmd.Flags().GetString("profile")
		engine, err := initEngine(profilePath)
		if err != nil {
			return err
		}

		src, err := reader.ForFile(args[0])
		if err != nil {
			return err
		}
		raws, err := src.Read(ctx)
		if err != nil {
			return err
		}

		batch := pipeline.BatchName(args[0])
		var records []*model.Record
		for _, raw := range raws {
			norm, disp := normalize.Normalize(raw.Address)
			if disp != normalize.DispositionOK {
				continue
			}
			rec := &model.Record{
				Address:     norm.Address,
				Org:         raw.Org,
				Phone:       raw.Phone,
				Country:     raw.Country,
				City:        raw.City,
				Description: raw.Description,
				Keywords:    raw.Keywords,
				SourceURL:   raw.SourceURL,
				Batch:       batch,
			}
			rec.Score = engine.Score(rec)
			records = append(records, rec)
		}
		if len(records) == 0 {
			return eris.Errorf("score: no valid addresses in %s", args[0])
		}

		sort.Slice(records, func(i, j int) bool {
			if records[i].Score.Overall != records[j].Score.Overall {
				return records[i].Score.Overall > records[j].Score.Overall
			}
			return records[i].Address.String() < records[j].Address.String()
		})

		limit, _ := cmd.Flags().GetInt("limit")
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}

		formatScores(os.Stdout, records)
		return nil
	},
}

func init() {
	scoreCmd.Flags().String("profile", "", "market profile file (defaults to profile.path)")
	scoreCmd.Flags().Int("limit", 0, "show only the top N records")

	rootCmd.AddCommand(scoreCmd)
}

// formatScores writes a ranked score table.
func formatScores(out io.Writer, records []*model.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ADDRESS\tSCORE\tPRIORITY\tTARGET\tGEO\tEXCLUDED")

	for _, rec := range records {
		s := rec.Score
		excluded := ""
		if s.Excluded {
			excluded = fmt.Sprintf("%s (%s)", s.Severity, joinMax(s.ExclusionReasons, 3))
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			rec.Address.String(), s.Overall, s.Priority, s.Target, s.GeoTier, excluded)
	}
	_ = w.Flush()
}

func joinMax(items []string, max int) string {
	if len(items) > max {
		items = append(items[:max:max], "...")
	}
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ","
		}
		out += it
	}
	return out
}
