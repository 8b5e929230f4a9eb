package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/curate-cli/internal/model"
)

// writeOutputs renders one batch's category artifacts under dir/batch/.
// Every non-empty category gets a line-delimited address list; categories
// carrying metadata or scores additionally get a CSV and a JSONL file.
func writeOutputs(dir, batch string, records []*model.Record) error {
	byCategory := make(map[model.Category][]*model.Record)
	for _, rec := range records {
		byCategory[rec.Category] = append(byCategory[rec.Category], rec)
	}

	batchDir := filepath.Join(dir, batch)
	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		return eris.Wrap(err, "pipeline: create output dir")
	}

	for cat, recs := range byCategory {
		sort.Slice(recs, func(i, j int) bool {
			return recs[i].Address.String() < recs[j].Address.String()
		})

		if err := writeAddressList(filepath.Join(batchDir, string(cat)+".txt"), recs); err != nil {
			return err
		}

		rich := false
		for _, rec := range recs {
			if rec.HasMetadata() || rec.Score != nil {
				rich = true
				break
			}
		}
		if !rich {
			continue
		}
		if err := writeCSV(filepath.Join(batchDir, string(cat)+".csv"), recs); err != nil {
			return err
		}
		if err := writeJSONL(filepath.Join(batchDir, string(cat)+".jsonl"), recs); err != nil {
			return err
		}
	}
	return nil
}

func writeAddressList(path string, recs []*model.Record) error {
	var b strings.Builder
	for _, rec := range recs {
		b.WriteString(rec.Address.String())
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrap(err, "pipeline: write address list")
	}
	return nil
}

var csvHeader = []string{
	"address", "org", "phone", "country", "city", "description", "keywords",
	"source_url", "hint", "overall_score", "priority", "target", "geo_tier",
	"excluded", "exclusion_reasons",
}

func writeCSV(path string, recs []*model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "pipeline: create csv output")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return eris.Wrap(err, "pipeline: write csv header")
	}

	for _, rec := range recs {
		row := []string{
			rec.Address.String(), rec.Org, rec.Phone, rec.Country, rec.City,
			rec.Description, rec.Keywords, rec.SourceURL, string(rec.Hint),
			"", "", "", "", "", "",
		}
		if s := rec.Score; s != nil {
			row[9] = strconv.Itoa(s.Overall)
			row[10] = string(s.Priority)
			row[11] = string(s.Target)
			row[12] = string(s.GeoTier)
			row[13] = strconv.FormatBool(s.Excluded)
			row[14] = strings.Join(s.ExclusionReasons, ";")
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "pipeline: write csv row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "pipeline: flush csv output")
}

func writeJSONL(path string, recs []*model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "pipeline: create jsonl output")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return eris.Wrap(err, "pipeline: encode jsonl record")
		}
	}
	return nil
}
