package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/curate-cli/internal/model"
	"github.com/sells-group/curate-cli/internal/normalize"
	"github.com/sells-group/curate-cli/internal/policy"
	"github.com/sells-group/curate-cli/internal/store"
)

// processBatch runs one batch to completion. The returned error is fatal for
// the whole run (store failures); batch-level failures land in the result.
// seen maps each known address to the batch that first recorded it, nil when
// cross-batch dedup is disabled; it is extended with this batch's surviving
// addresses before returning.
func (p *Pipeline) processBatch(ctx context.Context, runID, path string, gate *policy.Gate, seen map[string]string) (model.BatchResult, error) {
	start := time.Now()
	name := BatchName(path)
	log := zap.L().With(zap.String("run_id", runID), zap.String("batch", name))

	result := model.BatchResult{
		RunID:     runID,
		Batch:     name,
		Counts:    make(map[model.Category]int),
		Timestamp: start,
	}
	fail := func(err error) (model.BatchResult, error) {
		log.Error("pipeline: batch failed", zap.Error(err))
		result.Error = err.Error()
		result.Elapsed = time.Since(start)
		return result, nil
	}

	fp, err := Fingerprint(path)
	if err != nil {
		return fail(err)
	}
	result.Fingerprint = fp

	prior, err := p.store.GetBatch(ctx, name)
	if err != nil {
		return result, err
	}
	if !p.opts.Force && store.IsUnchanged(prior, fp) {
		log.Info("pipeline: batch unchanged, skipping", zap.String("fingerprint", fp))
		result.Skipped = true
		result.Success = true
		result.Elapsed = time.Since(start)
		return result, nil
	}

	src, err := p.openReader(path)
	if err != nil {
		return fail(err)
	}
	raws, err := src.Read(ctx)
	if err != nil {
		return fail(err)
	}

	// Normalize every line; artifacts are counted and dropped silently,
	// rejects counted and dropped.
	entries := make([]normalize.Entry, 0, len(raws))
	for _, raw := range raws {
		norm, disp := normalize.Normalize(raw.Address)
		switch disp {
		case normalize.DispositionRejected:
			result.Rejected++
		case normalize.DispositionArtifact:
			result.Artifacts++
		case normalize.DispositionOK:
			entries = append(entries, normalize.Entry{
				Record: &model.Record{
					Address:     norm.Address,
					Org:         raw.Org,
					Phone:       raw.Phone,
					Country:     raw.Country,
					City:        raw.City,
					Description: raw.Description,
					Keywords:    raw.Keywords,
					SourceURL:   raw.SourceURL,
					Hint:        raw.Hint,
					Batch:       name,
				},
				Repaired: norm.Repaired,
			})
		}
	}

	resolution := normalize.Resolve(entries)
	result.DuplicatesRemoved = resolution.DuplicatesRemoved
	result.PrefixDupsRemoved = resolution.PrefixDupsRemoved

	records := resolution.Records
	if len(records) == 0 {
		return fail(eris.Errorf("no valid addresses in %s after filtering", path))
	}
	if seen != nil {
		kept := records[:0]
		for _, rec := range records {
			// A batch never dedups against its own prior outcome; a changed
			// batch replaces it instead.
			if src, ok := seen[rec.Address.String()]; ok && src != name {
				result.DuplicatesRemoved++
				continue
			}
			kept = append(kept, rec)
		}
		records = kept
	}

	if err := p.enrich(ctx, records, &result); err != nil {
		return result, err
	}

	outcome := &model.BatchOutcome{
		RunID:       runID,
		Batch:       name,
		Fingerprint: fp,
		Status:      model.BatchStatusSuccess,
		Addresses:   make(map[string]model.Category, len(records)),
		ProcessedAt: time.Now().UTC(),
	}
	for _, rec := range records {
		cat := gate.Classify(rec)
		rec.Category = cat
		result.Counts[cat]++
		outcome.Addresses[rec.Address.String()] = cat
	}

	if p.engine != nil {
		for _, rec := range records {
			if rec.Category != model.CategoryClean {
				continue
			}
			rec.Score = p.engine.Score(rec)
			result.Scored++
		}
	}

	if p.opts.OutputDir != "" {
		if err := writeOutputs(p.opts.OutputDir, name, records); err != nil {
			return fail(err)
		}
	}

	if err := p.store.RecordOutcome(ctx, outcome); err != nil {
		return result, err
	}
	if seen != nil {
		for addr := range outcome.Addresses {
			if _, ok := seen[addr]; !ok {
				seen[addr] = name
			}
		}
	}

	result.Success = true
	result.Elapsed = time.Since(start)
	log.Info("pipeline: batch complete",
		zap.Int("records", len(records)),
		zap.Int("rejected", result.Rejected),
		zap.Int("artifacts", result.Artifacts),
		zap.Int("duplicates", result.DuplicatesRemoved),
		zap.Int("prefix_duplicates", result.PrefixDupsRemoved),
		zap.Int("scored", result.Scored),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// enrich pushes batch metadata into the enrichment store and backfills
// attribute gaps on in-flight records from what earlier batches knew.
func (p *Pipeline) enrich(ctx context.Context, records []*model.Record, result *model.BatchResult) error {
	for _, rec := range records {
		if !rec.HasMetadata() {
			continue
		}
		if err := p.store.UpsertEnrichment(ctx, rec); err != nil {
			return err
		}
	}

	addrs := make([]string, len(records))
	for i, rec := range records {
		addrs[i] = rec.Address.String()
	}
	known, err := p.store.BatchEnrichment(ctx, addrs)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if stored, ok := known[rec.Address.String()]; ok && stored.Backfill(rec) {
			result.Enriched = true
		}
	}
	return nil
}
