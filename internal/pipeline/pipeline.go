// Package pipeline orchestrates batch curation: normalization, duplicate
// resolution, policy gating, enrichment, scoring and output artifacts, with
// incremental skip of unchanged batches.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/curate-cli/internal/model"
	"github.com/sells-group/curate-cli/internal/policy"
	"github.com/sells-group/curate-cli/internal/reader"
	"github.com/sells-group/curate-cli/internal/scoring"
	"github.com/sells-group/curate-cli/internal/store"
)

// Options configures a pipeline run.
type Options struct {
	// OutputDir is where per-batch category artifacts are written.
	OutputDir string
	// CrossBatchDedup drops addresses already categorized by any prior
	// batch, the earlier batch winning. Forces sequential processing.
	CrossBatchDedup bool
	// Parallelism caps concurrent batches when dedup is disabled.
	Parallelism int
	// Force reprocesses batches even when their fingerprint is unchanged.
	Force bool
}

// Pipeline wires the curation stages together. One Pipeline serves one run.
type Pipeline struct {
	opts   Options
	store  store.Store
	policy *policy.Store
	engine *scoring.Engine // nil disables scoring

	openReader func(path string) (reader.RecordReader, error)
}

// New creates a Pipeline. engine may be nil to skip the scoring stage.
func New(opts Options, st store.Store, pol *policy.Store, engine *scoring.Engine) *Pipeline {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	return &Pipeline{
		opts:       opts,
		store:      st,
		policy:     pol,
		engine:     engine,
		openReader: reader.ForFile,
	}
}

// Run processes the given batch files and returns one result per file, in
// argument order. Batch-level failures are reported in the result and never
// abort the run; store and policy-store failures do.
func (p *Pipeline) Run(ctx context.Context, paths []string) ([]model.BatchResult, error) {
	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("pipeline: starting run",
		zap.Int("batches", len(paths)),
		zap.Bool("dedup", p.opts.CrossBatchDedup),
		zap.Bool("scoring", p.engine != nil),
	)

	gate := policy.NewGate(p.policy)
	results := make([]model.BatchResult, len(paths))

	if p.opts.CrossBatchDedup {
		// Earlier batches win ties, so later batches must observe the
		// outcomes of earlier ones: strictly sequential, seen set extended
		// batch by batch.
		seen, err := p.store.KnownAddresses(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load known addresses")
		}
		for i, path := range paths {
			res, err := p.processBatch(ctx, runID, path, gate, seen)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	} else {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(p.opts.Parallelism)
		for i, path := range paths {
			g.Go(func() error {
				res, err := p.processBatch(gCtx, runID, path, gate, nil)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	// Confirmed-invalid addresses persist exactly once per run.
	if _, err := gate.FlushAutoBlock(); err != nil {
		return nil, eris.Wrap(err, "pipeline: flush auto-block queue")
	}

	log.Info("pipeline: run complete", zap.Int("batches", len(results)))
	return results, nil
}
