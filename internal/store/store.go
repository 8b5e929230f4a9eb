// Package store persists batch outcomes, the processed-address index and
// cross-batch enrichment records.
package store

import (
	"context"

	"github.com/sells-group/curate-cli/internal/model"
)

// Store is the persistence interface for the run tracker and the metadata
// enrichment store. Outcome writes are atomic per batch: either a batch's
// entire outcome is recorded, or none of it is.
type Store interface {
	// Run tracking
	GetBatch(ctx context.Context, name string) (*model.BatchOutcome, error)
	ListBatches(ctx context.Context) ([]model.BatchSummary, error)
	RecordOutcome(ctx context.Context, out *model.BatchOutcome) error
	// KnownAddresses returns every address recorded under any stored batch
	// outcome, mapped to the batch that first recorded it (earliest
	// processed_at wins ties).
	KnownAddresses(ctx context.Context) (map[string]string, error)

	// Enrichment
	GetEnrichment(ctx context.Context, address string) (*model.EnrichmentRecord, error)
	BatchEnrichment(ctx context.Context, addresses []string) (map[string]*model.EnrichmentRecord, error)
	UpsertEnrichment(ctx context.Context, rec *model.Record) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// IsUnchanged reports whether a batch can be skipped: its stored
// fingerprint equals the current one and the prior run succeeded.
func IsUnchanged(prior *model.BatchOutcome, fingerprint string) bool {
	return prior != nil &&
		prior.Status == model.BatchStatusSuccess &&
		prior.Fingerprint == fingerprint
}
