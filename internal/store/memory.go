package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sells-group/curate-cli/internal/model"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu         sync.Mutex
	batches    map[string]*model.BatchOutcome
	enrichment map[string]*model.EnrichmentRecord
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		batches:    make(map[string]*model.BatchOutcome),
		enrichment: make(map[string]*model.EnrichmentRecord),
	}
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Close() error                  { return nil }

func (s *MemoryStore) GetBatch(_ context.Context, name string) (*model.BatchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.batches[name]
	if !ok {
		return nil, nil
	}
	cp := *out
	cp.Addresses = make(map[string]model.Category, len(out.Addresses))
	for k, v := range out.Addresses {
		cp.Addresses[k] = v
	}
	return &cp, nil
}

func (s *MemoryStore) ListBatches(context.Context) ([]model.BatchSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.BatchSummary, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, model.BatchSummary{
			Batch:       b.Batch,
			RunID:       b.RunID,
			Fingerprint: b.Fingerprint,
			Status:      b.Status,
			Addresses:   len(b.Addresses),
			ProcessedAt: b.ProcessedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcessedAt.After(out[j].ProcessedAt) })
	return out, nil
}

func (s *MemoryStore) RecordOutcome(_ context.Context, out *model.BatchOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *out
	cp.Addresses = make(map[string]model.Category, len(out.Addresses))
	for k, v := range out.Addresses {
		cp.Addresses[k] = v
	}
	s.batches[out.Batch] = &cp
	return nil
}

func (s *MemoryStore) KnownAddresses(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Earliest recording wins, so iterate in processed_at order.
	ordered := make([]*model.BatchOutcome, 0, len(s.batches))
	for _, b := range s.batches {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProcessedAt.Before(ordered[j].ProcessedAt) })

	known := make(map[string]string)
	for _, b := range ordered {
		for addr := range b.Addresses {
			if _, ok := known[addr]; !ok {
				known[addr] = b.Batch
			}
		}
	}
	return known, nil
}

func (s *MemoryStore) GetEnrichment(_ context.Context, address string) (*model.EnrichmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.enrichment[address]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) BatchEnrichment(_ context.Context, addresses []string) (map[string]*model.EnrichmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*model.EnrichmentRecord, len(addresses))
	for _, a := range addresses {
		if rec, ok := s.enrichment[a]; ok {
			cp := *rec
			out[a] = &cp
		}
	}
	return out, nil
}

func (s *MemoryStore) UpsertEnrichment(_ context.Context, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := rec.Address.String()
	now := time.Now().UTC()

	existing, ok := s.enrichment[addr]
	if !ok {
		existing = &model.EnrichmentRecord{Address: rec.Address, FirstSeen: now}
		s.enrichment[addr] = existing
	}
	existing.Merge(rec)
	existing.LastUpdated = now
	return nil
}
