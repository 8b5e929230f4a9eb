package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/curate-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTestMemory(t *testing.T) Store {
	t.Helper()
	return NewMemory()
}

func outcome(batch, runID, fingerprint string, at time.Time, addrs map[string]model.Category) *model.BatchOutcome {
	return &model.BatchOutcome{
		RunID:       runID,
		Batch:       batch,
		Fingerprint: fingerprint,
		Status:      model.BatchStatusSuccess,
		Addresses:   addrs,
		ProcessedAt: at,
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("GetBatchNotFound", func(t *testing.T) {
		s := newStore(t)
		got, err := s.GetBatch(context.Background(), "never-processed")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RecordAndGetOutcome", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		err := s.RecordOutcome(ctx, outcome("leads-q1", "run-1", "abc123", at, map[string]model.Category{
			"info@acme.com":  model.CategoryClean,
			"hr@acme.com":    model.CategoryBlockedByAddress,
			"spam@broken.io": model.CategoryInvalid,
		}))
		require.NoError(t, err)

		got, err := s.GetBatch(ctx, "leads-q1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, "abc123", got.Fingerprint)
		assert.Equal(t, model.BatchStatusSuccess, got.Status)
		assert.Len(t, got.Addresses, 3)
		assert.Equal(t, model.CategoryClean, got.Addresses["info@acme.com"])
		assert.Equal(t, model.CategoryInvalid, got.Addresses["spam@broken.io"])
	})

	t.Run("RecordOutcomeReplacesPartition", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, s.RecordOutcome(ctx, outcome("leads-q1", "run-1", "v1", at, map[string]model.Category{
			"a@x.com": model.CategoryClean,
			"b@x.com": model.CategoryClean,
		})))
		require.NoError(t, s.RecordOutcome(ctx, outcome("leads-q1", "run-2", "v2", at.Add(time.Hour), map[string]model.Category{
			"c@x.com": model.CategoryClean,
		})))

		got, err := s.GetBatch(ctx, "leads-q1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "run-2", got.RunID)
		assert.Equal(t, "v2", got.Fingerprint)
		assert.Len(t, got.Addresses, 1)
		assert.Contains(t, got.Addresses, "c@x.com")
	})

	t.Run("ListBatchesNewestFirst", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, s.RecordOutcome(ctx, outcome("older", "run-1", "f1", base, map[string]model.Category{
			"a@x.com": model.CategoryClean,
		})))
		require.NoError(t, s.RecordOutcome(ctx, outcome("newer", "run-1", "f2", base.Add(time.Hour), map[string]model.Category{
			"b@x.com": model.CategoryClean,
			"c@x.com": model.CategoryClean,
		})))

		list, err := s.ListBatches(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "newer", list[0].Batch)
		assert.Equal(t, 2, list[0].Addresses)
		assert.Equal(t, "older", list[1].Batch)
		assert.Equal(t, 1, list[1].Addresses)
	})

	t.Run("KnownAddressesEarliestWins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, s.RecordOutcome(ctx, outcome("first", "run-1", "f1", base, map[string]model.Category{
			"shared@x.com": model.CategoryClean,
			"only1@x.com":  model.CategoryClean,
		})))
		require.NoError(t, s.RecordOutcome(ctx, outcome("second", "run-1", "f2", base.Add(time.Hour), map[string]model.Category{
			"shared@x.com": model.CategoryInvalid,
			"only2@x.com":  model.CategoryBlockedByDomain,
		})))

		known, err := s.KnownAddresses(ctx)
		require.NoError(t, err)
		assert.Len(t, known, 3)
		assert.Equal(t, "first", known["shared@x.com"])
		assert.Equal(t, "first", known["only1@x.com"])
		assert.Equal(t, "second", known["only2@x.com"])
	})

	t.Run("EnrichmentNotFound", func(t *testing.T) {
		s := newStore(t)
		rec, err := s.GetEnrichment(context.Background(), "nobody@nowhere.com")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("EnrichmentNonEmptyWins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := &model.Record{
			Address: model.Address{Local: "info", Domain: "acme.com"},
			Org:     "ACME GmbH",
			City:    "Dresden",
			Batch:   "leads-q1",
		}
		require.NoError(t, s.UpsertEnrichment(ctx, first))

		stored, err := s.GetEnrichment(ctx, "info@acme.com")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "ACME GmbH", stored.Org)
		assert.Equal(t, "Dresden", stored.City)
		assert.False(t, stored.FirstSeen.IsZero())
		firstSeen := stored.FirstSeen

		// A later sighting fills gaps but never overwrites stored values.
		second := &model.Record{
			Address: model.Address{Local: "info", Domain: "acme.com"},
			Org:     "Different Name",
			Phone:   "+49 351 0000",
			Batch:   "leads-q2",
		}
		require.NoError(t, s.UpsertEnrichment(ctx, second))

		stored, err = s.GetEnrichment(ctx, "info@acme.com")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "ACME GmbH", stored.Org)
		assert.Equal(t, "+49 351 0000", stored.Phone)
		assert.Equal(t, "leads-q1", stored.Batch)
		assert.Equal(t, firstSeen.Unix(), stored.FirstSeen.Unix())
		assert.False(t, stored.LastUpdated.Before(firstSeen))
	})

	t.Run("BatchEnrichment", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, rec := range []*model.Record{
			{Address: model.Address{Local: "info", Domain: "acme.com"}, Org: "ACME"},
			{Address: model.Address{Local: "sales", Domain: "beta.de"}, Org: "Beta"},
		} {
			require.NoError(t, s.UpsertEnrichment(ctx, rec))
		}

		got, err := s.BatchEnrichment(ctx, []string{"info@acme.com", "sales@beta.de", "missing@x.com"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "ACME", got["info@acme.com"].Org)
		assert.Equal(t, "Beta", got["sales@beta.de"].Org)

		empty, err := s.BatchEnrichment(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestMemoryStore(t *testing.T) {
	storeTestSuite(t, newTestMemory)
}

func TestIsUnchanged(t *testing.T) {
	at := time.Now()
	success := outcome("b", "r", "fp", at, nil)
	failed := outcome("b", "r", "fp", at, nil)
	failed.Status = model.BatchStatusFailed

	assert.True(t, IsUnchanged(success, "fp"))
	assert.False(t, IsUnchanged(success, "other"))
	assert.False(t, IsUnchanged(failed, "fp"))
	assert.False(t, IsUnchanged(nil, "fp"))
}
