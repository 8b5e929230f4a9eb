package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/curate-cli/internal/model"
	"github.com/sells-group/curate-cli/internal/policy"
	"github.com/sells-group/curate-cli/internal/profile"
	"github.com/sells-group/curate-cli/internal/scoring"
	"github.com/sells-group/curate-cli/internal/store"
)

func testProfile() *profile.MarketProfile {
	return &profile.MarketProfile{
		Name: "machinery-de",
		Exclusions: profile.ExclusionRules{
			HRPrefixes:      []string{"hr", "karriere"},
			ServicePrefixes: []string{"noreply", "webmaster"},
		},
		Keywords: profile.KeywordSets{
			Primary:   []string{"cnc", "zerspanung"},
			Secondary: []string{"fertigung"},
		},
		Domains: profile.DomainPatterns{
			Freemail: []string{"gmail.com", "web.de"},
		},
		Geo: profile.GeoTiers{
			High:   []string{"dresden", "chemnitz"},
			Medium: []string{"sachsen"},
		},
		Weights: profile.Weights{
			AddressQuality: 0.25,
			Relevance:      0.35,
			Geographic:     0.25,
			Engagement:     0.15,
		},
		Thresholds:  profile.Thresholds{Low: 30, Medium: 55, High: 75},
		Categories:  profile.CategoryRules{PrimaryMin: 60, PotentialMin: 25},
		Multipliers: profile.Multipliers{OEM: 1.15, GeoHigh: 1.1},
	}
}

func writeBatch(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readJSONL(t *testing.T, path string) map[string]*model.Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	out := make(map[string]*model.Record)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec model.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		out[rec.Address.String()] = &rec
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	batch := writeBatch(t, dir, "end2end.txt",
		"Info@ACME.com\nsales@acme.com\n20x@acme.com\nhr@acme.com\n")

	st := store.NewMemory()
	p := New(Options{OutputDir: outDir}, st, policy.NewMemory(), scoring.NewEngine(testProfile()))

	results, err := p.Run(context.Background(), []string{batch})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.True(t, res.Success)
	assert.False(t, res.Skipped)
	assert.Equal(t, 4, res.Counts[model.CategoryClean])
	assert.Equal(t, 0, res.DuplicatesRemoved)
	assert.Equal(t, 0, res.PrefixDupsRemoved)
	assert.Equal(t, 4, res.Scored)

	// x@acme.com is recovered from the artifact-prefixed line because no
	// clean duplicate of it existed in the batch.
	list, err := os.ReadFile(filepath.Join(outDir, "end2end", "clean.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hr@acme.com\ninfo@acme.com\nsales@acme.com\nx@acme.com\n", string(list))

	recs := readJSONL(t, filepath.Join(outDir, "end2end", "clean.jsonl"))
	require.Len(t, recs, 4)

	hr := recs["hr@acme.com"]
	require.NotNil(t, hr.Score)
	assert.True(t, hr.Score.Excluded)
	assert.Contains(t, hr.Score.ExclusionReasons, scoring.ReasonHRPrefix)

	info := recs["info@acme.com"]
	require.NotNil(t, info.Score)
	assert.False(t, info.Score.Excluded)

	// The outcome is stored under the batch name with its fingerprint.
	outcome, err := st.GetBatch(context.Background(), "end2end")
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, res.Fingerprint, outcome.Fingerprint)
	assert.Len(t, outcome.Addresses, 4)
}

func TestRunSkipsUnchangedBatch(t *testing.T) {
	dir := t.TempDir()
	batch := writeBatch(t, dir, "stable.txt", "info@acme.com\n")
	st := store.NewMemory()
	pol := policy.NewMemory()

	first, err := New(Options{}, st, pol, nil).Run(context.Background(), []string{batch})
	require.NoError(t, err)
	require.True(t, first[0].Success)
	require.False(t, first[0].Skipped)

	second, err := New(Options{}, st, pol, nil).Run(context.Background(), []string{batch})
	require.NoError(t, err)
	assert.True(t, second[0].Success)
	assert.True(t, second[0].Skipped)

	// A content change defeats the skip.
	writeBatch(t, dir, "stable.txt", "info@acme.com\nsales@acme.com\n")
	third, err := New(Options{}, st, pol, nil).Run(context.Background(), []string{batch})
	require.NoError(t, err)
	assert.False(t, third[0].Skipped)
	assert.Equal(t, 2, third[0].Counts[model.CategoryClean])
}

func TestRunAutoBlockPropagation(t *testing.T) {
	dir := t.TempDir()
	addrPath := filepath.Join(dir, "blocked_addresses.txt")
	domainPath := filepath.Join(dir, "blocked_domains.txt")
	pol, err := policy.Open(addrPath, domainPath)
	require.NoError(t, err)

	st := store.NewMemory()
	batch1 := writeBatch(t, dir, "hints.csv",
		"Email,Status\nbad@x.com,invalid\ngood@x.com,\n")

	results, err := New(Options{}, st, pol, nil).Run(context.Background(), []string{batch1})
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Counts[model.CategoryInvalid])
	assert.Equal(t, 1, results[0].Counts[model.CategoryClean])

	data, err := os.ReadFile(addrPath)
	require.NoError(t, err)
	assert.Equal(t, "bad@x.com\n", string(data))

	// The address is blocked on any later batch, even without a hint.
	batch2 := writeBatch(t, dir, "later.txt", "bad@x.com\nother@x.com\n")
	pol2, err := policy.Open(addrPath, domainPath)
	require.NoError(t, err)
	results, err = New(Options{}, st, pol2, nil).Run(context.Background(), []string{batch2})
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Counts[model.CategoryBlockedByAddress])
	assert.Equal(t, 1, results[0].Counts[model.CategoryClean])

	// Force-reprocessing the unchanged hint batch must not re-append.
	results, err = New(Options{Force: true}, st, pol2, nil).Run(context.Background(), []string{batch1})
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Counts[model.CategoryInvalid])

	data, err = os.ReadFile(addrPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "bad@x.com"))
}

func TestRunCrossBatchDedup(t *testing.T) {
	dir := t.TempDir()
	st := store.NewMemory()
	pol := policy.NewMemory()

	a := writeBatch(t, dir, "a.txt", "shared@x.com\nonly-a@x.com\n")
	b := writeBatch(t, dir, "b.txt", "shared@x.com\nonly-b@x.com\n")

	results, err := New(Options{CrossBatchDedup: true}, st, pol, nil).
		Run(context.Background(), []string{a, b})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 2, results[0].Counts[model.CategoryClean])
	assert.Equal(t, 0, results[0].DuplicatesRemoved)

	// The earlier batch won the shared address.
	assert.Equal(t, 1, results[1].Counts[model.CategoryClean])
	assert.Equal(t, 1, results[1].DuplicatesRemoved)

	outcome, err := st.GetBatch(context.Background(), "b")
	require.NoError(t, err)
	assert.NotContains(t, outcome.Addresses, "shared@x.com")
	assert.Contains(t, outcome.Addresses, "only-b@x.com")
}

func TestRunChangedBatchDoesNotDedupAgainstItself(t *testing.T) {
	dir := t.TempDir()
	st := store.NewMemory()
	pol := policy.NewMemory()
	batch := writeBatch(t, dir, "grow.txt", "a@x.com\nb@x.com\n")

	_, err := New(Options{CrossBatchDedup: true}, st, pol, nil).
		Run(context.Background(), []string{batch})
	require.NoError(t, err)

	writeBatch(t, dir, "grow.txt", "a@x.com\nb@x.com\nc@x.com\n")
	results, err := New(Options{CrossBatchDedup: true}, st, pol, nil).
		Run(context.Background(), []string{batch})
	require.NoError(t, err)

	assert.Equal(t, 3, results[0].Counts[model.CategoryClean])
	assert.Equal(t, 0, results[0].DuplicatesRemoved)

	outcome, err := st.GetBatch(context.Background(), "grow")
	require.NoError(t, err)
	assert.Len(t, outcome.Addresses, 3)
}

func TestRunBatchFailureIsolated(t *testing.T) {
	dir := t.TempDir()
	st := store.NewMemory()
	good := writeBatch(t, dir, "good.txt", "info@acme.com\n")
	missing := filepath.Join(dir, "missing.txt")

	results, err := New(Options{CrossBatchDedup: true}, st, policy.NewMemory(), nil).
		Run(context.Background(), []string{missing, good})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Error)
	assert.True(t, results[1].Success)

	// No outcome was stored for the failed batch.
	outcome, err := st.GetBatch(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestRunEmptyBatchFails(t *testing.T) {
	dir := t.TempDir()
	st := store.NewMemory()
	batch := writeBatch(t, dir, "junk.txt", "not-an-address\nalso junk\n")

	results, err := New(Options{}, st, policy.NewMemory(), nil).
		Run(context.Background(), []string{batch})
	require.NoError(t, err)

	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "no valid addresses")

	// The failed batch leaves no stored fingerprint, so the next run retries.
	outcome, err := st.GetBatch(context.Background(), "junk")
	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestRunCountsRejectsAndArtifacts(t *testing.T) {
	dir := t.TempDir()
	batch := writeBatch(t, dir, "noisy.txt",
		"not-an-address\n"+
			"deadbeefdeadbeefdeadbeefdeadbeef@acme.com\n"+
			"crash@sentry.io\n"+
			"ok@acme.com\n")

	results, err := New(Options{}, store.NewMemory(), policy.NewMemory(), nil).
		Run(context.Background(), []string{batch})
	require.NoError(t, err)

	res := results[0]
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 2, res.Artifacts)
	assert.Equal(t, 1, res.Counts[model.CategoryClean])
}

func TestRunMetadataBackfill(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	st := store.NewMemory()
	pol := policy.NewMemory()

	rich := writeBatch(t, dir, "rich.csv",
		"Email,Company,City\ninfo@acme.com,ACME GmbH,Dresden\n")
	bare := writeBatch(t, dir, "bare.txt", "info@acme.com\n")

	_, err := New(Options{}, st, pol, nil).Run(context.Background(), []string{rich})
	require.NoError(t, err)

	results, err := New(Options{OutputDir: outDir}, st, pol, nil).
		Run(context.Background(), []string{bare})
	require.NoError(t, err)
	require.True(t, results[0].Success)
	assert.True(t, results[0].Enriched)

	recs := readJSONL(t, filepath.Join(outDir, "bare", "clean.jsonl"))
	require.Contains(t, recs, "info@acme.com")
	assert.Equal(t, "ACME GmbH", recs["info@acme.com"].Org)
	assert.Equal(t, "Dresden", recs["info@acme.com"].City)
}
