package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "batch.txt")
	require.NoError(t, os.WriteFile(path, []byte("info@acme.com\n"), 0o644))

	fp1, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Len(t, fp1, 64)

	// Stable across calls.
	fp2, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	// Any byte change moves the fingerprint.
	require.NoError(t, os.WriteFile(path, []byte("info@acme.com\nsales@acme.com\n"), 0o644))
	fp3, err := Fingerprint(path)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}

func TestFingerprintMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Fingerprint(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestBatchName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "leads-q1", BatchName("/data/in/leads-q1.txt"))
	assert.Equal(t, "leads-q1", BatchName("leads-q1.csv"))
	assert.Equal(t, "export", BatchName("a/b/export.xlsx"))
	assert.Equal(t, "plain", BatchName("plain"))
}
