package policy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/curate-cli/internal/model"
)

func newTestStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	dir := t.TempDir()
	addrPath := filepath.Join(dir, "blocked_addresses.txt")
	domainPath := filepath.Join(dir, "blocked_domains.txt")
	s, err := Open(addrPath, domainPath)
	require.NoError(t, err)
	return s, addrPath, domainPath
}

func rec(addr string, hint model.ValidationHint) *model.Record {
	at := strings.IndexByte(addr, '@')
	return &model.Record{
		Address: model.Address{Local: addr[:at], Domain: addr[at+1:]},
		Hint:    hint,
	}
}

func TestStoreLoadNormalizes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	addrPath := filepath.Join(dir, "addrs.txt")
	require.NoError(t, os.WriteFile(addrPath, []byte("Spam@Acme.COM\n\n# comment\nother@x.de\n"), 0o644))

	s, err := Open(addrPath, "")
	require.NoError(t, err)

	assert.True(t, s.BlockedAddress("spam@acme.com"))
	assert.True(t, s.BlockedAddress("SPAM@ACME.COM"))
	assert.True(t, s.BlockedAddress("other@x.de"))
	assert.False(t, s.BlockedAddress("clean@acme.com"))
}

func TestStoreAppendDeduplicates(t *testing.T) {
	t.Parallel()

	s, addrPath, _ := newTestStore(t)

	added, err := s.AppendAddresses([]string{"b@x.com", "A@x.com", "b@x.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Second append of the same entries writes nothing.
	added, err = s.AppendAddresses([]string{"a@x.com", "B@X.com"})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	data, err := os.ReadFile(addrPath)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com\nb@x.com\n", string(data))
}

func TestGateOrder(t *testing.T) {
	t.Parallel()

	s := NewMemory()
	_, err := s.AppendAddresses([]string{"listed@acme.com"})
	require.NoError(t, err)
	_, err = s.AppendDomains([]string{"spam.de"})
	require.NoError(t, err)

	g := NewGate(s)

	t.Run("hint invalid wins over deny list", func(t *testing.T) {
		assert.Equal(t, model.CategoryInvalid, g.Classify(rec("listed@acme.com", model.HintInvalid)))
	})
	t.Run("unreliable hints block by address", func(t *testing.T) {
		for _, h := range []model.ValidationHint{model.HintTemp, model.HintNotSure, model.HintNotChecked} {
			assert.Equal(t, model.CategoryBlockedByAddress, g.Classify(rec("fresh@acme.com", h)))
		}
	})
	t.Run("hint valid falls through to deny lists", func(t *testing.T) {
		assert.Equal(t, model.CategoryBlockedByAddress, g.Classify(rec("listed@acme.com", model.HintValid)))
		assert.Equal(t, model.CategoryBlockedByDomain, g.Classify(rec("anyone@spam.de", model.HintValid)))
		assert.Equal(t, model.CategoryClean, g.Classify(rec("clean@acme.com", model.HintValid)))
	})
	t.Run("no hint starts at deny lists", func(t *testing.T) {
		assert.Equal(t, model.CategoryBlockedByAddress, g.Classify(rec("listed@acme.com", model.HintNone)))
		assert.Equal(t, model.CategoryClean, g.Classify(rec("clean@acme.com", model.HintNone)))
	})
}

func TestGateAutoBlockFlush(t *testing.T) {
	t.Parallel()

	s, addrPath, _ := newTestStore(t)
	g := NewGate(s)

	assert.Equal(t, model.CategoryInvalid, g.Classify(rec("bad@acme.com", model.HintInvalid)))
	// Same address twice in a run queues once.
	assert.Equal(t, model.CategoryInvalid, g.Classify(rec("bad@acme.com", model.HintInvalid)))

	added, err := g.FlushAutoBlock()
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// Subsequent classification without a hint now hits the deny list.
	assert.Equal(t, model.CategoryBlockedByAddress, g.Classify(rec("bad@acme.com", model.HintNone)))

	// Second flush is a no-op: nothing queued, no file growth.
	added, err = g.FlushAutoBlock()
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	data, err := os.ReadFile(addrPath)
	require.NoError(t, err)
	assert.Equal(t, "bad@acme.com\n", string(data))
}

func TestGateIdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	s, addrPath, _ := newTestStore(t)

	// First run auto-blocks.
	g1 := NewGate(s)
	g1.Classify(rec("bad@acme.com", model.HintInvalid))
	_, err := g1.FlushAutoBlock()
	require.NoError(t, err)

	// Re-run over the same input must not re-append.
	g2 := NewGate(s)
	g2.Classify(rec("bad@acme.com", model.HintInvalid))
	added, err := g2.FlushAutoBlock()
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	data, err := os.ReadFile(addrPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "bad@acme.com"))
}
