package normalize

import (
	"github.com/sells-group/curate-cli/internal/model"
)

// Entry pairs a normalized record with its repair provenance, the unit the
// batch-scope duplicate resolver works on.
type Entry struct {
	Record   *model.Record
	Repaired bool
}

// Resolution is the outcome of resolving one batch's duplicates.
type Resolution struct {
	Records           []*model.Record
	DuplicatesRemoved int
	PrefixDupsRemoved int
}

// Resolve applies batch-scope duplicate resolution in a single pass over a
// fixed snapshot of the batch.
//
// A repaired entry whose clean counterpart also appears natively in the
// batch is a prefix-duplicate and is dropped. A repaired entry with no
// native counterpart is kept under its clean form (recovery). Exact
// duplicates keep the first occurrence. All prefix relationships are
// evaluated against the original batch membership, never against
// partially-resolved state, so the result is order-independent.
func Resolve(entries []Entry) Resolution {
	// Snapshot: addresses that appeared without an artifact prefix.
	native := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.Repaired {
			native[e.Record.Address.String()] = struct{}{}
		}
	}

	res := Resolution{Records: make([]*model.Record, 0, len(entries))}
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		addr := e.Record.Address.String()

		if e.Repaired {
			if _, ok := native[addr]; ok {
				res.PrefixDupsRemoved++
				continue
			}
		}
		if _, ok := seen[addr]; ok {
			res.DuplicatesRemoved++
			continue
		}
		seen[addr] = struct{}{}
		res.Records = append(res.Records, e.Record)
	}

	return res
}
