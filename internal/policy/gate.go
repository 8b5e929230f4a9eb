package policy

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/curate-cli/internal/model"
)

// Gate classifies normalized records against the deny lists and any
// externally supplied validation hint. One Gate is created per run; the
// auto-block queue it accumulates is flushed to the Store exactly once.
type Gate struct {
	store *Store

	mu        sync.Mutex
	autoBlock map[string]struct{}
}

// NewGate creates a Gate over the given store.
func NewGate(store *Store) *Gate {
	return &Gate{
		store:     store,
		autoBlock: make(map[string]struct{}),
	}
}

// Classify runs the fixed-order state machine, terminal on first match:
//
//  1. hint "invalid"                  -> invalid (and queue auto-block)
//  2. hint temp/not-sure/not-checked  -> blocked_by_address
//  3. address deny-listed             -> blocked_by_address
//  4. domain deny-listed              -> blocked_by_domain
//  5. otherwise                       -> clean
//
// The order is a correctness requirement: a confirmed-invalid address must
// land in invalid even when it is also deny-listed.
func (g *Gate) Classify(r *model.Record) model.Category {
	switch r.Hint {
	case model.HintInvalid:
		g.mu.Lock()
		g.autoBlock[r.Address.String()] = struct{}{}
		g.mu.Unlock()
		return model.CategoryInvalid
	case model.HintTemp, model.HintNotSure, model.HintNotChecked:
		return model.CategoryBlockedByAddress
	}

	if g.store.BlockedAddress(r.Address.String()) {
		return model.CategoryBlockedByAddress
	}
	if g.store.BlockedDomain(r.Address.Domain) {
		return model.CategoryBlockedByDomain
	}
	return model.CategoryClean
}

// FlushAutoBlock persists queued confirmed-invalid addresses to the store,
// deduplicated against entries already present. Safe to call once per run;
// a second call is a no-op because the queue is drained.
func (g *Gate) FlushAutoBlock() (int, error) {
	g.mu.Lock()
	queued := make([]string, 0, len(g.autoBlock))
	for a := range g.autoBlock {
		queued = append(queued, a)
	}
	g.autoBlock = make(map[string]struct{})
	g.mu.Unlock()

	if len(queued) == 0 {
		return 0, nil
	}

	added, err := g.store.AppendAddresses(queued)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		zap.L().Info("policy: auto-blocked confirmed-invalid addresses",
			zap.Int("added", added),
			zap.Int("queued", len(queued)),
		)
	}
	return added, nil
}
