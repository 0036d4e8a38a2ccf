package api

import (
	"sync"

	"github.com/huandu/skiplist"

	"github.com/openalpha/launchpad/api/types"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 500
)

// seqKeyAsc is a comparator for ascending feed sequence order
type seqKeyAsc struct{}

func (k seqKeyAsc) Compare(lhs, rhs interface{}) int {
	l := lhs.(uint64)
	r := rhs.(uint64)
	if l < r {
		return -1
	}
	if l > r {
		return 1
	}
	return 0
}

func (k seqKeyAsc) CalcScore(key interface{}) float64 {
	return float64(key.(uint64))
}

// purchaseFeed records settled purchases in sequence order using a
// skip list. Provides O(log n) append and cursor-based pagination.
type purchaseFeed struct {
	mu   sync.RWMutex
	list *skiplist.SkipList
	seq  uint64
}

// newPurchaseFeed creates an empty purchase feed
func newPurchaseFeed() *purchaseFeed {
	return &purchaseFeed{
		list: skiplist.New(seqKeyAsc{}),
	}
}

// Append records a purchase and stamps its feed sequence - O(log n)
func (f *purchaseFeed) Append(p *types.Purchase) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	p.Sequence = f.seq
	f.list.Set(f.seq, p)
	return f.seq
}

// Since returns up to limit purchases with sequence greater than cursor,
// oldest first, plus the cursor for the next page. PoolID 0 and an empty
// buyer match everything. When no purchases remain the returned cursor
// equals the input cursor.
func (f *purchaseFeed) Since(cursor uint64, limit int, poolID uint64, buyer string) ([]*types.Purchase, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	out := make([]*types.Purchase, 0, limit)
	next := cursor
	elem := f.list.Find(cursor + 1)
	for elem != nil && len(out) < limit {
		p := elem.Value.(*types.Purchase)
		if (poolID == 0 || p.PoolID == poolID) && (buyer == "" || p.Buyer == buyer) {
			out = append(out, p)
			next = p.Sequence
		}
		elem = elem.Next()
	}
	return out, next
}

// Len returns the number of recorded purchases
func (f *purchaseFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.list.Len()
}
