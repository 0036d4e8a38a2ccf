package api

import (
	"sync"

	"github.com/google/btree"

	"github.com/openalpha/launchpad/api/types"
)

const scheduleDegree = 32 // B-tree degree, affects node size and cache efficiency

// scheduleItem indexes a pool by its opening time
type scheduleItem struct {
	startTime int64
	poolID    uint64
	pool      *types.Pool
}

// Less orders items by opening time, then pool ID for stability
func (a *scheduleItem) Less(b btree.Item) bool {
	o := b.(*scheduleItem)
	if a.startTime != o.startTime {
		return a.startTime < o.startTime
	}
	return a.poolID < o.poolID
}

// scheduleIndex keeps sale pools ordered by opening time.
// Provides O(log n) upsert and ordered schedule scans.
type scheduleIndex struct {
	mu   sync.RWMutex
	tree *btree.BTree
	byID map[uint64]*scheduleItem
}

// newScheduleIndex creates an empty schedule index
func newScheduleIndex() *scheduleIndex {
	return &scheduleIndex{
		tree: btree.New(scheduleDegree),
		byID: make(map[uint64]*scheduleItem),
	}
}

// Upsert inserts or replaces the entry for a pool - O(log n)
func (idx *scheduleIndex) Upsert(pool *types.Pool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if prev, ok := idx.byID[pool.PoolID]; ok {
		idx.tree.Delete(prev)
	}
	item := &scheduleItem{
		startTime: pool.StartTime,
		poolID:    pool.PoolID,
		pool:      pool,
	}
	idx.tree.ReplaceOrInsert(item)
	idx.byID[pool.PoolID] = item
}

// Remove drops a pool from the index - O(log n)
func (idx *scheduleIndex) Remove(poolID uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if prev, ok := idx.byID[poolID]; ok {
		idx.tree.Delete(prev)
		delete(idx.byID, poolID)
	}
}

// Get returns the indexed pool, or nil if unknown
func (idx *scheduleIndex) Get(poolID uint64) *types.Pool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if item, ok := idx.byID[poolID]; ok {
		return item.pool
	}
	return nil
}

// Open returns active pools whose sale window contains now,
// ordered by opening time. The window is inclusive on both ends.
func (idx *scheduleIndex) Open(now int64, limit int) []*types.Pool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pools := make([]*types.Pool, 0)
	idx.tree.Ascend(func(i btree.Item) bool {
		item := i.(*scheduleItem)
		if item.startTime > now {
			return false
		}
		p := item.pool
		if p.Active && now <= p.EndTime {
			pools = append(pools, p)
			if limit > 0 && len(pools) >= limit {
				return false
			}
		}
		return true
	})
	return pools
}

// Upcoming returns active pools that have not opened yet,
// ordered by opening time
func (idx *scheduleIndex) Upcoming(now int64, limit int) []*types.Pool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pools := make([]*types.Pool, 0)
	pivot := &scheduleItem{startTime: now + 1}
	idx.tree.AscendGreaterOrEqual(pivot, func(i btree.Item) bool {
		item := i.(*scheduleItem)
		if item.pool.Active {
			pools = append(pools, item.pool)
			if limit > 0 && len(pools) >= limit {
				return false
			}
		}
		return true
	})
	return pools
}

// Len returns the number of indexed pools
func (idx *scheduleIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}
