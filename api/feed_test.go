package api

import (
	"fmt"
	"testing"

	"github.com/openalpha/launchpad/api/types"
)

func seedFeed(n int) *purchaseFeed {
	feed := newPurchaseFeed()
	for i := 0; i < n; i++ {
		feed.Append(&types.Purchase{
			PoolID:   uint64(i % 3),
			Buyer:    fmt.Sprintf("buyer-%d", i%2),
			Quantity: fmt.Sprintf("%d", i+1),
		})
	}
	return feed
}

func TestPurchaseFeedSequenceStamping(t *testing.T) {
	feed := newPurchaseFeed()

	first := &types.Purchase{PoolID: 1, Buyer: "a"}
	second := &types.Purchase{PoolID: 1, Buyer: "b"}
	if seq := feed.Append(first); seq != 1 {
		t.Errorf("first sequence=%d, want 1", seq)
	}
	if seq := feed.Append(second); seq != 2 {
		t.Errorf("second sequence=%d, want 2", seq)
	}
	if first.Sequence != 1 || second.Sequence != 2 {
		t.Errorf("stamped sequences %d/%d, want 1/2", first.Sequence, second.Sequence)
	}
}

func TestPurchaseFeedCursorPagination(t *testing.T) {
	feed := seedFeed(10)

	page, cursor := feed.Since(0, 4, 0, "")
	if len(page) != 4 || cursor != 4 {
		t.Fatalf("page1 len=%d cursor=%d, want 4/4", len(page), cursor)
	}
	page, cursor = feed.Since(cursor, 4, 0, "")
	if len(page) != 4 || cursor != 8 {
		t.Fatalf("page2 len=%d cursor=%d, want 4/8", len(page), cursor)
	}
	page, cursor = feed.Since(cursor, 4, 0, "")
	if len(page) != 2 || cursor != 10 {
		t.Fatalf("page3 len=%d cursor=%d, want 2/10", len(page), cursor)
	}

	// Exhausted feed keeps returning the same cursor.
	page, next := feed.Since(cursor, 4, 0, "")
	if len(page) != 0 || next != cursor {
		t.Errorf("drained feed: len=%d next=%d, want 0/%d", len(page), next, cursor)
	}
}

func TestPurchaseFeedFilters(t *testing.T) {
	feed := seedFeed(12)

	byPool, _ := feed.Since(0, 50, 1, "")
	for _, p := range byPool {
		if p.PoolID != 1 {
			t.Errorf("pool filter leaked pool %d", p.PoolID)
		}
	}
	if len(byPool) != 4 {
		t.Errorf("pool filter returned %d purchases, want 4", len(byPool))
	}

	byBuyer, _ := feed.Since(0, 50, 0, "buyer-0")
	for _, p := range byBuyer {
		if p.Buyer != "buyer-0" {
			t.Errorf("buyer filter leaked %s", p.Buyer)
		}
	}
	if len(byBuyer) != 6 {
		t.Errorf("buyer filter returned %d purchases, want 6", len(byBuyer))
	}
}

func TestPurchaseFeedLimitClamp(t *testing.T) {
	feed := seedFeed(3)

	// Zero and negative limits fall back to the default.
	if page, _ := feed.Since(0, 0, 0, ""); len(page) != 3 {
		t.Errorf("default limit page len=%d, want 3", len(page))
	}
	if got := feed.Len(); got != 3 {
		t.Errorf("Len=%d, want 3", got)
	}
}
