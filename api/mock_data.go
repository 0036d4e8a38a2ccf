package api

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/openalpha/launchpad/api/types"
	saletypes "github.com/openalpha/launchpad/x/tokensale/types"
)

// Mock data generation for development and testing

// initMockData seeds demo pools so a fresh UI has something to render: one
// running auction, one running fixed-price sale, one upcoming auction and one
// closed sale with purchase history.
func (ms *MockService) initMockData() {
	now := time.Now().Unix()

	ms.storePool(&types.Pool{
		PoolID:     0,
		Kind:       saletypes.PoolKindAuction,
		SaleDenom:  "ulaunch",
		Inventory:  "850000",
		StartPrice: "100",
		EndPrice:   "40",
		StartTime:  now - 3600,
		EndTime:    now + 23*3600,
		Active:     true,
		CreatedAt:  now - 7200,
	})
	ms.storePool(&types.Pool{
		PoolID:     1,
		Kind:       saletypes.PoolKindFixedPrice,
		SaleDenom:  "udemo",
		Inventory:  "42000",
		StartPrice: "25",
		EndPrice:   "25",
		StartTime:  now - 1800,
		EndTime:    now + 48*3600,
		Active:     true,
		CreatedAt:  now - 3600,
	})
	ms.storePool(&types.Pool{
		PoolID:            2,
		Kind:              saletypes.PoolKindAuction,
		SaleDenom:         "urare",
		Inventory:         "5000",
		StartPrice:        "900",
		EndPrice:          "300",
		StartTime:         now + 6*3600,
		EndTime:           now + 30*3600,
		Active:            true,
		AllowlistRequired: true,
		CreatedAt:         now - 600,
	})
	ms.storePool(&types.Pool{
		PoolID:     3,
		Kind:       saletypes.PoolKindFixedPrice,
		SaleDenom:  "uclosed",
		Inventory:  "0",
		StartPrice: "10",
		EndPrice:   "10",
		StartTime:  now - 72*3600,
		EndTime:    now - 48*3600,
		Active:     false,
		CreatedAt:  now - 80*3600,
	})
	ms.count = 4

	ms.seedPurchases(now)
}

// seedPurchases backfills a plausible purchase history for the seeded pools
func (ms *MockService) seedPurchases(now int64) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 25; i++ {
		poolID := uint64(rng.Intn(2)) // pools 0 and 1 are open
		quantity := int64(rng.Intn(500) + 1)
		unitPrice := int64(25)
		if poolID == 0 {
			unitPrice = int64(40 + rng.Intn(60))
		}
		change := int64(rng.Intn(int(unitPrice)))
		payment := quantity*unitPrice + change

		ms.feed.Append(&types.Purchase{
			PoolID:    poolID,
			Buyer:     fmt.Sprintf("demo-buyer-%d", rng.Intn(8)),
			Quantity:  fmt.Sprintf("%d", quantity),
			UnitPrice: fmt.Sprintf("%d", unitPrice),
			Payment:   fmt.Sprintf("%d", payment),
			Change:    fmt.Sprintf("%d", change),
			Timestamp: now - int64(25-i)*120,
		})
	}
}
