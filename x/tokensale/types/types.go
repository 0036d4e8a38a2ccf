package types

import (
	"cosmossdk.io/math"
)

// Module name and store key
const (
	ModuleName = "tokensale"
	StoreKey   = ModuleName

	// DefaultPaymentDenom is the denom buyers pay with unless the app
	// configures another one.
	DefaultPaymentDenom = "ualpha"
)

// Pool kinds
const (
	PoolKindAuction    = "auction"
	PoolKindFixedPrice = "fixed_price"
)

// Pool is one configured sale of a fixed asset quantity over a time window.
// Auction pools decay linearly from StartPrice to EndPrice across the window;
// fixed-price pools keep StartPrice == EndPrice throughout.
type Pool struct {
	PoolID            uint64   `json:"pool_id"`
	Kind              string   `json:"kind"`
	SaleDenom         string   `json:"sale_denom"`
	Inventory         math.Int `json:"inventory"`
	StartPrice        math.Int `json:"start_price"`
	EndPrice          math.Int `json:"end_price"`
	StartTime         int64    `json:"start_time"`
	EndTime           int64    `json:"end_time"`
	Active            bool     `json:"active"`
	AllowlistRequired bool     `json:"allowlist_required"`
	CreatedAt         int64    `json:"created_at"`
}

// IsOpenAt reports whether the sale window covers the given unix time.
// Both window ends are inclusive.
func (p *Pool) IsOpenAt(now int64) bool {
	return now >= p.StartTime && now <= p.EndTime
}

// AuctionPriceAt returns the decaying unit price of an auction pool at the
// given unix time. Outside the window the price clamps to the boundary
// values. Inside, the discount is computed as
//
//	(startPrice - endPrice) * elapsed / window
//
// with a single truncating division; the operation order is part of the
// contract and callers must not expect rounded results.
func (p *Pool) AuctionPriceAt(now int64) (math.Int, error) {
	if p.Kind != PoolKindAuction {
		return math.ZeroInt(), ErrWrongPoolKind
	}
	if now <= p.StartTime {
		return p.StartPrice, nil
	}
	if now >= p.EndTime {
		return p.EndPrice, nil
	}
	elapsed := math.NewInt(now - p.StartTime)
	window := math.NewInt(p.EndTime - p.StartTime)
	discount := p.StartPrice.Sub(p.EndPrice).Mul(elapsed).Quo(window)
	return p.StartPrice.Sub(discount), nil
}

// UnitPriceAt returns the effective unit price for settlement at the given
// unix time, branching on the pool kind.
func (p *Pool) UnitPriceAt(now int64) (math.Int, error) {
	switch p.Kind {
	case PoolKindFixedPrice:
		return p.StartPrice, nil
	case PoolKindAuction:
		return p.AuctionPriceAt(now)
	default:
		return math.ZeroInt(), ErrWrongPoolKind
	}
}

// PoolConfig carries the creation parameters shared by both pool kinds. For
// fixed-price pools StartPrice and EndPrice hold the same value.
type PoolConfig struct {
	SaleDenom         string   `json:"sale_denom"`
	Inventory         math.Int `json:"inventory"`
	StartPrice        math.Int `json:"start_price"`
	EndPrice          math.Int `json:"end_price"`
	StartTime         int64    `json:"start_time"`
	EndTime           int64    `json:"end_time"`
	AllowlistRequired bool     `json:"allowlist_required"`
}

// PurchaseReceipt summarizes one settled buy.
type PurchaseReceipt struct {
	PoolID    uint64   `json:"pool_id"`
	Buyer     string   `json:"buyer"`
	Quantity  math.Int `json:"quantity"`
	UnitPrice math.Int `json:"unit_price"`
	Payment   math.Int `json:"payment"`
	Change    math.Int `json:"change"`
	Timestamp int64    `json:"timestamp"`
}

// AllowlistState bundles the global allowlist commitment for queries.
type AllowlistState struct {
	Enabled bool   `json:"enabled"`
	Root    string `json:"root,omitempty"`
}
