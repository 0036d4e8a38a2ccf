package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"

	"github.com/openalpha/launchpad/x/tokensale/types"
)

// TestCreateAuctionPool tests the happy path for a decaying pool
func TestCreateAuctionPool(t *testing.T) {
	k, bank, ctx := setupKeeper(t)

	pool, err := k.CreateAuctionPool(ctx, testOwner, auctionConfig())
	if err != nil {
		t.Fatalf("unexpected error creating pool: %v", err)
	}

	if pool.PoolID != 0 {
		t.Errorf("expected first pool id 0, got %d", pool.PoolID)
	}
	if pool.Kind != types.PoolKindAuction {
		t.Errorf("expected kind %s, got %s", types.PoolKindAuction, pool.Kind)
	}
	if !pool.Active {
		t.Error("expected new pool to be active")
	}
	if !pool.Inventory.Equal(math.NewInt(1000)) {
		t.Errorf("expected inventory 1000, got %s", pool.Inventory)
	}
	if count := k.GetPoolCount(ctx); count != 1 {
		t.Errorf("expected pool count 1, got %d", count)
	}

	// Inventory must be in module custody.
	if len(bank.pulls) != 1 {
		t.Fatalf("expected 1 custody pull, got %d", len(bank.pulls))
	}
	pull := bank.pulls[0]
	if pull.sender != testOwner.String() || pull.recipient != types.ModuleName {
		t.Errorf("custody pull routed %s -> %s", pull.sender, pull.recipient)
	}
	if got := pull.amount.AmountOf(testSaleDenom); !got.Equal(math.NewInt(1000)) {
		t.Errorf("expected 1000%s pulled, got %s", testSaleDenom, got)
	}
}

// TestCreateFixedPricePool tests that end price is pinned to the unit price
func TestCreateFixedPricePool(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	cfg := fixedConfig()
	cfg.EndPrice = math.NewInt(999) // ignored
	pool, err := k.CreateFixedPricePool(ctx, testOwner, cfg)
	if err != nil {
		t.Fatalf("unexpected error creating pool: %v", err)
	}
	if pool.Kind != types.PoolKindFixedPrice {
		t.Errorf("expected kind %s, got %s", types.PoolKindFixedPrice, pool.Kind)
	}
	if !pool.EndPrice.Equal(pool.StartPrice) {
		t.Errorf("expected flat curve, got start=%s end=%s", pool.StartPrice, pool.EndPrice)
	}
}

// TestPoolIDsAreDense tests that ids are assigned sequentially from zero
func TestPoolIDsAreDense(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	for i := 0; i < 4; i++ {
		pool, err := k.CreateAuctionPool(ctx, testOwner, auctionConfig())
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if pool.PoolID != uint64(i) {
			t.Errorf("expected pool id %d, got %d", i, pool.PoolID)
		}
	}
	if count := k.GetPoolCount(ctx); count != 4 {
		t.Errorf("expected pool count 4, got %d", count)
	}

	pools := k.GetPools(ctx)
	if len(pools) != 4 {
		t.Errorf("expected 4 stored pools, got %d", len(pools))
	}
}

// TestCreatePoolValidation tests every rejected configuration. A rejected
// creation must leave the registry untouched and move no funds.
func TestCreatePoolValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *types.PoolConfig)
		wantErr error
	}{
		{
			name:    "empty denom",
			mutate:  func(cfg *types.PoolConfig) { cfg.SaleDenom = "" },
			wantErr: types.ErrInvalidAsset,
		},
		{
			name:    "malformed denom",
			mutate:  func(cfg *types.PoolConfig) { cfg.SaleDenom = "7bad!" },
			wantErr: types.ErrInvalidAsset,
		},
		{
			name:    "zero inventory",
			mutate:  func(cfg *types.PoolConfig) { cfg.Inventory = math.ZeroInt() },
			wantErr: types.ErrInvalidAmount,
		},
		{
			name:    "negative inventory",
			mutate:  func(cfg *types.PoolConfig) { cfg.Inventory = math.NewInt(-5) },
			wantErr: types.ErrInvalidAmount,
		},
		{
			name:    "negative end price",
			mutate:  func(cfg *types.PoolConfig) { cfg.EndPrice = math.NewInt(-1) },
			wantErr: types.ErrInvalidCurve,
		},
		{
			name: "flat curve on auction",
			mutate: func(cfg *types.PoolConfig) {
				cfg.StartPrice = math.NewInt(50)
				cfg.EndPrice = math.NewInt(50)
			},
			wantErr: types.ErrInvalidCurve,
		},
		{
			name: "rising curve on auction",
			mutate: func(cfg *types.PoolConfig) {
				cfg.StartPrice = math.NewInt(10)
				cfg.EndPrice = math.NewInt(20)
			},
			wantErr: types.ErrInvalidCurve,
		},
		{
			name: "window inverted",
			mutate: func(cfg *types.PoolConfig) {
				cfg.StartTime = testNow + 200
				cfg.EndTime = testNow + 100
			},
			wantErr: types.ErrInvalidWindow,
		},
		{
			name: "window empty",
			mutate: func(cfg *types.PoolConfig) {
				cfg.StartTime = testNow + 100
				cfg.EndTime = testNow + 100
			},
			wantErr: types.ErrInvalidWindow,
		},
		{
			name:    "start in the past",
			mutate:  func(cfg *types.PoolConfig) { cfg.StartTime = testNow - 1 },
			wantErr: types.ErrWindowNotFuture,
		},
		{
			name:    "start exactly now",
			mutate:  func(cfg *types.PoolConfig) { cfg.StartTime = testNow },
			wantErr: types.ErrWindowNotFuture,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, bank, ctx := setupKeeper(t)

			cfg := auctionConfig()
			tt.mutate(&cfg)
			_, err := k.CreateAuctionPool(ctx, testOwner, cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			if count := k.GetPoolCount(ctx); count != 0 {
				t.Errorf("rejected creation changed pool count to %d", count)
			}
			if len(bank.pulls) != 0 {
				t.Errorf("rejected creation moved funds: %+v", bank.pulls)
			}
		})
	}
}

// TestCreateFixedPricePoolValidation tests fixed-price specific checks
func TestCreateFixedPricePoolValidation(t *testing.T) {
	k, bank, ctx := setupKeeper(t)

	cfg := fixedConfig()
	cfg.StartPrice = math.ZeroInt()
	_, err := k.CreateFixedPricePool(ctx, testOwner, cfg)
	if !errors.Is(err, types.ErrInvalidCurve) {
		t.Fatalf("expected ErrInvalidCurve for zero price, got %v", err)
	}
	if count := k.GetPoolCount(ctx); count != 0 {
		t.Errorf("rejected creation changed pool count to %d", count)
	}
	if len(bank.pulls) != 0 {
		t.Errorf("rejected creation moved funds: %+v", bank.pulls)
	}
}

// TestCreatePoolCustodyFailure tests that a failed inventory pull leaves the
// registry untouched
func TestCreatePoolCustodyFailure(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	bank.failPull = true

	_, err := k.CreateAuctionPool(ctx, testOwner, auctionConfig())
	if err == nil {
		t.Fatal("expected custody pull failure to surface")
	}
	if count := k.GetPoolCount(ctx); count != 0 {
		t.Errorf("failed creation changed pool count to %d", count)
	}
	if _, err := k.GetPool(ctx, 0); !errors.Is(err, types.ErrPoolNotFound) {
		t.Errorf("failed creation left a pool behind: %v", err)
	}
}
