package keeper

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/x/tokensale/types"
)

// openFixedPool creates a fixed-price pool (price 10, inventory 1000) and
// returns a context inside its sale window.
func openFixedPool(t *testing.T, k *Keeper, ctx sdk.Context) (uint64, sdk.Context) {
	t.Helper()
	pool, err := k.CreateFixedPricePool(ctx, testOwner, fixedConfig())
	if err != nil {
		t.Fatalf("unexpected error creating pool: %v", err)
	}
	return pool.PoolID, atTime(ctx, pool.StartTime)
}

// TestBuyFixedPriceWithChange tests unit conversion and change refund:
// price 10 and payment 105 settle as 10 units with 5 change.
func TestBuyFixedPriceWithChange(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	poolID, ctx := openFixedPool(t, k, ctx)

	receipt, err := k.Buy(ctx, testBuyer, poolID, math.NewInt(105), nil)
	if err != nil {
		t.Fatalf("unexpected error buying: %v", err)
	}

	if !receipt.Quantity.Equal(math.NewInt(10)) {
		t.Errorf("expected quantity 10, got %s", receipt.Quantity)
	}
	if !receipt.UnitPrice.Equal(math.NewInt(10)) {
		t.Errorf("expected unit price 10, got %s", receipt.UnitPrice)
	}
	if !receipt.Change.Equal(math.NewInt(5)) {
		t.Errorf("expected change 5, got %s", receipt.Change)
	}

	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if !pool.Inventory.Equal(math.NewInt(990)) {
		t.Errorf("expected inventory 990, got %s", pool.Inventory)
	}
	if got := k.GetProceeds(ctx); !got.Equal(math.NewInt(100)) {
		t.Errorf("expected proceeds 100, got %s", got)
	}

	// One payment pull, one delivery, one change refund.
	if len(bank.pulls) != 2 { // creation custody + payment
		t.Fatalf("expected 2 pulls, got %d", len(bank.pulls))
	}
	payment := bank.pulls[1]
	if got := payment.amount.AmountOf(testPaymentDenom); !got.Equal(math.NewInt(105)) {
		t.Errorf("expected full payment 105 captured, got %s", got)
	}
	if len(bank.sends) != 2 {
		t.Fatalf("expected delivery and refund sends, got %d", len(bank.sends))
	}
	if got := bank.sends[0].amount.AmountOf(testSaleDenom); !got.Equal(math.NewInt(10)) {
		t.Errorf("expected 10%s delivered, got %s", testSaleDenom, got)
	}
	if got := bank.sends[1].amount.AmountOf(testPaymentDenom); !got.Equal(math.NewInt(5)) {
		t.Errorf("expected 5%s refunded, got %s", testPaymentDenom, got)
	}
}

// TestBuyExactPaymentSkipsRefund tests that no refund transfer happens when
// the payment is an exact multiple of the unit price
func TestBuyExactPaymentSkipsRefund(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	poolID, ctx := openFixedPool(t, k, ctx)

	receipt, err := k.Buy(ctx, testBuyer, poolID, math.NewInt(100), nil)
	if err != nil {
		t.Fatalf("unexpected error buying: %v", err)
	}
	if !receipt.Change.IsZero() {
		t.Errorf("expected zero change, got %s", receipt.Change)
	}
	if len(bank.sends) != 1 {
		t.Errorf("expected delivery only, got %d sends", len(bank.sends))
	}
}

// TestBuyPaymentIdentity tests quantity*unitPrice+change == payment across a
// spread of payments
func TestBuyPaymentIdentity(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	poolID, ctx := openFixedPool(t, k, ctx)

	for _, payment := range []int64{10, 11, 19, 105, 999, 1234} {
		receipt, err := k.Buy(ctx, testBuyer, poolID, math.NewInt(payment), nil)
		if err != nil {
			t.Fatalf("payment %d: %v", payment, err)
		}
		settled := receipt.Quantity.Mul(receipt.UnitPrice).Add(receipt.Change)
		if !settled.Equal(math.NewInt(payment)) {
			t.Errorf("payment %d: quantity*price+change = %s", payment, settled)
		}
		if receipt.Change.IsNegative() || receipt.Change.GTE(receipt.UnitPrice) {
			t.Errorf("payment %d: change %s out of [0, %s)", payment, receipt.Change, receipt.UnitPrice)
		}
	}
}

// TestBuyAtDecayedPrice tests settlement against the interpolated auction
// price at the window midpoint
func TestBuyAtDecayedPrice(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	pool, err := k.CreateAuctionPool(ctx, testOwner, auctionConfig())
	if err != nil {
		t.Fatalf("unexpected error creating pool: %v", err)
	}

	// 100 -> 50 over [start, start+24h]; halfway the price is exactly 75.
	mid := pool.StartTime + (pool.EndTime-pool.StartTime)/2
	receipt, err := k.Buy(atTime(ctx, mid), testBuyer, pool.PoolID, math.NewInt(160), nil)
	if err != nil {
		t.Fatalf("unexpected error buying: %v", err)
	}
	if !receipt.UnitPrice.Equal(math.NewInt(75)) {
		t.Errorf("expected midpoint price 75, got %s", receipt.UnitPrice)
	}
	if !receipt.Quantity.Equal(math.NewInt(2)) {
		t.Errorf("expected quantity 2, got %s", receipt.Quantity)
	}
	if !receipt.Change.Equal(math.NewInt(10)) {
		t.Errorf("expected change 10, got %s", receipt.Change)
	}
}

// TestBuySequentialDrainsInventory tests that sequential buys decrement
// inventory by the sum of quantities and never oversell
func TestBuySequentialDrainsInventory(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	cfg := fixedConfig()
	cfg.Inventory = math.NewInt(25)
	pool, err := k.CreateFixedPricePool(ctx, testOwner, cfg)
	if err != nil {
		t.Fatalf("unexpected error creating pool: %v", err)
	}
	ctx = atTime(ctx, pool.StartTime)

	sold := math.ZeroInt()
	for i := 0; i < 2; i++ {
		receipt, err := k.Buy(ctx, testBuyer, pool.PoolID, math.NewInt(100), nil)
		if err != nil {
			t.Fatalf("buy %d: %v", i, err)
		}
		sold = sold.Add(receipt.Quantity)
	}

	got, err := k.GetPool(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if !got.Inventory.Equal(math.NewInt(25).Sub(sold)) {
		t.Errorf("inventory %s does not match 25 - %s", got.Inventory, sold)
	}

	// 5 units left; a third full request must fail without touching state.
	_, err = k.Buy(ctx, testBuyer, pool.PoolID, math.NewInt(100), nil)
	if !errors.Is(err, types.ErrInsufficientInventory) {
		t.Fatalf("expected ErrInsufficientInventory, got %v", err)
	}
	after, _ := k.GetPool(ctx, pool.PoolID)
	if !after.Inventory.Equal(got.Inventory) {
		t.Errorf("failed buy changed inventory: %s -> %s", got.Inventory, after.Inventory)
	}

	// The remainder can still be bought exactly.
	receipt, err := k.Buy(ctx, testBuyer, pool.PoolID, math.NewInt(50), nil)
	if err != nil {
		t.Fatalf("final buy: %v", err)
	}
	if !receipt.Quantity.Equal(math.NewInt(5)) {
		t.Errorf("expected final quantity 5, got %s", receipt.Quantity)
	}
	drained, _ := k.GetPool(ctx, pool.PoolID)
	if !drained.Inventory.IsZero() {
		t.Errorf("expected empty inventory, got %s", drained.Inventory)
	}
}

// TestBuyErrorOrdering tests the settlement state machine legs in order
func TestBuyErrorOrdering(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	// Unknown id.
	if _, err := k.Buy(ctx, testBuyer, 42, math.NewInt(100), nil); !errors.Is(err, types.ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}

	pool, err := k.CreateFixedPricePool(ctx, testOwner, fixedConfig())
	if err != nil {
		t.Fatalf("unexpected error creating pool: %v", err)
	}

	// Before the window opens.
	if _, err := k.Buy(ctx, testBuyer, pool.PoolID, math.NewInt(100), nil); !errors.Is(err, types.ErrWindowClosed) {
		t.Errorf("expected ErrWindowClosed before start, got %v", err)
	}

	// Boundaries are inclusive.
	if _, err := k.Buy(atTime(ctx, pool.StartTime), testBuyer, pool.PoolID, math.NewInt(10), nil); err != nil {
		t.Errorf("buy at start time: %v", err)
	}
	if _, err := k.Buy(atTime(ctx, pool.EndTime), testBuyer, pool.PoolID, math.NewInt(10), nil); err != nil {
		t.Errorf("buy at end time: %v", err)
	}

	// After the window.
	if _, err := k.Buy(atTime(ctx, pool.EndTime+1), testBuyer, pool.PoolID, math.NewInt(100), nil); !errors.Is(err, types.ErrWindowClosed) {
		t.Errorf("expected ErrWindowClosed after end, got %v", err)
	}

	// Payment below one unit, then zero payment: both insufficient.
	open := atTime(ctx, pool.StartTime)
	if _, err := k.Buy(open, testBuyer, pool.PoolID, math.NewInt(9), nil); !errors.Is(err, types.ErrInsufficientPayment) {
		t.Errorf("expected ErrInsufficientPayment for payment 9, got %v", err)
	}
	if _, err := k.Buy(open, testBuyer, pool.PoolID, math.ZeroInt(), nil); !errors.Is(err, types.ErrInsufficientPayment) {
		t.Errorf("expected ErrInsufficientPayment for payment 0, got %v", err)
	}

	// Request above inventory.
	if _, err := k.Buy(open, testBuyer, pool.PoolID, math.NewInt(10_010), nil); !errors.Is(err, types.ErrInsufficientInventory) {
		t.Errorf("expected ErrInsufficientInventory, got %v", err)
	}

	// A closed pool reports inactive before any window check.
	if _, err := k.ClosePool(ctx, pool.PoolID); err != nil {
		t.Fatalf("ClosePool: %v", err)
	}
	if _, err := k.Buy(atTime(ctx, pool.EndTime+1), testBuyer, pool.PoolID, math.NewInt(100), nil); !errors.Is(err, types.ErrPoolInactive) {
		t.Errorf("expected ErrPoolInactive, got %v", err)
	}
}

// TestBuyAllowlistGate tests that the gate applies only when both the global
// flag and the pool flag are set, and that proofs are verified against the
// committed root
func TestBuyAllowlistGate(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	cfg := fixedConfig()
	cfg.AllowlistRequired = true
	pool, err := k.CreateFixedPricePool(ctx, testOwner, cfg)
	if err != nil {
		t.Fatalf("unexpected error creating pool: %v", err)
	}

	tree := types.NewAllowlistTree([]sdk.AccAddress{testBuyer, testAddr("friend"), testAddr("vip")})
	k.SetAllowlistRoot(ctx, tree.Root())

	open := atTime(ctx, pool.StartTime)

	// Global flag off: gate skipped even with the pool flag set.
	if _, err := k.Buy(open, testAddr("stranger"), pool.PoolID, math.NewInt(10), nil); err != nil {
		t.Errorf("gate applied with global flag off: %v", err)
	}

	k.SetGlobalAllowlist(ctx, true)

	// Both flags on: a proofless stranger is rejected.
	if _, err := k.Buy(open, testAddr("stranger"), pool.PoolID, math.NewInt(10), nil); !errors.Is(err, types.ErrNotAllowed) {
		t.Errorf("expected ErrNotAllowed, got %v", err)
	}

	// A committed member with a valid proof passes.
	proof, ok := tree.Proof(testBuyer)
	if !ok {
		t.Fatal("expected proof for committed member")
	}
	if _, err := k.Buy(open, testBuyer, pool.PoolID, math.NewInt(10), proof); err != nil {
		t.Errorf("member with valid proof rejected: %v", err)
	}

	// A member presenting someone else's proof is rejected.
	otherProof, _ := tree.Proof(testAddr("vip"))
	if _, err := k.Buy(open, testAddr("stranger"), pool.PoolID, math.NewInt(10), otherProof); !errors.Is(err, types.ErrNotAllowed) {
		t.Errorf("expected ErrNotAllowed for borrowed proof, got %v", err)
	}

	// Pool flag off: gate skipped even with the global flag on.
	if err := k.SetPoolAllowlist(ctx, pool.PoolID, false); err != nil {
		t.Fatalf("SetPoolAllowlist: %v", err)
	}
	if _, err := k.Buy(open, testAddr("stranger"), pool.PoolID, math.NewInt(10), nil); err != nil {
		t.Errorf("gate applied with pool flag off: %v", err)
	}
}

// TestBuyRollbackOnDeliveryFailure tests that a failed delivery rolls back
// the inventory decrement, the payment capture and the proceeds accumulator
func TestBuyRollbackOnDeliveryFailure(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	poolID, ctx := openFixedPool(t, k, ctx)

	bank.failSendAt = 1 // delivery is the first module-to-account send
	if _, err := k.Buy(ctx, testBuyer, poolID, math.NewInt(105), nil); err == nil {
		t.Fatal("expected delivery failure to surface")
	}

	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if !pool.Inventory.Equal(math.NewInt(1000)) {
		t.Errorf("inventory decrement survived rollback: %s", pool.Inventory)
	}
	if !k.GetProceeds(ctx).IsZero() {
		t.Errorf("proceeds survived rollback: %s", k.GetProceeds(ctx))
	}

	// The pool is untouched; the same purchase succeeds once the ledger
	// recovers.
	bank.failSendAt = 0
	receipt, err := k.Buy(ctx, testBuyer, poolID, math.NewInt(105), nil)
	if err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	if !receipt.Quantity.Equal(math.NewInt(10)) {
		t.Errorf("expected quantity 10, got %s", receipt.Quantity)
	}
}

// TestBuyRollbackOnRefundFailure tests rollback when the change refund is the
// failing transfer
func TestBuyRollbackOnRefundFailure(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	poolID, ctx := openFixedPool(t, k, ctx)

	bank.failSendAt = 2 // delivery succeeds, refund fails
	if _, err := k.Buy(ctx, testBuyer, poolID, math.NewInt(105), nil); err == nil {
		t.Fatal("expected refund failure to surface")
	}

	pool, _ := k.GetPool(ctx, poolID)
	if !pool.Inventory.Equal(math.NewInt(1000)) {
		t.Errorf("inventory decrement survived rollback: %s", pool.Inventory)
	}
	if !k.GetProceeds(ctx).IsZero() {
		t.Errorf("proceeds survived rollback: %s", k.GetProceeds(ctx))
	}
}

// TestBuyRollbackOnCaptureFailure tests rollback when the payment pull fails
func TestBuyRollbackOnCaptureFailure(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	poolID, ctx := openFixedPool(t, k, ctx)

	bank.failPull = true
	if _, err := k.Buy(ctx, testBuyer, poolID, math.NewInt(105), nil); err == nil {
		t.Fatal("expected capture failure to surface")
	}
	bank.failPull = false

	pool, _ := k.GetPool(ctx, poolID)
	if !pool.Inventory.Equal(math.NewInt(1000)) {
		t.Errorf("inventory decrement survived rollback: %s", pool.Inventory)
	}
	if len(bank.sends) != 0 {
		t.Errorf("transfers happened despite capture failure: %+v", bank.sends)
	}
}

// TestBuyZeroFloorPriceRejected tests that an auction decaying to zero cannot
// settle at its final zero price
func TestBuyZeroFloorPriceRejected(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	cfg := auctionConfig()
	cfg.EndPrice = math.ZeroInt()
	pool, err := k.CreateAuctionPool(ctx, testOwner, cfg)
	if err != nil {
		t.Fatalf("unexpected error creating pool: %v", err)
	}

	// Price hits zero only at the exact window end.
	if _, err := k.Buy(atTime(ctx, pool.EndTime), testBuyer, pool.PoolID, math.NewInt(100), nil); !errors.Is(err, types.ErrInvalidCurve) {
		t.Errorf("expected ErrInvalidCurve at zero price, got %v", err)
	}

	// One second earlier the price is still positive and the buy settles.
	if _, err := k.Buy(atTime(ctx, pool.EndTime-1), testBuyer, pool.PoolID, math.NewInt(100), nil); err != nil {
		t.Errorf("buy just before zero floor: %v", err)
	}
}
