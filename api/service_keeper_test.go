package api

import (
	"context"
	"encoding/hex"
	"math/big"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/api/types"
	saletypes "github.com/openalpha/launchpad/x/tokensale/types"
)

// Fixed test clock; pool windows are offsets from this.
const svcNow = int64(1700000000)

func testAddr(name string) sdk.AccAddress {
	padded := make([]byte, 20)
	copy(padded, name)
	return sdk.AccAddress(padded)
}

// newTestService builds a keeper-backed service pinned to the test clock.
func newTestService(t *testing.T) *KeeperService {
	t.Helper()

	owner := testAddr("svc-owner")
	svc, err := NewKeeperService(owner.String(), "ualpha", log.NewNopLogger())
	if err != nil {
		t.Fatalf("NewKeeperService: %v", err)
	}
	svc.nowFn = func() time.Time { return time.Unix(svcNow, 0) }
	return svc
}

// advance moves the service clock to an absolute unix time
func advance(svc *KeeperService, unix int64) {
	svc.nowFn = func() time.Time { return time.Unix(unix, 0) }
}

func createFixedPool(t *testing.T, svc *KeeperService, inventory, price string) *types.Pool {
	t.Helper()

	resp, err := svc.CreatePool(context.Background(), &types.CreatePoolRequest{
		Creator:    svc.Owner(),
		Kind:       saletypes.PoolKindFixedPrice,
		SaleDenom:  "ulaunch",
		Inventory:  inventory,
		StartPrice: price,
		StartTime:  svcNow + 3600,
		EndTime:    svcNow + 25*3600,
	})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	return resp.Pool
}

func TestKeeperServiceCreateAndListPools(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	auction, err := svc.CreatePool(ctx, &types.CreatePoolRequest{
		Creator:    svc.Owner(),
		Kind:       saletypes.PoolKindAuction,
		SaleDenom:  "ulaunch",
		Inventory:  "1000",
		StartPrice: "100",
		EndPrice:   "50",
		StartTime:  svcNow + 3600,
		EndTime:    svcNow + 25*3600,
	})
	if err != nil {
		t.Fatalf("create auction pool: %v", err)
	}
	if auction.Pool.PoolID != 0 || auction.Pool.Kind != saletypes.PoolKindAuction {
		t.Errorf("unexpected auction pool: %+v", auction.Pool)
	}

	fixed := createFixedPool(t, svc, "500", "10")
	if fixed.PoolID != 1 {
		t.Errorf("expected dense pool id 1, got %d", fixed.PoolID)
	}

	list, err := svc.ListPools(ctx, &types.ListPoolsRequest{Limit: 10})
	if err != nil {
		t.Fatalf("ListPools: %v", err)
	}
	if list.Total != 2 || len(list.Pools) != 2 {
		t.Fatalf("expected 2 pools, got total=%d len=%d", list.Total, len(list.Pools))
	}

	// Both pools open in an hour, so the schedule lists them as upcoming.
	sched, err := svc.GetSchedule(ctx, 0)
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if len(sched.Open) != 0 || len(sched.Upcoming) != 2 {
		t.Errorf("schedule open=%d upcoming=%d, want 0/2", len(sched.Open), len(sched.Upcoming))
	}
}

func TestKeeperServiceCreatePoolGuards(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreatePool(ctx, &types.CreatePoolRequest{
		Creator:    testAddr("intruder").String(),
		Kind:       saletypes.PoolKindFixedPrice,
		SaleDenom:  "ulaunch",
		Inventory:  "10",
		StartPrice: "1",
		StartTime:  svcNow + 3600,
		EndTime:    svcNow + 7200,
	}); err != saletypes.ErrNotOwner {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}

	// Past start times never create a pool.
	if _, err := svc.CreatePool(ctx, &types.CreatePoolRequest{
		Creator:    svc.Owner(),
		Kind:       saletypes.PoolKindFixedPrice,
		SaleDenom:  "ulaunch",
		Inventory:  "10",
		StartPrice: "1",
		StartTime:  svcNow - 10,
		EndTime:    svcNow + 7200,
	}); err != saletypes.ErrWindowNotFuture {
		t.Errorf("expected ErrWindowNotFuture, got %v", err)
	}

	list, _ := svc.ListPools(ctx, &types.ListPoolsRequest{})
	if list.Total != 0 {
		t.Errorf("failed creations must not grow the registry, total=%d", list.Total)
	}
}

func TestKeeperServiceBuySettlement(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	pool := createFixedPool(t, svc, "1000", "10")

	buyer := testAddr("svc-buyer")
	advance(svc, svcNow+2*3600)

	resp, err := svc.Buy(ctx, &types.BuyRequest{
		Buyer:   buyer.String(),
		PoolID:  pool.PoolID,
		Payment: "105",
	})
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if resp.Purchase.Quantity != "10" || resp.Purchase.Change != "5" {
		t.Errorf("quantity=%s change=%s, want 10/5", resp.Purchase.Quantity, resp.Purchase.Change)
	}
	if resp.Remaining != "990" {
		t.Errorf("remaining=%s, want 990", resp.Remaining)
	}

	// The purchase lands in the feed with a cursor.
	feed, err := svc.ListPurchases(ctx, &types.ListPurchasesRequest{})
	if err != nil {
		t.Fatalf("ListPurchases: %v", err)
	}
	if len(feed.Purchases) != 1 || feed.Purchases[0].Buyer != buyer.String() {
		t.Fatalf("unexpected feed contents: %+v", feed.Purchases)
	}

	// Proceeds accumulate net of change.
	proceeds, err := svc.GetProceeds(ctx)
	if err != nil {
		t.Fatalf("GetProceeds: %v", err)
	}
	if proceeds.Amount != "100" {
		t.Errorf("proceeds=%s, want 100", proceeds.Amount)
	}
}

func TestKeeperServiceBuyBeforeWindow(t *testing.T) {
	svc := newTestService(t)
	pool := createFixedPool(t, svc, "1000", "10")

	_, err := svc.Buy(context.Background(), &types.BuyRequest{
		Buyer:   testAddr("svc-buyer").String(),
		PoolID:  pool.PoolID,
		Payment: "100",
	})
	if err != saletypes.ErrWindowClosed {
		t.Errorf("expected ErrWindowClosed, got %v", err)
	}
}

// Two concurrent buys against inventory 5, each sized for the full stock:
// exactly one settles and the other fails on inventory, never both.
func TestKeeperServiceConcurrentOversell(t *testing.T) {
	svc := newTestService(t)
	pool := createFixedPool(t, svc, "5", "10")
	advance(svc, svcNow+2*3600)

	buyers := []sdk.AccAddress{testAddr("racer-a"), testAddr("racer-b")}
	errs := make([]error, len(buyers))

	var wg sync.WaitGroup
	for i, buyer := range buyers {
		wg.Add(1)
		go func(i int, buyer sdk.AccAddress) {
			defer wg.Done()
			_, errs[i] = svc.Buy(context.Background(), &types.BuyRequest{
				Buyer:   buyer.String(),
				PoolID:  pool.PoolID,
				Payment: "50", // quantity 5 at price 10
			})
		}(i, buyer)
	}
	wg.Wait()

	var successes, inventoryFailures int
	for _, err := range errs {
		switch err {
		case nil:
			successes++
		case saletypes.ErrInsufficientInventory:
			inventoryFailures++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || inventoryFailures != 1 {
		t.Fatalf("successes=%d inventoryFailures=%d, want exactly 1/1", successes, inventoryFailures)
	}

	got, err := svc.GetPool(context.Background(), pool.PoolID)
	if err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if got.Inventory != "0" {
		t.Errorf("inventory=%s after sellout, want 0", got.Inventory)
	}
}

func TestKeeperServiceAllowlistGate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	member := testAddr("vip-member")
	outsider := testAddr("outsider")
	tree := saletypes.NewAllowlistTree([]sdk.AccAddress{member, testAddr("vip-two"), testAddr("vip-three")})
	proof, ok := tree.Proof(member)
	if !ok {
		t.Fatal("expected proof for committed member")
	}
	hexProof := make([]string, len(proof))
	for i, p := range proof {
		hexProof[i] = hex.EncodeToString(p)
	}

	if _, err := svc.SetAllowlistRoot(ctx, &types.SetAllowlistRootRequest{
		Owner: svc.Owner(),
		Root:  hex.EncodeToString(tree.Root()),
	}); err != nil {
		t.Fatalf("SetAllowlistRoot: %v", err)
	}
	if _, err := svc.SetGlobalAllowlist(ctx, &types.SetGlobalAllowlistRequest{
		Owner:   svc.Owner(),
		Enabled: true,
	}); err != nil {
		t.Fatalf("SetGlobalAllowlist: %v", err)
	}

	resp, err := svc.CreatePool(ctx, &types.CreatePoolRequest{
		Creator:           svc.Owner(),
		Kind:              saletypes.PoolKindFixedPrice,
		SaleDenom:         "ulaunch",
		Inventory:         "100",
		StartPrice:        "10",
		StartTime:         svcNow + 3600,
		EndTime:           svcNow + 25*3600,
		AllowlistRequired: true,
	})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	advance(svc, svcNow+2*3600)

	if _, err := svc.Buy(ctx, &types.BuyRequest{
		Buyer:   outsider.String(),
		PoolID:  resp.Pool.PoolID,
		Payment: "10",
	}); err != saletypes.ErrNotAllowed {
		t.Errorf("outsider: expected ErrNotAllowed, got %v", err)
	}

	if _, err := svc.Buy(ctx, &types.BuyRequest{
		Buyer:   member.String(),
		PoolID:  resp.Pool.PoolID,
		Payment: "10",
		Proof:   hexProof,
	}); err != nil {
		t.Errorf("member with proof: %v", err)
	}

	check, err := svc.CheckAllowed(ctx, &types.CheckAllowedRequest{Member: member.String(), Proof: hexProof})
	if err != nil {
		t.Fatalf("CheckAllowed: %v", err)
	}
	if !check.Allowed {
		t.Error("expected committed member to verify")
	}
}

func TestKeeperServiceCloseAndWithdraw(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	pool := createFixedPool(t, svc, "100", "10")

	advance(svc, svcNow+2*3600)
	if _, err := svc.Buy(ctx, &types.BuyRequest{
		Buyer:   testAddr("svc-buyer").String(),
		PoolID:  pool.PoolID,
		Payment: "300",
	}); err != nil {
		t.Fatalf("Buy: %v", err)
	}

	closeResp, err := svc.ClosePool(ctx, &types.ClosePoolRequest{Owner: svc.Owner(), PoolID: pool.PoolID})
	if err != nil {
		t.Fatalf("ClosePool: %v", err)
	}
	if closeResp.Unsold != "70" || closeResp.Pool.Active {
		t.Errorf("unsold=%s active=%v, want 70/false", closeResp.Unsold, closeResp.Pool.Active)
	}

	// A second close is rejected and changes nothing.
	if _, err := svc.ClosePool(ctx, &types.ClosePoolRequest{Owner: svc.Owner(), PoolID: pool.PoolID}); err != saletypes.ErrAlreadyClosed {
		t.Errorf("expected ErrAlreadyClosed, got %v", err)
	}

	withdrawn, err := svc.WithdrawProceeds(ctx, &types.WithdrawProceedsRequest{Owner: svc.Owner()})
	if err != nil {
		t.Fatalf("WithdrawProceeds: %v", err)
	}
	if withdrawn.Amount != "300" {
		t.Errorf("withdrawn=%s, want 300", withdrawn.Amount)
	}
	if _, err := svc.WithdrawProceeds(ctx, &types.WithdrawProceedsRequest{Owner: svc.Owner()}); err != saletypes.ErrNoProceeds {
		t.Errorf("expected ErrNoProceeds on second withdrawal, got %v", err)
	}
}

// TestKeeperServiceBuyBeyondInt64 tests that settlement amounts above the
// int64 range flow through the metrics path without aborting the purchase.
func TestKeeperServiceBuyBeyondInt64(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// 2^70 units at price 1; quantity and spent both exceed int64.
	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	pool := createFixedPool(t, svc, huge.String(), "1")
	advance(svc, svcNow+7200)

	resp, err := svc.Buy(ctx, &types.BuyRequest{
		Buyer:   testAddr("svc-whale").String(),
		PoolID:  pool.PoolID,
		Payment: huge.String(),
	})
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if resp.Purchase.Quantity != huge.String() {
		t.Errorf("expected quantity %s, got %s", huge, resp.Purchase.Quantity)
	}
	if resp.Remaining != "0" {
		t.Errorf("expected empty inventory, got %s", resp.Remaining)
	}
}

func TestMetricValueWideRange(t *testing.T) {
	small := math.NewInt(42)
	if got := metricValue(small); got != 42 {
		t.Errorf("metricValue(42) = %v", got)
	}

	wide := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 80))
	want, _ := new(big.Float).SetInt(wide.BigInt()).Float64()
	if got := metricValue(wide); got != want {
		t.Errorf("metricValue(2^80) = %v, want %v", got, want)
	}
}
