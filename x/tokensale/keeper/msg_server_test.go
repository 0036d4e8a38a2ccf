package keeper

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/openalpha/launchpad/x/tokensale/types"
)

func auctionMsg(creator string) *types.MsgCreateAuctionPool {
	return &types.MsgCreateAuctionPool{
		Creator:    creator,
		SaleDenom:  testSaleDenom,
		Inventory:  "1000",
		StartPrice: "100",
		EndPrice:   "50",
		StartTime:  testNow + 3600,
		EndTime:    testNow + 25*3600,
	}
}

func fixedMsg(creator string) *types.MsgCreateFixedPricePool {
	return &types.MsgCreateFixedPricePool{
		Creator:   creator,
		SaleDenom: testSaleDenom,
		Inventory: "1000",
		Price:     "10",
		StartTime: testNow + 3600,
		EndTime:   testNow + 25*3600,
	}
}

// TestMsgServerCreateAuctionPool tests pool creation through the message
// server, including the owner gate
func TestMsgServerCreateAuctionPool(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	srv := NewMsgServerImpl(k)

	resp, err := srv.CreateAuctionPool(ctx, auctionMsg(testOwner.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.PoolID != 0 {
		t.Errorf("expected pool id 0, got %d", resp.PoolID)
	}

	// Anyone who is not the owner is rejected before validation side effects.
	_, err = srv.CreateAuctionPool(ctx, auctionMsg(testBuyer.String()))
	if !errors.Is(err, types.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if count := k.GetPoolCount(ctx); count != 1 {
		t.Errorf("rejected creation changed pool count to %d", count)
	}

	// Malformed numeric fields are caught by stateless validation.
	bad := auctionMsg(testOwner.String())
	bad.Inventory = "not-a-number"
	if _, err := srv.CreateAuctionPool(ctx, bad); !errors.Is(err, types.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

// TestMsgServerBuyFlow tests an end-to-end purchase through messages
func TestMsgServerBuyFlow(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	srv := NewMsgServerImpl(k)

	created, err := srv.CreateFixedPricePool(ctx, fixedMsg(testOwner.String()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	open := atTime(ctx, testNow+3600)
	resp, err := srv.Buy(open, &types.MsgBuy{
		Buyer:   testBuyer.String(),
		PoolID:  created.PoolID,
		Payment: "105",
	})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if resp.Quantity != "10" || resp.UnitPrice != "10" || resp.Change != "5" {
		t.Errorf("settled %s units at %s with change %s, want 10/10/5", resp.Quantity, resp.UnitPrice, resp.Change)
	}

	// Buyers are not owner-gated.
	if _, err := srv.Buy(open, &types.MsgBuy{Buyer: testAddr("random").String(), PoolID: created.PoolID, Payment: "10"}); err != nil {
		t.Errorf("non-owner buy rejected: %v", err)
	}
}

// TestMsgServerBuyWithProof tests hex proof decoding through the message path
func TestMsgServerBuyWithProof(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	srv := NewMsgServerImpl(k)

	msg := fixedMsg(testOwner.String())
	msg.AllowlistRequired = true
	created, err := srv.CreateFixedPricePool(ctx, msg)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tree := types.NewAllowlistTree(addrList("buyer", "friend", "vip"))
	if _, err := srv.SetAllowlistRoot(ctx, &types.MsgSetAllowlistRoot{
		Authority: testOwner.String(),
		Root:      hex.EncodeToString(tree.Root()),
	}); err != nil {
		t.Fatalf("set root: %v", err)
	}
	if _, err := srv.ToggleGlobalAllowlist(ctx, &types.MsgToggleGlobalAllowlist{
		Authority: testOwner.String(),
		Enabled:   true,
	}); err != nil {
		t.Fatalf("toggle global: %v", err)
	}

	proof, ok := tree.Proof(testBuyer)
	if !ok {
		t.Fatal("expected proof for committed member")
	}
	hexProof := make([]string, len(proof))
	for i, node := range proof {
		hexProof[i] = hex.EncodeToString(node)
	}

	open := atTime(ctx, testNow+3600)
	if _, err := srv.Buy(open, &types.MsgBuy{
		Buyer:   testBuyer.String(),
		PoolID:  created.PoolID,
		Payment: "10",
		Proof:   hexProof,
	}); err != nil {
		t.Fatalf("buy with proof: %v", err)
	}

	// Garbage proof encoding is rejected as not allowed.
	if _, err := srv.Buy(open, &types.MsgBuy{
		Buyer:   testBuyer.String(),
		PoolID:  created.PoolID,
		Payment: "10",
		Proof:   []string{"zzzz"},
	}); !errors.Is(err, types.ErrNotAllowed) {
		t.Errorf("expected ErrNotAllowed for malformed proof, got %v", err)
	}
}

// TestMsgServerAdminAuthority tests that every admin message rejects callers
// other than the configured authority
func TestMsgServerAdminAuthority(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	srv := NewMsgServerImpl(k)

	if _, err := srv.CreateFixedPricePool(ctx, fixedMsg(testOwner.String())); err != nil {
		t.Fatalf("create: %v", err)
	}
	intruder := testBuyer.String()

	tests := []struct {
		name string
		call func() error
	}{
		{"close pool", func() error {
			_, err := srv.ClosePool(ctx, &types.MsgClosePool{Authority: intruder, PoolID: 0})
			return err
		}},
		{"set allowlist root", func() error {
			_, err := srv.SetAllowlistRoot(ctx, &types.MsgSetAllowlistRoot{Authority: intruder, Root: "ab"})
			return err
		}},
		{"toggle global allowlist", func() error {
			_, err := srv.ToggleGlobalAllowlist(ctx, &types.MsgToggleGlobalAllowlist{Authority: intruder, Enabled: true})
			return err
		}},
		{"toggle pool allowlist", func() error {
			_, err := srv.TogglePoolAllowlist(ctx, &types.MsgTogglePoolAllowlist{Authority: intruder, PoolID: 0, Enabled: true})
			return err
		}},
		{"withdraw proceeds", func() error {
			_, err := srv.WithdrawProceeds(ctx, &types.MsgWithdrawProceeds{Authority: intruder})
			return err
		}},
		{"create fixed pool", func() error {
			_, err := srv.CreateFixedPricePool(ctx, fixedMsg(intruder))
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, types.ErrNotOwner) {
				t.Errorf("expected ErrNotOwner, got %v", err)
			}
		})
	}

	// The pool is untouched by the rejected calls.
	pool, err := k.GetPool(ctx, 0)
	if err != nil {
		t.Fatalf("GetPool: %v", err)
	}
	if !pool.Active || pool.AllowlistRequired {
		t.Errorf("rejected admin calls mutated pool: %+v", pool)
	}
}

// TestMsgServerClosePool tests the close flow and swept amount reporting
func TestMsgServerClosePool(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	srv := NewMsgServerImpl(k)

	created, err := srv.CreateFixedPricePool(ctx, fixedMsg(testOwner.String()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := srv.ClosePool(ctx, &types.MsgClosePool{Authority: testOwner.String(), PoolID: created.PoolID})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if resp.Swept != "1000" {
		t.Errorf("expected swept 1000, got %s", resp.Swept)
	}

	if _, err := srv.ClosePool(ctx, &types.MsgClosePool{Authority: testOwner.String(), PoolID: created.PoolID}); !errors.Is(err, types.ErrAlreadyClosed) {
		t.Errorf("expected ErrAlreadyClosed, got %v", err)
	}
}

// TestMsgServerWithdrawProceeds tests the proceeds payout message
func TestMsgServerWithdrawProceeds(t *testing.T) {
	k, _, ctx := setupKeeper(t)
	srv := NewMsgServerImpl(k)

	created, err := srv.CreateFixedPricePool(ctx, fixedMsg(testOwner.String()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	open := atTime(ctx, testNow+3600)
	if _, err := srv.Buy(open, &types.MsgBuy{Buyer: testBuyer.String(), PoolID: created.PoolID, Payment: "250"}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	resp, err := srv.WithdrawProceeds(ctx, &types.MsgWithdrawProceeds{Authority: testOwner.String()})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if resp.Amount != "250" {
		t.Errorf("expected amount 250, got %s", resp.Amount)
	}
	if !k.GetProceeds(ctx).IsZero() {
		t.Errorf("accumulator not drained: %s", k.GetProceeds(ctx))
	}
}
