package keeper

import (
	"context"
	"encoding/hex"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/launchpad/x/tokensale/types"
)

var _ types.MsgServer = (*msgServer)(nil)

type msgServer struct {
	Keeper *Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper *Keeper) types.MsgServer {
	return &msgServer{Keeper: keeper}
}

// CreateAuctionPool handles MsgCreateAuctionPool
func (m *msgServer) CreateAuctionPool(ctx context.Context, msg *types.MsgCreateAuctionPool) (*types.MsgCreatePoolResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if msg.Creator != m.Keeper.GetAuthority() {
		return nil, types.ErrNotOwner
	}
	creator, err := sdk.AccAddressFromBech32(msg.Creator)
	if err != nil {
		return nil, err
	}

	cfg, err := poolConfigFromMsg(msg.SaleDenom, msg.Inventory, msg.StartPrice, msg.EndPrice, msg.StartTime, msg.EndTime, msg.AllowlistRequired)
	if err != nil {
		return nil, err
	}

	pool, err := m.Keeper.CreateAuctionPool(sdkCtx, creator, cfg)
	if err != nil {
		return nil, err
	}
	return &types.MsgCreatePoolResponse{PoolID: pool.PoolID}, nil
}

// CreateFixedPricePool handles MsgCreateFixedPricePool
func (m *msgServer) CreateFixedPricePool(ctx context.Context, msg *types.MsgCreateFixedPricePool) (*types.MsgCreatePoolResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if msg.Creator != m.Keeper.GetAuthority() {
		return nil, types.ErrNotOwner
	}
	creator, err := sdk.AccAddressFromBech32(msg.Creator)
	if err != nil {
		return nil, err
	}

	cfg, err := poolConfigFromMsg(msg.SaleDenom, msg.Inventory, msg.Price, msg.Price, msg.StartTime, msg.EndTime, msg.AllowlistRequired)
	if err != nil {
		return nil, err
	}

	pool, err := m.Keeper.CreateFixedPricePool(sdkCtx, creator, cfg)
	if err != nil {
		return nil, err
	}
	return &types.MsgCreatePoolResponse{PoolID: pool.PoolID}, nil
}

// Buy handles MsgBuy
func (m *msgServer) Buy(ctx context.Context, msg *types.MsgBuy) (*types.MsgBuyResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	buyer, err := sdk.AccAddressFromBech32(msg.Buyer)
	if err != nil {
		return nil, err
	}
	payment, ok := math.NewIntFromString(msg.Payment)
	if !ok {
		return nil, types.ErrInvalidPayment
	}
	proof, err := types.DecodeProof(msg.Proof)
	if err != nil {
		return nil, types.ErrNotAllowed
	}

	receipt, err := m.Keeper.Buy(sdkCtx, buyer, msg.PoolID, payment, proof)
	if err != nil {
		return nil, err
	}
	return &types.MsgBuyResponse{
		Quantity:  receipt.Quantity.String(),
		UnitPrice: receipt.UnitPrice.String(),
		Change:    receipt.Change.String(),
	}, nil
}

// ClosePool handles MsgClosePool
func (m *msgServer) ClosePool(ctx context.Context, msg *types.MsgClosePool) (*types.MsgClosePoolResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if msg.Authority != m.Keeper.GetAuthority() {
		return nil, types.ErrNotOwner
	}

	swept, err := m.Keeper.ClosePool(sdkCtx, msg.PoolID)
	if err != nil {
		return nil, err
	}
	return &types.MsgClosePoolResponse{Swept: swept.String()}, nil
}

// SetAllowlistRoot handles MsgSetAllowlistRoot
func (m *msgServer) SetAllowlistRoot(ctx context.Context, msg *types.MsgSetAllowlistRoot) (*types.MsgSetAllowlistRootResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if msg.Authority != m.Keeper.GetAuthority() {
		return nil, types.ErrNotOwner
	}

	root, err := hex.DecodeString(msg.Root)
	if err != nil {
		return nil, err
	}
	m.Keeper.SetAllowlistRoot(sdkCtx, root)
	return &types.MsgSetAllowlistRootResponse{}, nil
}

// ToggleGlobalAllowlist handles MsgToggleGlobalAllowlist
func (m *msgServer) ToggleGlobalAllowlist(ctx context.Context, msg *types.MsgToggleGlobalAllowlist) (*types.MsgToggleAllowlistResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if msg.Authority != m.Keeper.GetAuthority() {
		return nil, types.ErrNotOwner
	}

	m.Keeper.SetGlobalAllowlist(sdkCtx, msg.Enabled)
	return &types.MsgToggleAllowlistResponse{Enabled: msg.Enabled}, nil
}

// TogglePoolAllowlist handles MsgTogglePoolAllowlist
func (m *msgServer) TogglePoolAllowlist(ctx context.Context, msg *types.MsgTogglePoolAllowlist) (*types.MsgToggleAllowlistResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if msg.Authority != m.Keeper.GetAuthority() {
		return nil, types.ErrNotOwner
	}

	if err := m.Keeper.SetPoolAllowlist(sdkCtx, msg.PoolID, msg.Enabled); err != nil {
		return nil, err
	}
	return &types.MsgToggleAllowlistResponse{Enabled: msg.Enabled}, nil
}

// WithdrawProceeds handles MsgWithdrawProceeds
func (m *msgServer) WithdrawProceeds(ctx context.Context, msg *types.MsgWithdrawProceeds) (*types.MsgWithdrawProceedsResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	if msg.Authority != m.Keeper.GetAuthority() {
		return nil, types.ErrNotOwner
	}

	amount, err := m.Keeper.WithdrawProceeds(sdkCtx)
	if err != nil {
		return nil, err
	}
	return &types.MsgWithdrawProceedsResponse{Amount: amount.String()}, nil
}

func poolConfigFromMsg(saleDenom, inventory, startPrice, endPrice string, startTime, endTime int64, allowlistRequired bool) (types.PoolConfig, error) {
	inv, ok := math.NewIntFromString(inventory)
	if !ok {
		return types.PoolConfig{}, types.ErrInvalidAmount
	}
	start, ok := math.NewIntFromString(startPrice)
	if !ok {
		return types.PoolConfig{}, types.ErrInvalidCurve
	}
	end, ok := math.NewIntFromString(endPrice)
	if !ok {
		return types.PoolConfig{}, types.ErrInvalidCurve
	}
	return types.PoolConfig{
		SaleDenom:         saleDenom,
		Inventory:         inv,
		StartPrice:        start,
		EndPrice:          end,
		StartTime:         startTime,
		EndTime:           endTime,
		AllowlistRequired: allowlistRequired,
	}, nil
}
