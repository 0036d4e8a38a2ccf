package keeper

import (
	"context"
	"encoding/hex"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/launchpad/x/tokensale/types"
)

// QueryServer defines the tokensale QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// PoolCount returns the number of pools ever created
func (q *QueryServer) PoolCount(ctx context.Context) (uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetPoolCount(sdkCtx), nil
}

// Pool returns a pool by id
func (q *QueryServer) Pool(ctx context.Context, poolID uint64) (*types.Pool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetPool(sdkCtx, poolID)
}

// Pools returns all pools with offset/limit pagination
func (q *QueryServer) Pools(ctx context.Context, offset, limit uint64) ([]types.Pool, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	allPools := q.keeper.GetPools(sdkCtx)

	total := uint64(len(allPools))

	if offset >= total {
		return []types.Pool{}, total, nil
	}

	// limit can be the full uint64 range, so offset+limit may wrap.
	end := total
	if limit != 0 && limit < total-offset {
		end = offset + limit
	}

	return allPools[offset:end], total, nil
}

// CurrentPrice returns the decaying unit price of an auction pool at block
// time
func (q *QueryServer) CurrentPrice(ctx context.Context, poolID uint64) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.CurrentPrice(sdkCtx, poolID)
}

// IsAllowed verifies an identity against the committed allowlist root
func (q *QueryServer) IsAllowed(ctx context.Context, member string, proof []string) (bool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	addr, err := sdk.AccAddressFromBech32(member)
	if err != nil {
		return false, err
	}
	rawProof, err := types.DecodeProof(proof)
	if err != nil {
		return false, err
	}
	return q.keeper.IsAllowed(sdkCtx, addr, rawProof), nil
}

// AllowlistState returns the global allowlist flag and committed root
func (q *QueryServer) AllowlistState(ctx context.Context) (*types.AllowlistState, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return &types.AllowlistState{
		Enabled: q.keeper.GlobalAllowlistEnabled(sdkCtx),
		Root:    hex.EncodeToString(q.keeper.GetAllowlistRoot(sdkCtx)),
	}, nil
}

// Proceeds returns the accumulated, not yet withdrawn sale proceeds
func (q *QueryServer) Proceeds(ctx context.Context) (math.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetProceeds(sdkCtx), nil
}
