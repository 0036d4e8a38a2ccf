package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/launchpad/x/tokensale/types"
)

// IsAllowed reports whether a buyer clears the global allowlist. With the
// global flag off every identity is allowed regardless of proof contents;
// the bypass is the opt-in contract, not a shortcut.
func (k *Keeper) IsAllowed(ctx sdk.Context, member sdk.AccAddress, proof [][]byte) bool {
	if !k.GlobalAllowlistEnabled(ctx) {
		return true
	}
	root := k.GetAllowlistRoot(ctx)
	return types.VerifyAllowlistProof(root, types.AllowlistLeaf(member), proof)
}

// allowlistGateApplies reports whether a pool's purchases are gated. The gate
// needs both the global flag and the pool flag on.
func (k *Keeper) allowlistGateApplies(ctx sdk.Context, pool *types.Pool) bool {
	return pool.AllowlistRequired && k.GlobalAllowlistEnabled(ctx)
}
