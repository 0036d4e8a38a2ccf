package keeper

import (
	"encoding/hex"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/launchpad/x/tokensale/types"
)

// ClosePool deactivates a pool and sweeps any unsold inventory back to the
// owner. The flag flip and the sweep commit together; if the sweep transfer
// fails the pool stays active so the close can be retried.
func (k *Keeper) ClosePool(ctx sdk.Context, poolID uint64) (math.Int, error) {
	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return math.ZeroInt(), err
	}
	if !pool.Active {
		return math.ZeroInt(), types.ErrAlreadyClosed
	}

	swept := pool.Inventory

	cacheCtx, write := ctx.CacheContext()

	pool.Active = false
	pool.Inventory = math.ZeroInt()
	k.SetPool(cacheCtx, pool)

	if swept.IsPositive() {
		owner, err := sdk.AccAddressFromBech32(k.authority)
		if err != nil {
			return math.ZeroInt(), err
		}
		remainder := sdk.NewCoins(sdk.NewCoin(pool.SaleDenom, swept))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(cacheCtx, types.ModuleName, owner, remainder); err != nil {
			return math.ZeroInt(), err
		}
	}
	write()

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"pool_closed",
			sdk.NewAttribute("pool_id", strconv.FormatUint(poolID, 10)),
			sdk.NewAttribute("swept", swept.String()),
		),
	)

	k.Logger().Info("pool closed",
		"pool_id", poolID,
		"swept", swept.String(),
	)

	return swept, nil
}

// SetAllowlistRoot replaces the global membership commitment. The root is
// opaque here; only the verifier interprets it.
func (k *Keeper) SetAllowlistRoot(ctx sdk.Context, root []byte) {
	k.setAllowlistRoot(ctx, root)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"allowlist_root_updated",
			sdk.NewAttribute("root", hex.EncodeToString(root)),
		),
	)

	k.Logger().Info("allowlist root updated", "root", hex.EncodeToString(root))
}

// SetGlobalAllowlist flips the global allowlist flag.
func (k *Keeper) SetGlobalAllowlist(ctx sdk.Context, enabled bool) {
	k.setGlobalAllowlistEnabled(ctx, enabled)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"global_allowlist_toggled",
			sdk.NewAttribute("enabled", strconv.FormatBool(enabled)),
		),
	)

	k.Logger().Info("global allowlist toggled", "enabled", enabled)
}

// SetPoolAllowlist flips one pool's allowlist flag.
func (k *Keeper) SetPoolAllowlist(ctx sdk.Context, poolID uint64, enabled bool) error {
	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	pool.AllowlistRequired = enabled
	k.SetPool(ctx, pool)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"pool_allowlist_toggled",
			sdk.NewAttribute("pool_id", strconv.FormatUint(poolID, 10)),
			sdk.NewAttribute("enabled", strconv.FormatBool(enabled)),
		),
	)

	k.Logger().Info("pool allowlist toggled", "pool_id", poolID, "enabled", enabled)
	return nil
}

// WithdrawProceeds sends the accumulated sale proceeds to the owner and
// resets the accumulator. The reset and the transfer commit together.
func (k *Keeper) WithdrawProceeds(ctx sdk.Context) (math.Int, error) {
	amount := k.GetProceeds(ctx)
	if !amount.IsPositive() {
		return math.ZeroInt(), types.ErrNoProceeds
	}
	owner, err := sdk.AccAddressFromBech32(k.authority)
	if err != nil {
		return math.ZeroInt(), err
	}

	cacheCtx, write := ctx.CacheContext()
	k.setProceeds(cacheCtx, math.ZeroInt())
	proceeds := sdk.NewCoins(sdk.NewCoin(k.paymentDenom, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(cacheCtx, types.ModuleName, owner, proceeds); err != nil {
		return math.ZeroInt(), err
	}
	write()

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"proceeds_withdrawn",
			sdk.NewAttribute("recipient", k.authority),
			sdk.NewAttribute("amount", amount.String()),
		),
	)

	k.Logger().Info("proceeds withdrawn", "recipient", k.authority, "amount", amount.String())
	return amount, nil
}
