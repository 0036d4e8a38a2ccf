package keeper

import (
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/launchpad/x/tokensale/types"
)

// Buy settles a purchase against a pool: it prices the pool at block time,
// converts the payment into whole units plus change, debits inventory, pulls
// the payment into custody, delivers the units and refunds the change. The
// ledger movements and the inventory decrement commit together or not at
// all; on any transfer failure the pool state, the proceeds accumulator and
// the buyer's coins are all left exactly as they were.
func (k *Keeper) Buy(ctx sdk.Context, buyer sdk.AccAddress, poolID uint64, payment math.Int, proof [][]byte) (*types.PurchaseReceipt, error) {
	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if !pool.Active {
		return nil, types.ErrPoolInactive
	}

	now := ctx.BlockTime().Unix()
	if !pool.IsOpenAt(now) {
		return nil, types.ErrWindowClosed
	}

	if k.allowlistGateApplies(ctx, pool) && !k.IsAllowed(ctx, buyer, proof) {
		return nil, types.ErrNotAllowed
	}

	if payment.IsNil() || payment.IsNegative() {
		return nil, types.ErrInvalidPayment
	}

	unitPrice, err := pool.UnitPriceAt(now)
	if err != nil {
		return nil, err
	}
	// An auction that decays to zero reaches price 0 only at the exact window
	// end; selling at zero is rejected rather than dividing by it.
	if !unitPrice.IsPositive() {
		return nil, types.ErrInvalidCurve
	}

	quantity := payment.Quo(unitPrice)
	change := payment.Mod(unitPrice)
	if quantity.IsZero() {
		return nil, types.ErrInsufficientPayment
	}
	if quantity.GT(pool.Inventory) {
		return nil, types.ErrInsufficientInventory
	}

	// Atomic section: inventory decrement, payment capture, delivery and
	// refund commit together via the cache branch.
	cacheCtx, write := ctx.CacheContext()

	// Inventory is debited ahead of the ledger calls so a re-entrant
	// settlement can never see the pre-sale count.
	pool.Inventory = pool.Inventory.Sub(quantity)
	k.SetPool(cacheCtx, pool)

	paymentCoins := sdk.NewCoins(sdk.NewCoin(k.paymentDenom, payment))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(cacheCtx, buyer, types.ModuleName, paymentCoins); err != nil {
		return nil, err
	}

	delivery := sdk.NewCoins(sdk.NewCoin(pool.SaleDenom, quantity))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(cacheCtx, types.ModuleName, buyer, delivery); err != nil {
		return nil, err
	}

	if change.IsPositive() {
		refund := sdk.NewCoins(sdk.NewCoin(k.paymentDenom, change))
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(cacheCtx, types.ModuleName, buyer, refund); err != nil {
			return nil, err
		}
	}

	k.addProceeds(cacheCtx, payment.Sub(change))
	write()

	receipt := &types.PurchaseReceipt{
		PoolID:    poolID,
		Buyer:     buyer.String(),
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Payment:   payment,
		Change:    change,
		Timestamp: now,
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"tokens_purchased",
			sdk.NewAttribute("pool_id", strconv.FormatUint(poolID, 10)),
			sdk.NewAttribute("buyer", buyer.String()),
			sdk.NewAttribute("quantity", quantity.String()),
			sdk.NewAttribute("unit_price", unitPrice.String()),
			sdk.NewAttribute("payment", payment.String()),
			sdk.NewAttribute("change", change.String()),
		),
	)

	k.Logger().Info("purchase settled",
		"pool_id", poolID,
		"buyer", buyer.String(),
		"quantity", quantity.String(),
		"unit_price", unitPrice.String(),
		"change", change.String(),
	)

	return receipt, nil
}
