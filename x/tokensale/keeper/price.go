package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// CurrentPrice returns the decaying unit price of an auction pool at the
// current block time. Fixed-price pools are rejected with ErrWrongPoolKind;
// their price is the stored constant and callers read it off the pool.
func (k *Keeper) CurrentPrice(ctx sdk.Context, poolID uint64) (math.Int, error) {
	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return math.ZeroInt(), err
	}
	return pool.AuctionPriceAt(ctx.BlockTime().Unix())
}
