package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/launchpad/x/tokensale/types"
)

// CreateAuctionPool opens a decaying-price pool. The configured inventory is
// pulled from the creator into module custody before any registry state is
// written, so a failed pull leaves the registry untouched.
func (k *Keeper) CreateAuctionPool(ctx sdk.Context, creator sdk.AccAddress, cfg types.PoolConfig) (*types.Pool, error) {
	if err := k.validatePoolConfig(ctx, cfg, types.PoolKindAuction); err != nil {
		return nil, err
	}
	return k.createPool(ctx, creator, cfg, types.PoolKindAuction)
}

// CreateFixedPricePool opens a constant-price pool. cfg.StartPrice is the
// unit price; EndPrice is forced equal.
func (k *Keeper) CreateFixedPricePool(ctx sdk.Context, creator sdk.AccAddress, cfg types.PoolConfig) (*types.Pool, error) {
	cfg.EndPrice = cfg.StartPrice
	if err := k.validatePoolConfig(ctx, cfg, types.PoolKindFixedPrice); err != nil {
		return nil, err
	}
	return k.createPool(ctx, creator, cfg, types.PoolKindFixedPrice)
}

// validatePoolConfig enforces the creation invariants. Checks run in a fixed
// order so callers see stable error codes.
func (k *Keeper) validatePoolConfig(ctx sdk.Context, cfg types.PoolConfig, kind string) error {
	if cfg.SaleDenom == "" || sdk.ValidateDenom(cfg.SaleDenom) != nil {
		return types.ErrInvalidAsset
	}
	if cfg.Inventory.IsNil() || !cfg.Inventory.IsPositive() {
		return types.ErrInvalidAmount
	}
	if cfg.StartPrice.IsNil() || cfg.EndPrice.IsNil() || cfg.StartPrice.IsNegative() || cfg.EndPrice.IsNegative() {
		return types.ErrInvalidCurve
	}
	switch kind {
	case types.PoolKindAuction:
		if cfg.StartPrice.LTE(cfg.EndPrice) {
			return types.ErrInvalidCurve
		}
	case types.PoolKindFixedPrice:
		if !cfg.StartPrice.IsPositive() {
			return types.ErrInvalidCurve
		}
	default:
		return types.ErrWrongPoolKind
	}
	if cfg.StartTime >= cfg.EndTime {
		return types.ErrInvalidWindow
	}
	if cfg.StartTime <= ctx.BlockTime().Unix() {
		return types.ErrWindowNotFuture
	}
	return nil
}

func (k *Keeper) createPool(ctx sdk.Context, creator sdk.AccAddress, cfg types.PoolConfig, kind string) (*types.Pool, error) {
	// Custody pull first: the registry is only written once the inventory is
	// held by the module account.
	deposit := sdk.NewCoins(sdk.NewCoin(cfg.SaleDenom, cfg.Inventory))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, creator, types.ModuleName, deposit); err != nil {
		return nil, err
	}

	poolID := k.GetPoolCount(ctx)
	pool := &types.Pool{
		PoolID:            poolID,
		Kind:              kind,
		SaleDenom:         cfg.SaleDenom,
		Inventory:         cfg.Inventory,
		StartPrice:        cfg.StartPrice,
		EndPrice:          cfg.EndPrice,
		StartTime:         cfg.StartTime,
		EndTime:           cfg.EndTime,
		Active:            true,
		AllowlistRequired: cfg.AllowlistRequired,
		CreatedAt:         ctx.BlockTime().Unix(),
	}
	k.SetPool(ctx, pool)
	k.setPoolCount(ctx, poolID+1)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"pool_created",
			sdk.NewAttribute("pool_id", strconv.FormatUint(poolID, 10)),
			sdk.NewAttribute("sale_denom", cfg.SaleDenom),
			sdk.NewAttribute("kind", kind),
			sdk.NewAttribute("allowlist_required", strconv.FormatBool(cfg.AllowlistRequired)),
			sdk.NewAttribute("inventory", cfg.Inventory.String()),
			sdk.NewAttribute("start_price", cfg.StartPrice.String()),
			sdk.NewAttribute("end_price", cfg.EndPrice.String()),
			sdk.NewAttribute("start_time", strconv.FormatInt(cfg.StartTime, 10)),
			sdk.NewAttribute("end_time", strconv.FormatInt(cfg.EndTime, 10)),
		),
	)

	k.Logger().Info("pool created",
		"pool_id", poolID,
		"kind", kind,
		"sale_denom", cfg.SaleDenom,
		"inventory", cfg.Inventory.String(),
	)

	return pool, nil
}
