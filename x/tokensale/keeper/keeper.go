package keeper

import (
	"context"
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/openalpha/launchpad/x/tokensale/types"
)

// Store key prefixes
var (
	PoolKeyPrefix       = []byte{0x01}
	PoolCountKey        = []byte{0x02}
	AllowlistRootKey    = []byte{0x03}
	AllowlistEnabledKey = []byte{0x04}
	ProceedsKey         = []byte{0x05}
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// Keeper manages the tokensale module state: the pool registry, the global
// allowlist commitment and the sale proceeds accumulator. All sold assets and
// collected payments sit in the module account until settled or swept.
type Keeper struct {
	cdc          codec.BinaryCodec
	storeKey     storetypes.StoreKey
	bankKeeper   BankKeeper
	logger       log.Logger
	authority    string // sale owner address
	paymentDenom string // native denom buyers pay with
}

// NewKeeper creates a new tokensale keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	authority string,
	paymentDenom string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:          cdc,
		storeKey:     storeKey,
		bankKeeper:   bankKeeper,
		authority:    authority,
		paymentDenom: paymentDenom,
		logger:       logger.With("module", "x/tokensale"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the sale owner address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// PaymentDenom returns the denom buyers pay with
func (k *Keeper) PaymentDenom() string {
	return k.paymentDenom
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// PoolKey returns the store key for a pool id
func PoolKey(poolID uint64) []byte {
	return append(PoolKeyPrefix, sdk.Uint64ToBigEndian(poolID)...)
}

// ============ Pool storage ============

// SetPool saves a pool to the store
func (k *Keeper) SetPool(ctx sdk.Context, pool *types.Pool) {
	store := k.GetStore(ctx)
	bz, err := json.Marshal(pool)
	if err != nil {
		panic(err)
	}
	store.Set(PoolKey(pool.PoolID), bz)
}

// GetPool retrieves a pool by id. Ids are dense, so a missing key means the
// id was never assigned.
func (k *Keeper) GetPool(ctx sdk.Context, poolID uint64) (*types.Pool, error) {
	store := k.GetStore(ctx)
	bz := store.Get(PoolKey(poolID))
	if bz == nil {
		return nil, types.ErrPoolNotFound
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

// GetPools returns all pools ordered by id
func (k *Keeper) GetPools(ctx sdk.Context) []types.Pool {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, PoolKeyPrefix)
	defer iterator.Close()

	var pools []types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, pool)
	}
	return pools
}

// GetPoolCount returns the number of pools ever created; it doubles as the
// next pool id.
func (k *Keeper) GetPoolCount(ctx sdk.Context) uint64 {
	store := k.GetStore(ctx)
	bz := store.Get(PoolCountKey)
	if bz == nil {
		return 0
	}
	return sdk.BigEndianToUint64(bz)
}

func (k *Keeper) setPoolCount(ctx sdk.Context, count uint64) {
	store := k.GetStore(ctx)
	store.Set(PoolCountKey, sdk.Uint64ToBigEndian(count))
}

// ============ Allowlist storage ============

// GetAllowlistRoot returns the committed membership root, nil if unset
func (k *Keeper) GetAllowlistRoot(ctx sdk.Context) []byte {
	return k.GetStore(ctx).Get(AllowlistRootKey)
}

func (k *Keeper) setAllowlistRoot(ctx sdk.Context, root []byte) {
	store := k.GetStore(ctx)
	if len(root) == 0 {
		store.Delete(AllowlistRootKey)
		return
	}
	store.Set(AllowlistRootKey, root)
}

// GlobalAllowlistEnabled reports whether the global allowlist flag is on
func (k *Keeper) GlobalAllowlistEnabled(ctx sdk.Context) bool {
	bz := k.GetStore(ctx).Get(AllowlistEnabledKey)
	return len(bz) == 1 && bz[0] == 1
}

func (k *Keeper) setGlobalAllowlistEnabled(ctx sdk.Context, enabled bool) {
	store := k.GetStore(ctx)
	if enabled {
		store.Set(AllowlistEnabledKey, []byte{1})
		return
	}
	store.Set(AllowlistEnabledKey, []byte{0})
}

// ============ Proceeds storage ============

// GetProceeds returns the accumulated, not yet withdrawn sale proceeds
func (k *Keeper) GetProceeds(ctx sdk.Context) math.Int {
	bz := k.GetStore(ctx).Get(ProceedsKey)
	if bz == nil {
		return math.ZeroInt()
	}
	var amount math.Int
	if err := amount.Unmarshal(bz); err != nil {
		return math.ZeroInt()
	}
	return amount
}

func (k *Keeper) setProceeds(ctx sdk.Context, amount math.Int) {
	bz, err := amount.Marshal()
	if err != nil {
		panic(err)
	}
	k.GetStore(ctx).Set(ProceedsKey, bz)
}

func (k *Keeper) addProceeds(ctx sdk.Context, amount math.Int) {
	k.setProceeds(ctx, k.GetProceeds(ctx).Add(amount))
}
