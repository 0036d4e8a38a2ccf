package api

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/api/types"
	"github.com/openalpha/launchpad/metrics"
	"github.com/openalpha/launchpad/x/tokensale/keeper"
	saletypes "github.com/openalpha/launchpad/x/tokensale/types"
)

// KeeperService backs the sale API with a real tokensale keeper over an
// in-memory multistore. Every entry point takes the service mutex, so keeper
// transactions never interleave; this is the standalone-mode equivalent of
// the chain's per-block message serialization.
//
// The ledger behind the keeper is simulated: buyers and creators are funded
// on demand, while the module custody account is tracked exactly. That makes
// the service a faithful settlement simulator without requiring deposits.
type KeeperService struct {
	keeper *keeper.Keeper
	query  *keeper.QueryServer
	bank   *memBank
	ctx    sdk.Context
	mu     sync.Mutex

	owner        sdk.AccAddress
	paymentDenom string
	nowFn        func() time.Time

	feed     *purchaseFeed
	schedule *scheduleIndex

	// Hooks fired after a transaction commits, outside the lock-free hot
	// data but inside the service mutex; used for websocket broadcasts.
	onPurchase  func(*types.Purchase)
	onPoolEvent func(event string, pool *types.Pool)
}

// memBank is an in-memory stand-in for the bank module. Account-to-module
// pulls are funded on demand; module-to-account sends are checked against the
// tracked custody balance, so the keeper's custody invariants still hold.
type memBank struct {
	mu      sync.Mutex
	modules map[string]sdk.Coins
}

func newMemBank() *memBank {
	return &memBank{modules: make(map[string]sdk.Coins)}
}

func (b *memBank) SendCoinsFromAccountToModule(_ context.Context, _ sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modules[recipientModule] = b.modules[recipientModule].Add(amt...)
	return nil
}

func (b *memBank) SendCoinsFromModuleToAccount(_ context.Context, senderModule string, _ sdk.AccAddress, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	balance := b.modules[senderModule]
	if !amt.IsAllLTE(balance) {
		return fmt.Errorf("module %s balance %s below requested %s", senderModule, balance, amt)
	}
	b.modules[senderModule] = balance.Sub(amt...)
	return nil
}

// ModuleBalance returns the tracked custody balance of a module account.
func (b *memBank) ModuleBalance(module string) sdk.Coins {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modules[module]
}

// NewKeeperService creates a standalone sale service. owner is the bech32
// address holding the admin capability; empty selects a fixed development
// owner.
func NewKeeperService(owner string, paymentDenom string, logger log.Logger) (*KeeperService, error) {
	if paymentDenom == "" {
		paymentDenom = saletypes.DefaultPaymentDenom
	}

	var ownerAddr sdk.AccAddress
	if owner == "" {
		ownerAddr = sdk.AccAddress([]byte("launchpad-dev-owner0"))
	} else {
		addr, err := sdk.AccAddressFromBech32(owner)
		if err != nil {
			return nil, fmt.Errorf("invalid owner address: %w", err)
		}
		ownerAddr = addr
	}

	storeKey := storetypes.NewKVStoreKey(saletypes.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, logger, storemetrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}

	ctx := sdk.NewContext(stateStore, cmtproto.Header{Time: time.Now()}, false, logger)

	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	bank := newMemBank()
	k := keeper.NewKeeper(cdc, storeKey, bank, ownerAddr.String(), paymentDenom, logger)

	return &KeeperService{
		keeper:       k,
		query:        keeper.NewQueryServerImpl(k),
		bank:         bank,
		ctx:          ctx,
		owner:        ownerAddr,
		paymentDenom: paymentDenom,
		nowFn:        time.Now,
		feed:         newPurchaseFeed(),
		schedule:     newScheduleIndex(),
	}, nil
}

// Owner returns the bech32 address holding the admin capability.
func (s *KeeperService) Owner() string {
	return s.owner.String()
}

// SetHooks registers post-commit callbacks for purchases and pool lifecycle
// events. Must be called before the server starts serving.
func (s *KeeperService) SetHooks(onPurchase func(*types.Purchase), onPoolEvent func(string, *types.Pool)) {
	s.onPurchase = onPurchase
	s.onPoolEvent = onPoolEvent
}

// now stamps the context with the current wall clock; the keeper reads time
// exclusively from the block header. nowFn is swapped out in tests.
func (s *KeeperService) now() sdk.Context {
	return s.ctx.WithBlockTime(s.nowFn())
}

// metricValue converts an unbounded integer amount for a gauge or counter.
// Int64() panics above the int64 range, so large values go through big.Float.
func metricValue(v math.Int) float64 {
	if v.IsInt64() {
		return float64(v.Int64())
	}
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}

func poolToAPI(p *saletypes.Pool) *types.Pool {
	return &types.Pool{
		PoolID:            p.PoolID,
		Kind:              p.Kind,
		SaleDenom:         p.SaleDenom,
		Inventory:         p.Inventory.String(),
		StartPrice:        p.StartPrice.String(),
		EndPrice:          p.EndPrice.String(),
		StartTime:         p.StartTime,
		EndTime:           p.EndTime,
		Active:            p.Active,
		AllowlistRequired: p.AllowlistRequired,
		CreatedAt:         p.CreatedAt,
	}
}

// ============ PoolService ============

// ListPools returns pools ordered by id with offset/limit pagination.
func (s *KeeperService) ListPools(_ context.Context, req *types.ListPoolsRequest) (*types.ListPoolsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pools, total, err := s.query.Pools(s.now(), req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Pool, len(pools))
	for i := range pools {
		out[i] = poolToAPI(&pools[i])
	}
	return &types.ListPoolsResponse{Pools: out, Total: total}, nil
}

// GetPool returns one pool by id.
func (s *KeeperService) GetPool(_ context.Context, poolID uint64) (*types.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, err := s.query.Pool(s.now(), poolID)
	if err != nil {
		return nil, err
	}
	return poolToAPI(pool), nil
}

// GetPrice quotes the live unit price of a pool.
func (s *KeeperService) GetPrice(_ context.Context, poolID uint64) (*types.PriceQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.now()
	pool, err := s.keeper.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	now := ctx.BlockTime().Unix()
	price, err := pool.UnitPriceAt(now)
	if err != nil {
		return nil, err
	}
	return &types.PriceQuote{
		PoolID:    poolID,
		Kind:      pool.Kind,
		UnitPrice: price.String(),
		Open:      pool.Active && pool.IsOpenAt(now),
		Timestamp: now,
	}, nil
}

// GetSchedule groups pools into open and upcoming by sale window.
func (s *KeeperService) GetSchedule(_ context.Context, limit int) (*types.ScheduleResponse, error) {
	now := s.nowFn().Unix()
	return &types.ScheduleResponse{
		Open:      s.schedule.Open(now, limit),
		Upcoming:  s.schedule.Upcoming(now, limit),
		Timestamp: now,
	}, nil
}

// ============ PurchaseService ============

// Buy settles a purchase through the keeper. The whole path runs under the
// service mutex, so two concurrent buyers can never both see the same
// pre-sale inventory.
func (s *KeeperService) Buy(_ context.Context, req *types.BuyRequest) (*types.BuyResponse, error) {
	buyer, err := sdk.AccAddressFromBech32(req.Buyer)
	if err != nil {
		return nil, fmt.Errorf("invalid buyer address: %w", err)
	}
	payment, ok := math.NewIntFromString(req.Payment)
	if !ok || payment.IsNegative() {
		return nil, saletypes.ErrInvalidPayment
	}
	proof, err := saletypes.DecodeProof(req.Proof)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timer := metrics.NewTimer()
	ctx := s.now()
	receipt, err := s.keeper.Buy(ctx, buyer, req.PoolID, payment, proof)
	if err != nil {
		metrics.GetCollector().RecordPurchaseReject(fmt.Sprintf("%d", req.PoolID), err.Error())
		return nil, err
	}

	pool, err := s.keeper.GetPool(ctx, req.PoolID)
	if err != nil {
		return nil, err
	}
	s.schedule.Upsert(poolToAPI(pool))

	purchase := &types.Purchase{
		PoolID:    receipt.PoolID,
		Buyer:     receipt.Buyer,
		Quantity:  receipt.Quantity.String(),
		UnitPrice: receipt.UnitPrice.String(),
		Payment:   receipt.Payment.String(),
		Change:    receipt.Change.String(),
		Timestamp: receipt.Timestamp,
	}
	s.feed.Append(purchase)

	c := metrics.GetCollector()
	c.RecordPurchase(
		fmt.Sprintf("%d", pool.PoolID), pool.Kind, pool.SaleDenom,
		metricValue(receipt.Quantity),
		metricValue(receipt.Payment.Sub(receipt.Change)),
		metricValue(receipt.Change),
	)
	c.RecordPurchaseLatency(pool.Kind, timer.ElapsedMs())
	c.UpdatePoolInventory(fmt.Sprintf("%d", pool.PoolID), pool.SaleDenom, metricValue(pool.Inventory))

	if s.onPurchase != nil {
		s.onPurchase(purchase)
	}

	return &types.BuyResponse{
		Purchase:  purchase,
		Remaining: pool.Inventory.String(),
	}, nil
}

// ListPurchases pages through settled purchases in feed order.
func (s *KeeperService) ListPurchases(_ context.Context, req *types.ListPurchasesRequest) (*types.ListPurchasesResponse, error) {
	purchases, next := s.feed.Since(req.Cursor, req.Limit, req.PoolID, req.Buyer)
	return &types.ListPurchasesResponse{
		Purchases:  purchases,
		NextCursor: next,
		Total:      s.feed.Len(),
	}, nil
}

// ============ AdminService ============

func (s *KeeperService) requireOwner(caller string) error {
	if caller != s.owner.String() {
		return saletypes.ErrNotOwner
	}
	return nil
}

// CreatePool creates an auction or fixed-price pool from an owner request.
func (s *KeeperService) CreatePool(_ context.Context, req *types.CreatePoolRequest) (*types.CreatePoolResponse, error) {
	if err := s.requireOwner(req.Creator); err != nil {
		return nil, err
	}

	inventory, ok := math.NewIntFromString(req.Inventory)
	if !ok {
		return nil, saletypes.ErrInvalidAmount
	}
	startPrice, ok := math.NewIntFromString(req.StartPrice)
	if !ok {
		return nil, saletypes.ErrInvalidCurve
	}
	endPrice := startPrice
	if req.EndPrice != "" {
		endPrice, ok = math.NewIntFromString(req.EndPrice)
		if !ok {
			return nil, saletypes.ErrInvalidCurve
		}
	}

	cfg := saletypes.PoolConfig{
		SaleDenom:         req.SaleDenom,
		Inventory:         inventory,
		StartPrice:        startPrice,
		EndPrice:          endPrice,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		AllowlistRequired: req.AllowlistRequired,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.now()
	var pool *saletypes.Pool
	var err error
	switch req.Kind {
	case saletypes.PoolKindAuction:
		pool, err = s.keeper.CreateAuctionPool(ctx, s.owner, cfg)
	case saletypes.PoolKindFixedPrice:
		cfg.EndPrice = cfg.StartPrice
		pool, err = s.keeper.CreateFixedPricePool(ctx, s.owner, cfg)
	default:
		return nil, fmt.Errorf("unknown pool kind %q", req.Kind)
	}
	if err != nil {
		return nil, err
	}

	apiPool := poolToAPI(pool)
	s.schedule.Upsert(apiPool)
	metrics.GetCollector().RecordPoolCreated(pool.Kind)
	if s.onPoolEvent != nil {
		s.onPoolEvent("created", apiPool)
	}

	return &types.CreatePoolResponse{Pool: apiPool}, nil
}

// ClosePool deactivates a pool and reports the swept inventory.
func (s *KeeperService) ClosePool(_ context.Context, req *types.ClosePoolRequest) (*types.ClosePoolResponse, error) {
	if err := s.requireOwner(req.Owner); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.now()
	swept, err := s.keeper.ClosePool(ctx, req.PoolID)
	if err != nil {
		return nil, err
	}
	pool, err := s.keeper.GetPool(ctx, req.PoolID)
	if err != nil {
		return nil, err
	}

	apiPool := poolToAPI(pool)
	s.schedule.Upsert(apiPool)
	metrics.GetCollector().RecordPoolClosed(pool.Kind)
	if s.onPoolEvent != nil {
		s.onPoolEvent("closed", apiPool)
	}

	return &types.ClosePoolResponse{Pool: apiPool, Unsold: swept.String()}, nil
}

// SetAllowlistRoot replaces the committed Merkle root (hex encoded).
func (s *KeeperService) SetAllowlistRoot(_ context.Context, req *types.SetAllowlistRootRequest) (*types.AllowlistStateResponse, error) {
	if err := s.requireOwner(req.Owner); err != nil {
		return nil, err
	}
	root, err := hex.DecodeString(req.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root encoding: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.keeper.SetAllowlistRoot(s.now(), root)
	return s.allowlistStateLocked()
}

// SetGlobalAllowlist flips the global gating flag.
func (s *KeeperService) SetGlobalAllowlist(_ context.Context, req *types.SetGlobalAllowlistRequest) (*types.AllowlistStateResponse, error) {
	if err := s.requireOwner(req.Owner); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.keeper.SetGlobalAllowlist(s.now(), req.Enabled)
	return s.allowlistStateLocked()
}

// SetPoolAllowlist flips one pool's gating flag.
func (s *KeeperService) SetPoolAllowlist(_ context.Context, poolID uint64, req *types.SetPoolAllowlistRequest) (*types.Pool, error) {
	if err := s.requireOwner(req.Owner); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.now()
	if err := s.keeper.SetPoolAllowlist(ctx, poolID, req.Required); err != nil {
		return nil, err
	}
	pool, err := s.keeper.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	apiPool := poolToAPI(pool)
	s.schedule.Upsert(apiPool)
	return apiPool, nil
}

// WithdrawProceeds sweeps accumulated sale proceeds to the owner.
func (s *KeeperService) WithdrawProceeds(_ context.Context, req *types.WithdrawProceedsRequest) (*types.ProceedsResponse, error) {
	if err := s.requireOwner(req.Owner); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	amount, err := s.keeper.WithdrawProceeds(s.now())
	if err != nil {
		return nil, err
	}
	metrics.GetCollector().RecordProceedsWithdrawal(s.paymentDenom, metricValue(amount))
	return &types.ProceedsResponse{Amount: amount.String(), Denom: s.paymentDenom}, nil
}

// GetAllowlistState reports the global flag and committed root.
func (s *KeeperService) GetAllowlistState(_ context.Context) (*types.AllowlistStateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allowlistStateLocked()
}

func (s *KeeperService) allowlistStateLocked() (*types.AllowlistStateResponse, error) {
	state, err := s.query.AllowlistState(s.now())
	if err != nil {
		return nil, err
	}
	return &types.AllowlistStateResponse{Enabled: state.Enabled, Root: state.Root}, nil
}

// GetProceeds reports the accumulated, not yet withdrawn proceeds.
func (s *KeeperService) GetProceeds(_ context.Context) (*types.ProceedsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount, err := s.query.Proceeds(s.now())
	if err != nil {
		return nil, err
	}
	return &types.ProceedsResponse{Amount: amount.String(), Denom: s.paymentDenom}, nil
}

// CheckAllowed verifies a membership proof against the committed root.
func (s *KeeperService) CheckAllowed(_ context.Context, req *types.CheckAllowedRequest) (*types.CheckAllowedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, err := s.query.IsAllowed(s.now(), req.Member, req.Proof)
	if err != nil {
		return nil, err
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	metrics.GetCollector().RecordAllowlistCheck(outcome)
	return &types.CheckAllowedResponse{Member: req.Member, Allowed: allowed}, nil
}
