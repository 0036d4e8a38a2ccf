package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/math"

	"github.com/openalpha/launchpad/api/types"
	saletypes "github.com/openalpha/launchpad/x/tokensale/types"
)

// MockOwner is the admin identity the mock backend accepts.
const MockOwner = "mock-owner"

// MockService implements all service interfaces against in-memory state with
// seeded demo pools. It mirrors the settlement arithmetic of the real keeper
// (truncating division, remainder change) so UI work against it carries over,
// but it skips the ledger and the Merkle verifier: with gating on, any
// non-empty proof passes.
type MockService struct {
	mu       sync.RWMutex
	pools    map[uint64]*types.Pool
	count    uint64
	feed     *purchaseFeed
	schedule *scheduleIndex

	allowlistEnabled bool
	allowlistRoot    string
	proceeds         math.Int
}

// NewMockService creates a mock service seeded with demo pools
func NewMockService() *MockService {
	ms := &MockService{
		pools:    make(map[uint64]*types.Pool),
		feed:     newPurchaseFeed(),
		schedule: newScheduleIndex(),
		proceeds: math.ZeroInt(),
	}
	ms.initMockData()
	return ms
}

func (ms *MockService) requireOwner(caller string) error {
	if caller != MockOwner {
		return saletypes.ErrNotOwner
	}
	return nil
}

// storePool registers a pool in both the registry map and the schedule index
func (ms *MockService) storePool(p *types.Pool) {
	ms.pools[p.PoolID] = p
	ms.schedule.Upsert(p)
}

// mockUnitPrice reproduces the keeper's price curve on the mock pool record.
func mockUnitPrice(p *types.Pool, now int64) (math.Int, error) {
	startPrice, _ := math.NewIntFromString(p.StartPrice)
	endPrice, _ := math.NewIntFromString(p.EndPrice)
	if p.Kind == saletypes.PoolKindFixedPrice {
		return startPrice, nil
	}
	if p.Kind != saletypes.PoolKindAuction {
		return math.ZeroInt(), saletypes.ErrWrongPoolKind
	}
	if now <= p.StartTime {
		return startPrice, nil
	}
	if now >= p.EndTime {
		return endPrice, nil
	}
	elapsed := math.NewInt(now - p.StartTime)
	window := math.NewInt(p.EndTime - p.StartTime)
	discount := startPrice.Sub(endPrice).Mul(elapsed).Quo(window)
	return startPrice.Sub(discount), nil
}

// ============ PoolService ============

func (ms *MockService) ListPools(_ context.Context, req *types.ListPoolsRequest) (*types.ListPoolsResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]*types.Pool, 0, len(ms.pools))
	for id := req.Offset; id < ms.count; id++ {
		if req.Limit > 0 && uint64(len(out)) >= req.Limit {
			break
		}
		if p, ok := ms.pools[id]; ok {
			out = append(out, p)
		}
	}
	return &types.ListPoolsResponse{Pools: out, Total: ms.count}, nil
}

func (ms *MockService) GetPool(_ context.Context, poolID uint64) (*types.Pool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	p, ok := ms.pools[poolID]
	if !ok {
		return nil, saletypes.ErrPoolNotFound
	}
	return p, nil
}

func (ms *MockService) GetPrice(_ context.Context, poolID uint64) (*types.PriceQuote, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	p, ok := ms.pools[poolID]
	if !ok {
		return nil, saletypes.ErrPoolNotFound
	}
	now := time.Now().Unix()
	price, err := mockUnitPrice(p, now)
	if err != nil {
		return nil, err
	}
	return &types.PriceQuote{
		PoolID:    poolID,
		Kind:      p.Kind,
		UnitPrice: price.String(),
		Open:      p.Active && now >= p.StartTime && now <= p.EndTime,
		Timestamp: now,
	}, nil
}

func (ms *MockService) GetSchedule(_ context.Context, limit int) (*types.ScheduleResponse, error) {
	now := time.Now().Unix()
	return &types.ScheduleResponse{
		Open:      ms.schedule.Open(now, limit),
		Upcoming:  ms.schedule.Upcoming(now, limit),
		Timestamp: now,
	}, nil
}

// ============ PurchaseService ============

func (ms *MockService) Buy(_ context.Context, req *types.BuyRequest) (*types.BuyResponse, error) {
	if req.Buyer == "" {
		return nil, fmt.Errorf("buyer is required")
	}
	payment, ok := math.NewIntFromString(req.Payment)
	if !ok || payment.IsNegative() {
		return nil, saletypes.ErrInvalidPayment
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	p, found := ms.pools[req.PoolID]
	if !found {
		return nil, saletypes.ErrPoolNotFound
	}
	if !p.Active {
		return nil, saletypes.ErrPoolInactive
	}
	now := time.Now().Unix()
	if now < p.StartTime || now > p.EndTime {
		return nil, saletypes.ErrWindowClosed
	}
	if ms.allowlistEnabled && p.AllowlistRequired && len(req.Proof) == 0 {
		return nil, saletypes.ErrNotAllowed
	}

	unitPrice, err := mockUnitPrice(p, now)
	if err != nil {
		return nil, err
	}
	if !unitPrice.IsPositive() {
		return nil, saletypes.ErrInvalidCurve
	}

	quantity := payment.Quo(unitPrice)
	change := payment.Mod(unitPrice)
	if quantity.IsZero() {
		return nil, saletypes.ErrInsufficientPayment
	}
	inventory, _ := math.NewIntFromString(p.Inventory)
	if quantity.GT(inventory) {
		return nil, saletypes.ErrInsufficientInventory
	}

	p.Inventory = inventory.Sub(quantity).String()
	ms.proceeds = ms.proceeds.Add(payment.Sub(change))
	ms.schedule.Upsert(p)

	purchase := &types.Purchase{
		PoolID:    req.PoolID,
		Buyer:     req.Buyer,
		Quantity:  quantity.String(),
		UnitPrice: unitPrice.String(),
		Payment:   payment.String(),
		Change:    change.String(),
		Timestamp: now,
	}
	ms.feed.Append(purchase)

	return &types.BuyResponse{Purchase: purchase, Remaining: p.Inventory}, nil
}

func (ms *MockService) ListPurchases(_ context.Context, req *types.ListPurchasesRequest) (*types.ListPurchasesResponse, error) {
	purchases, next := ms.feed.Since(req.Cursor, req.Limit, req.PoolID, req.Buyer)
	return &types.ListPurchasesResponse{
		Purchases:  purchases,
		NextCursor: next,
		Total:      ms.feed.Len(),
	}, nil
}

// ============ AdminService ============

func (ms *MockService) CreatePool(_ context.Context, req *types.CreatePoolRequest) (*types.CreatePoolResponse, error) {
	if err := ms.requireOwner(req.Creator); err != nil {
		return nil, err
	}
	if req.SaleDenom == "" {
		return nil, saletypes.ErrInvalidAsset
	}
	inventory, ok := math.NewIntFromString(req.Inventory)
	if !ok || !inventory.IsPositive() {
		return nil, saletypes.ErrInvalidAmount
	}
	startPrice, ok := math.NewIntFromString(req.StartPrice)
	if !ok || !startPrice.IsPositive() {
		return nil, saletypes.ErrInvalidCurve
	}
	endPrice := startPrice
	if req.Kind == saletypes.PoolKindAuction {
		endPrice, ok = math.NewIntFromString(req.EndPrice)
		if !ok || startPrice.LTE(endPrice) {
			return nil, saletypes.ErrInvalidCurve
		}
	}
	if req.StartTime >= req.EndTime {
		return nil, saletypes.ErrInvalidWindow
	}
	now := time.Now().Unix()
	if req.StartTime <= now {
		return nil, saletypes.ErrWindowNotFuture
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	pool := &types.Pool{
		PoolID:            ms.count,
		Kind:              req.Kind,
		SaleDenom:         req.SaleDenom,
		Inventory:         inventory.String(),
		StartPrice:        startPrice.String(),
		EndPrice:          endPrice.String(),
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Active:            true,
		AllowlistRequired: req.AllowlistRequired,
		CreatedAt:         now,
	}
	ms.storePool(pool)
	ms.count++

	return &types.CreatePoolResponse{Pool: pool}, nil
}

func (ms *MockService) ClosePool(_ context.Context, req *types.ClosePoolRequest) (*types.ClosePoolResponse, error) {
	if err := ms.requireOwner(req.Owner); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	p, ok := ms.pools[req.PoolID]
	if !ok {
		return nil, saletypes.ErrPoolNotFound
	}
	if !p.Active {
		return nil, saletypes.ErrAlreadyClosed
	}
	unsold := p.Inventory
	p.Active = false
	p.Inventory = "0"
	ms.schedule.Upsert(p)

	return &types.ClosePoolResponse{Pool: p, Unsold: unsold}, nil
}

func (ms *MockService) SetAllowlistRoot(_ context.Context, req *types.SetAllowlistRootRequest) (*types.AllowlistStateResponse, error) {
	if err := ms.requireOwner(req.Owner); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.allowlistRoot = req.Root
	return &types.AllowlistStateResponse{Enabled: ms.allowlistEnabled, Root: ms.allowlistRoot}, nil
}

func (ms *MockService) SetGlobalAllowlist(_ context.Context, req *types.SetGlobalAllowlistRequest) (*types.AllowlistStateResponse, error) {
	if err := ms.requireOwner(req.Owner); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.allowlistEnabled = req.Enabled
	return &types.AllowlistStateResponse{Enabled: ms.allowlistEnabled, Root: ms.allowlistRoot}, nil
}

func (ms *MockService) SetPoolAllowlist(_ context.Context, poolID uint64, req *types.SetPoolAllowlistRequest) (*types.Pool, error) {
	if err := ms.requireOwner(req.Owner); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	p, ok := ms.pools[poolID]
	if !ok {
		return nil, saletypes.ErrPoolNotFound
	}
	p.AllowlistRequired = req.Required
	return p, nil
}

func (ms *MockService) WithdrawProceeds(_ context.Context, req *types.WithdrawProceedsRequest) (*types.ProceedsResponse, error) {
	if err := ms.requireOwner(req.Owner); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.proceeds.IsPositive() {
		return nil, saletypes.ErrNoProceeds
	}
	amount := ms.proceeds
	ms.proceeds = math.ZeroInt()
	return &types.ProceedsResponse{Amount: amount.String(), Denom: saletypes.DefaultPaymentDenom}, nil
}

func (ms *MockService) GetAllowlistState(_ context.Context) (*types.AllowlistStateResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return &types.AllowlistStateResponse{Enabled: ms.allowlistEnabled, Root: ms.allowlistRoot}, nil
}

func (ms *MockService) GetProceeds(_ context.Context) (*types.ProceedsResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return &types.ProceedsResponse{Amount: ms.proceeds.String(), Denom: saletypes.DefaultPaymentDenom}, nil
}

func (ms *MockService) CheckAllowed(_ context.Context, req *types.CheckAllowedRequest) (*types.CheckAllowedResponse, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	allowed := !ms.allowlistEnabled || len(req.Proof) > 0
	return &types.CheckAllowedResponse{Member: req.Member, Allowed: allowed}, nil
}
