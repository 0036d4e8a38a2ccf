package types

import (
	"context"
	"time"
)

// Pool represents a sale pool in the API response
type Pool struct {
	PoolID            uint64 `json:"pool_id"`
	Kind              string `json:"kind"`
	SaleDenom         string `json:"sale_denom"`
	Inventory         string `json:"inventory"`
	StartPrice        string `json:"start_price"`
	EndPrice          string `json:"end_price"`
	StartTime         int64  `json:"start_time"`
	EndTime           int64  `json:"end_time"`
	Active            bool   `json:"active"`
	AllowlistRequired bool   `json:"allowlist_required"`
	CreatedAt         int64  `json:"created_at"`
}

// Purchase represents a settled purchase in the API response
type Purchase struct {
	Sequence  uint64 `json:"sequence"`
	PoolID    uint64 `json:"pool_id"`
	Buyer     string `json:"buyer"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Payment   string `json:"payment"`
	Change    string `json:"change"`
	Timestamp int64  `json:"timestamp"`
}

// PriceQuote represents the live unit price of a pool
type PriceQuote struct {
	PoolID    uint64 `json:"pool_id"`
	Kind      string `json:"kind"`
	UnitPrice string `json:"unit_price"`
	Open      bool   `json:"open"`
	Timestamp int64  `json:"timestamp"`
}

// CreatePoolRequest represents the request to create a sale pool
type CreatePoolRequest struct {
	Creator           string `json:"creator"`
	Kind              string `json:"kind"`
	SaleDenom         string `json:"sale_denom"`
	Inventory         string `json:"inventory"`
	StartPrice        string `json:"start_price"`
	EndPrice          string `json:"end_price,omitempty"`
	StartTime         int64  `json:"start_time"`
	EndTime           int64  `json:"end_time"`
	AllowlistRequired bool   `json:"allowlist_required"`
}

// CreatePoolResponse represents the response after creating a pool
type CreatePoolResponse struct {
	Pool *Pool `json:"pool"`
}

// ClosePoolRequest represents the request to close a pool
type ClosePoolRequest struct {
	Owner  string `json:"owner"`
	PoolID uint64 `json:"pool_id"`
}

// ClosePoolResponse represents the response after closing a pool
type ClosePoolResponse struct {
	Pool   *Pool  `json:"pool"`
	Unsold string `json:"unsold"`
}

// BuyRequest represents the request to buy from a pool
type BuyRequest struct {
	Buyer   string   `json:"buyer"`
	PoolID  uint64   `json:"pool_id"`
	Payment string   `json:"payment"`
	Proof   []string `json:"proof,omitempty"`
}

// BuyResponse represents the response after a purchase settles
type BuyResponse struct {
	Purchase  *Purchase `json:"purchase"`
	Remaining string    `json:"remaining"`
}

// ListPoolsRequest represents the request to list pools
type ListPoolsRequest struct {
	Offset uint64 `json:"offset,omitempty"`
	Limit  uint64 `json:"limit,omitempty"`
}

// ListPoolsResponse represents the response for listing pools
type ListPoolsResponse struct {
	Pools []*Pool `json:"pools"`
	Total uint64  `json:"total"`
}

// ScheduleResponse groups pools by their sale window relative to now
type ScheduleResponse struct {
	Open      []*Pool `json:"open"`
	Upcoming  []*Pool `json:"upcoming"`
	Timestamp int64   `json:"timestamp"`
}

// ListPurchasesRequest represents the request to page through purchases
type ListPurchasesRequest struct {
	PoolID uint64 `json:"pool_id,omitempty"`
	Buyer  string `json:"buyer,omitempty"`
	Cursor uint64 `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// ListPurchasesResponse represents the response for paging purchases
type ListPurchasesResponse struct {
	Purchases  []*Purchase `json:"purchases"`
	NextCursor uint64      `json:"next_cursor,omitempty"`
	Total      int         `json:"total"`
}

// SetAllowlistRootRequest represents the request to update the Merkle root
type SetAllowlistRootRequest struct {
	Owner string `json:"owner"`
	Root  string `json:"root"`
}

// SetGlobalAllowlistRequest represents the request to toggle global gating
type SetGlobalAllowlistRequest struct {
	Owner   string `json:"owner"`
	Enabled bool   `json:"enabled"`
}

// SetPoolAllowlistRequest represents the request to toggle per-pool gating
type SetPoolAllowlistRequest struct {
	Owner    string `json:"owner"`
	Required bool   `json:"required"`
}

// AllowlistStateResponse represents the current allowlist configuration
type AllowlistStateResponse struct {
	Enabled bool   `json:"enabled"`
	Root    string `json:"root"`
}

// CheckAllowedRequest represents the request to verify a membership proof
type CheckAllowedRequest struct {
	Member string   `json:"member"`
	Proof  []string `json:"proof,omitempty"`
}

// CheckAllowedResponse represents the result of a membership check
type CheckAllowedResponse struct {
	Member  string `json:"member"`
	Allowed bool   `json:"allowed"`
}

// WithdrawProceedsRequest represents the request to withdraw sale proceeds
type WithdrawProceedsRequest struct {
	Owner string `json:"owner"`
}

// ProceedsResponse represents the accumulated or withdrawn proceeds
type ProceedsResponse struct {
	Amount string `json:"amount"`
	Denom  string `json:"denom"`
}

// PoolService defines the interface for pool read operations
type PoolService interface {
	ListPools(ctx context.Context, req *ListPoolsRequest) (*ListPoolsResponse, error)
	GetPool(ctx context.Context, poolID uint64) (*Pool, error)
	GetPrice(ctx context.Context, poolID uint64) (*PriceQuote, error)
	GetSchedule(ctx context.Context, limit int) (*ScheduleResponse, error)
}

// PurchaseService defines the interface for purchase operations
type PurchaseService interface {
	Buy(ctx context.Context, req *BuyRequest) (*BuyResponse, error)
	ListPurchases(ctx context.Context, req *ListPurchasesRequest) (*ListPurchasesResponse, error)
}

// AdminService defines the interface for owner operations
type AdminService interface {
	CreatePool(ctx context.Context, req *CreatePoolRequest) (*CreatePoolResponse, error)
	ClosePool(ctx context.Context, req *ClosePoolRequest) (*ClosePoolResponse, error)
	SetAllowlistRoot(ctx context.Context, req *SetAllowlistRootRequest) (*AllowlistStateResponse, error)
	SetGlobalAllowlist(ctx context.Context, req *SetGlobalAllowlistRequest) (*AllowlistStateResponse, error)
	SetPoolAllowlist(ctx context.Context, poolID uint64, req *SetPoolAllowlistRequest) (*Pool, error)
	WithdrawProceeds(ctx context.Context, req *WithdrawProceedsRequest) (*ProceedsResponse, error)
	GetAllowlistState(ctx context.Context) (*AllowlistStateResponse, error)
	GetProceeds(ctx context.Context) (*ProceedsResponse, error)
	CheckAllowed(ctx context.Context, req *CheckAllowedRequest) (*CheckAllowedResponse, error)
}

// Helper function to get current timestamp in milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
