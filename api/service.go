package api

import (
	"github.com/openalpha/launchpad/api/types"
)

// Re-export types for convenience
type (
	Pool                    = types.Pool
	Purchase                = types.Purchase
	PriceQuote              = types.PriceQuote
	CreatePoolRequest       = types.CreatePoolRequest
	CreatePoolResponse      = types.CreatePoolResponse
	ClosePoolRequest        = types.ClosePoolRequest
	ClosePoolResponse       = types.ClosePoolResponse
	BuyRequest              = types.BuyRequest
	BuyResponse             = types.BuyResponse
	ListPoolsRequest        = types.ListPoolsRequest
	ListPoolsResponse       = types.ListPoolsResponse
	ScheduleResponse        = types.ScheduleResponse
	ListPurchasesRequest    = types.ListPurchasesRequest
	ListPurchasesResponse   = types.ListPurchasesResponse
	SetAllowlistRootRequest = types.SetAllowlistRootRequest
	AllowlistStateResponse  = types.AllowlistStateResponse
	CheckAllowedRequest     = types.CheckAllowedRequest
	CheckAllowedResponse    = types.CheckAllowedResponse
	ProceedsResponse        = types.ProceedsResponse
	PoolService             = types.PoolService
	PurchaseService         = types.PurchaseService
	AdminService            = types.AdminService
)

// SaleService is the full backend surface the server binds handlers to.
type SaleService interface {
	types.PoolService
	types.PurchaseService
	types.AdminService
}

// nowMillis returns current timestamp in milliseconds
func nowMillis() int64 {
	return types.NowMillis()
}
