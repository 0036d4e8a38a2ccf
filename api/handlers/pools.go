package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/openalpha/launchpad/api/types"
	saletypes "github.com/openalpha/launchpad/x/tokensale/types"
)

// SaleHandler serves the sale explorer endpoints: pool listing, price quotes,
// purchases and the owner's admin operations.
type SaleHandler struct {
	pools     types.PoolService
	purchases types.PurchaseService
	admin     types.AdminService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(pools types.PoolService, purchases types.PurchaseService, admin types.AdminService) *SaleHandler {
	return &SaleHandler{pools: pools, purchases: purchases, admin: admin}
}

// RegisterRoutes registers sale API routes
func (h *SaleHandler) RegisterRoutes(r *mux.Router) {
	// Pool routes
	r.HandleFunc("/v1/pools", h.ListPools).Methods("GET")
	r.HandleFunc("/v1/pools", h.CreatePool).Methods("POST")
	r.HandleFunc("/v1/pools/schedule", h.GetSchedule).Methods("GET")
	r.HandleFunc("/v1/pools/{poolId}", h.GetPool).Methods("GET")
	r.HandleFunc("/v1/pools/{poolId}/price", h.GetPrice).Methods("GET")
	r.HandleFunc("/v1/pools/{poolId}/buy", h.Buy).Methods("POST")
	r.HandleFunc("/v1/pools/{poolId}/close", h.ClosePool).Methods("POST")
	r.HandleFunc("/v1/pools/{poolId}/allowlist", h.SetPoolAllowlist).Methods("POST")

	// Purchase feed
	r.HandleFunc("/v1/purchases", h.ListPurchases).Methods("GET")

	// Allowlist routes
	r.HandleFunc("/v1/allowlist", h.GetAllowlistState).Methods("GET")
	r.HandleFunc("/v1/allowlist/root", h.SetAllowlistRoot).Methods("POST")
	r.HandleFunc("/v1/allowlist/global", h.SetGlobalAllowlist).Methods("POST")
	r.HandleFunc("/v1/allowlist/check", h.CheckAllowed).Methods("POST")

	// Proceeds routes
	r.HandleFunc("/v1/proceeds", h.GetProceeds).Methods("GET")
	r.HandleFunc("/v1/proceeds/withdraw", h.WithdrawProceeds).Methods("POST")
}

// statusFor maps module errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, saletypes.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, saletypes.ErrNotOwner), errors.Is(err, saletypes.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, saletypes.ErrPoolInactive),
		errors.Is(err, saletypes.ErrAlreadyClosed),
		errors.Is(err, saletypes.ErrWindowClosed):
		return http.StatusConflict
	case errors.Is(err, saletypes.ErrInsufficientPayment),
		errors.Is(err, saletypes.ErrInsufficientInventory),
		errors.Is(err, saletypes.ErrNoProceeds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]interface{}{"error": err.Error()})
}

func poolIDFromRequest(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["poolId"], 10, 64)
}

// ListPools returns pools ordered by id with offset/limit pagination
func (h *SaleHandler) ListPools(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.ParseUint(r.URL.Query().Get("offset"), 10, 64)
	limit, _ := strconv.ParseUint(r.URL.Query().Get("limit"), 10, 64)
	if limit == 0 {
		limit = 20
	}

	resp, err := h.pools.ListPools(r.Context(), &types.ListPoolsRequest{Offset: offset, Limit: limit})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPool returns a single pool
func (h *SaleHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid pool id"})
		return
	}

	pool, err := h.pools.GetPool(r.Context(), poolID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

// GetPrice returns the live unit price of a pool
func (h *SaleHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid pool id"})
		return
	}

	quote, err := h.pools.GetPrice(r.Context(), poolID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// GetSchedule returns open and upcoming pools grouped by sale window
func (h *SaleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	resp, err := h.pools.GetSchedule(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Buy settles a purchase against a pool
func (h *SaleHandler) Buy(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid pool id"})
		return
	}

	var req types.BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}
	req.PoolID = poolID

	resp, err := h.purchases.Buy(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPurchases pages through settled purchases
func (h *SaleHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	poolID, _ := strconv.ParseUint(r.URL.Query().Get("pool_id"), 10, 64)
	cursor, _ := strconv.ParseUint(r.URL.Query().Get("cursor"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	resp, err := h.purchases.ListPurchases(r.Context(), &types.ListPurchasesRequest{
		PoolID: poolID,
		Buyer:  r.URL.Query().Get("buyer"),
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreatePool creates a sale pool (owner only)
func (h *SaleHandler) CreatePool(w http.ResponseWriter, r *http.Request) {
	var req types.CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}

	resp, err := h.admin.CreatePool(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ClosePool closes a pool and sweeps unsold inventory (owner only)
func (h *SaleHandler) ClosePool(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid pool id"})
		return
	}

	var req types.ClosePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}
	req.PoolID = poolID

	resp, err := h.admin.ClosePool(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetPoolAllowlist toggles one pool's allowlist flag (owner only)
func (h *SaleHandler) SetPoolAllowlist(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid pool id"})
		return
	}

	var req types.SetPoolAllowlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}

	pool, err := h.admin.SetPoolAllowlist(r.Context(), poolID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

// GetAllowlistState returns the global allowlist flag and committed root
func (h *SaleHandler) GetAllowlistState(w http.ResponseWriter, r *http.Request) {
	state, err := h.admin.GetAllowlistState(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SetAllowlistRoot replaces the committed Merkle root (owner only)
func (h *SaleHandler) SetAllowlistRoot(w http.ResponseWriter, r *http.Request) {
	var req types.SetAllowlistRootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}

	state, err := h.admin.SetAllowlistRoot(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SetGlobalAllowlist flips the global allowlist flag (owner only)
func (h *SaleHandler) SetGlobalAllowlist(w http.ResponseWriter, r *http.Request) {
	var req types.SetGlobalAllowlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}

	state, err := h.admin.SetGlobalAllowlist(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// CheckAllowed verifies a membership proof against the committed root
func (h *SaleHandler) CheckAllowed(w http.ResponseWriter, r *http.Request) {
	var req types.CheckAllowedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}

	resp, err := h.admin.CheckAllowed(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProceeds returns the accumulated sale proceeds
func (h *SaleHandler) GetProceeds(w http.ResponseWriter, r *http.Request) {
	resp, err := h.admin.GetProceeds(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// WithdrawProceeds sweeps accumulated proceeds to the owner (owner only)
func (h *SaleHandler) WithdrawProceeds(w http.ResponseWriter, r *http.Request) {
	var req types.WithdrawProceedsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid request body"})
		return
	}

	resp, err := h.admin.WithdrawProceeds(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
