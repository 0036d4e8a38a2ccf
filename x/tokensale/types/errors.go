package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	// Validation errors: rejected before any state is touched.
	ErrInvalidAsset    = errors.Register("tokensale", 1, "invalid sale asset")
	ErrInvalidAmount   = errors.Register("tokensale", 2, "inventory must be positive")
	ErrInvalidCurve    = errors.Register("tokensale", 3, "invalid price curve")
	ErrInvalidWindow   = errors.Register("tokensale", 4, "sale window start must precede end")
	ErrWindowNotFuture = errors.Register("tokensale", 5, "sale window must start in the future")

	// State errors
	ErrPoolNotFound  = errors.Register("tokensale", 6, "pool not found")
	ErrPoolInactive  = errors.Register("tokensale", 7, "pool is closed")
	ErrAlreadyClosed = errors.Register("tokensale", 8, "pool already closed")
	ErrWindowClosed  = errors.Register("tokensale", 9, "sale window is not open")
	ErrWrongPoolKind = errors.Register("tokensale", 10, "operation requires an auction pool")

	// Authorization errors
	ErrNotOwner   = errors.Register("tokensale", 11, "caller is not the sale owner")
	ErrNotAllowed = errors.Register("tokensale", 12, "buyer is not on the allowlist")

	// Economic errors
	ErrInsufficientPayment   = errors.Register("tokensale", 13, "payment below unit price")
	ErrInsufficientInventory = errors.Register("tokensale", 14, "insufficient inventory")

	// Payment plumbing
	ErrInvalidPayment = errors.Register("tokensale", 15, "invalid payment")
	ErrNoProceeds     = errors.Register("tokensale", 16, "no proceeds to withdraw")
)
