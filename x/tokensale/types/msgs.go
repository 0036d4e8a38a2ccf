package types

import (
	"context"
	"encoding/hex"
	"fmt"

	"cosmossdk.io/math"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RegisterInterfaces registers the module's message types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgCreateAuctionPool{},
		&MsgCreateFixedPricePool{},
		&MsgBuy{},
		&MsgClosePool{},
		&MsgSetAllowlistRoot{},
		&MsgToggleGlobalAllowlist{},
		&MsgTogglePoolAllowlist{},
		&MsgWithdrawProceeds{},
	)
}

// Message types
const (
	TypeMsgCreateAuctionPool      = "create_auction_pool"
	TypeMsgCreateFixedPricePool   = "create_fixed_price_pool"
	TypeMsgBuy                    = "buy"
	TypeMsgClosePool              = "close_pool"
	TypeMsgSetAllowlistRoot       = "set_allowlist_root"
	TypeMsgToggleGlobalAllowlist  = "toggle_global_allowlist"
	TypeMsgTogglePoolAllowlist    = "toggle_pool_allowlist"
	TypeMsgWithdrawProceeds       = "withdraw_proceeds"
)

// MsgServer defines the tokensale module's message service
type MsgServer interface {
	CreateAuctionPool(context.Context, *MsgCreateAuctionPool) (*MsgCreatePoolResponse, error)
	CreateFixedPricePool(context.Context, *MsgCreateFixedPricePool) (*MsgCreatePoolResponse, error)
	Buy(context.Context, *MsgBuy) (*MsgBuyResponse, error)
	ClosePool(context.Context, *MsgClosePool) (*MsgClosePoolResponse, error)
	SetAllowlistRoot(context.Context, *MsgSetAllowlistRoot) (*MsgSetAllowlistRootResponse, error)
	ToggleGlobalAllowlist(context.Context, *MsgToggleGlobalAllowlist) (*MsgToggleAllowlistResponse, error)
	TogglePoolAllowlist(context.Context, *MsgTogglePoolAllowlist) (*MsgToggleAllowlistResponse, error)
	WithdrawProceeds(context.Context, *MsgWithdrawProceeds) (*MsgWithdrawProceedsResponse, error)
}

// RegisterMsgServer registers the MsgServer to the configurator's MsgServer
func RegisterMsgServer(s interface{}, srv MsgServer) {
	// Placeholder until proto service generation is wired up; messages are
	// routed through the module handler.
}

// parsePositiveInt parses a decimal string into a strictly positive math.Int.
func parsePositiveInt(s string) (math.Int, bool) {
	v, ok := math.NewIntFromString(s)
	if !ok || !v.IsPositive() {
		return math.Int{}, false
	}
	return v, true
}

// parseNonNegativeInt parses a decimal string into a non-negative math.Int.
func parseNonNegativeInt(s string) (math.Int, bool) {
	v, ok := math.NewIntFromString(s)
	if !ok || v.IsNegative() {
		return math.Int{}, false
	}
	return v, true
}

// DecodeProof converts hex-encoded proof elements into raw digests.
func DecodeProof(proof []string) ([][]byte, error) {
	out := make([][]byte, 0, len(proof))
	for i, p := range proof {
		bz, err := hex.DecodeString(p)
		if err != nil {
			return nil, fmt.Errorf("proof element %d is not hex: %w", i, err)
		}
		out = append(out, bz)
	}
	return out, nil
}

// MsgCreateAuctionPool opens a decaying-price sale funded from the creator's
// balance.
type MsgCreateAuctionPool struct {
	Creator           string `json:"creator"`
	SaleDenom         string `json:"sale_denom"`
	Inventory         string `json:"inventory"`
	StartPrice        string `json:"start_price"`
	EndPrice          string `json:"end_price"`
	StartTime         int64  `json:"start_time"`
	EndTime           int64  `json:"end_time"`
	AllowlistRequired bool   `json:"allowlist_required"`
}

// Route implements sdk.Msg
func (msg MsgCreateAuctionPool) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCreateAuctionPool) Type() string { return TypeMsgCreateAuctionPool }

// ValidateBasic implements sdk.Msg
func (msg MsgCreateAuctionPool) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Creator); err != nil {
		return err
	}
	if msg.SaleDenom == "" {
		return ErrInvalidAsset
	}
	if _, ok := parsePositiveInt(msg.Inventory); !ok {
		return ErrInvalidAmount
	}
	start, ok := parseNonNegativeInt(msg.StartPrice)
	if !ok {
		return ErrInvalidCurve
	}
	end, ok := parseNonNegativeInt(msg.EndPrice)
	if !ok {
		return ErrInvalidCurve
	}
	if start.LTE(end) {
		return ErrInvalidCurve
	}
	if msg.StartTime >= msg.EndTime {
		return ErrInvalidWindow
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgCreateAuctionPool) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Creator)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCreateAuctionPool) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgCreateAuctionPool) Reset() { *msg = MsgCreateAuctionPool{} }

// String implements proto.Message
func (msg MsgCreateAuctionPool) String() string {
	return fmt.Sprintf("MsgCreateAuctionPool{Creator: %s, SaleDenom: %s, Inventory: %s}", msg.Creator, msg.SaleDenom, msg.Inventory)
}

// XXX_MessageName returns the message type URL for MsgCreateAuctionPool
func (msg *MsgCreateAuctionPool) XXX_MessageName() string {
	return "launchpad.tokensale.v1.MsgCreateAuctionPool"
}

// MsgCreateFixedPricePool opens a constant-price sale funded from the
// creator's balance.
type MsgCreateFixedPricePool struct {
	Creator           string `json:"creator"`
	SaleDenom         string `json:"sale_denom"`
	Inventory         string `json:"inventory"`
	Price             string `json:"price"`
	StartTime         int64  `json:"start_time"`
	EndTime           int64  `json:"end_time"`
	AllowlistRequired bool   `json:"allowlist_required"`
}

// Route implements sdk.Msg
func (msg MsgCreateFixedPricePool) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCreateFixedPricePool) Type() string { return TypeMsgCreateFixedPricePool }

// ValidateBasic implements sdk.Msg
func (msg MsgCreateFixedPricePool) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Creator); err != nil {
		return err
	}
	if msg.SaleDenom == "" {
		return ErrInvalidAsset
	}
	if _, ok := parsePositiveInt(msg.Inventory); !ok {
		return ErrInvalidAmount
	}
	if _, ok := parsePositiveInt(msg.Price); !ok {
		return ErrInvalidCurve
	}
	if msg.StartTime >= msg.EndTime {
		return ErrInvalidWindow
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgCreateFixedPricePool) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Creator)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCreateFixedPricePool) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgCreateFixedPricePool) Reset() { *msg = MsgCreateFixedPricePool{} }

// String implements proto.Message
func (msg MsgCreateFixedPricePool) String() string {
	return fmt.Sprintf("MsgCreateFixedPricePool{Creator: %s, SaleDenom: %s, Price: %s}", msg.Creator, msg.SaleDenom, msg.Price)
}

// XXX_MessageName returns the message type URL for MsgCreateFixedPricePool
func (msg *MsgCreateFixedPricePool) XXX_MessageName() string {
	return "launchpad.tokensale.v1.MsgCreateFixedPricePool"
}

// MsgCreatePoolResponse reports the id assigned to a new pool.
type MsgCreatePoolResponse struct {
	PoolID uint64 `json:"pool_id"`
}

// ProtoMessage implements proto.Message
func (*MsgCreatePoolResponse) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgCreatePoolResponse) Reset() { *msg = MsgCreatePoolResponse{} }

// String implements proto.Message
func (msg MsgCreatePoolResponse) String() string { return fmt.Sprintf("pool %d", msg.PoolID) }

// MsgBuy purchases from a pool at the current unit price. Payment is an
// amount of the chain's payment denom; overpayment beyond a whole number of
// units is refunded.
type MsgBuy struct {
	Buyer   string   `json:"buyer"`
	PoolID  uint64   `json:"pool_id"`
	Payment string   `json:"payment"`
	Proof   []string `json:"proof,omitempty"`
}

// Route implements sdk.Msg
func (msg MsgBuy) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgBuy) Type() string { return TypeMsgBuy }

// ValidateBasic implements sdk.Msg. A zero payment parses fine here; the
// settlement engine classifies it as an insufficient payment.
func (msg MsgBuy) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Buyer); err != nil {
		return err
	}
	if _, ok := parseNonNegativeInt(msg.Payment); !ok {
		return ErrInvalidPayment
	}
	if _, err := DecodeProof(msg.Proof); err != nil {
		return ErrNotAllowed
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgBuy) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Buyer)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgBuy) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgBuy) Reset() { *msg = MsgBuy{} }

// String implements proto.Message
func (msg MsgBuy) String() string {
	return fmt.Sprintf("MsgBuy{Buyer: %s, PoolID: %d, Payment: %s}", msg.Buyer, msg.PoolID, msg.Payment)
}

// XXX_MessageName returns the message type URL for MsgBuy
func (msg *MsgBuy) XXX_MessageName() string {
	return "launchpad.tokensale.v1.MsgBuy"
}

// MsgBuyResponse reports the settled purchase.
type MsgBuyResponse struct {
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Change    string `json:"change"`
}

// ProtoMessage implements proto.Message
func (*MsgBuyResponse) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgBuyResponse) Reset() { *msg = MsgBuyResponse{} }

// String implements proto.Message
func (msg MsgBuyResponse) String() string { return msg.Quantity }

// MsgClosePool deactivates a pool and sweeps unsold inventory back to the
// owner.
type MsgClosePool struct {
	Authority string `json:"authority"`
	PoolID    uint64 `json:"pool_id"`
}

// Route implements sdk.Msg
func (msg MsgClosePool) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgClosePool) Type() string { return TypeMsgClosePool }

// ValidateBasic implements sdk.Msg
func (msg MsgClosePool) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgClosePool) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgClosePool) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgClosePool) Reset() { *msg = MsgClosePool{} }

// String implements proto.Message
func (msg MsgClosePool) String() string {
	return fmt.Sprintf("MsgClosePool{Authority: %s, PoolID: %d}", msg.Authority, msg.PoolID)
}

// XXX_MessageName returns the message type URL for MsgClosePool
func (msg *MsgClosePool) XXX_MessageName() string {
	return "launchpad.tokensale.v1.MsgClosePool"
}

// MsgClosePoolResponse reports the swept inventory.
type MsgClosePoolResponse struct {
	Swept string `json:"swept"`
}

// ProtoMessage implements proto.Message
func (*MsgClosePoolResponse) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgClosePoolResponse) Reset() { *msg = MsgClosePoolResponse{} }

// String implements proto.Message
func (msg MsgClosePoolResponse) String() string { return msg.Swept }

// MsgSetAllowlistRoot replaces the global allowlist commitment. The root is
// opaque to the chain.
type MsgSetAllowlistRoot struct {
	Authority string `json:"authority"`
	Root      string `json:"root"`
}

// Route implements sdk.Msg
func (msg MsgSetAllowlistRoot) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetAllowlistRoot) Type() string { return TypeMsgSetAllowlistRoot }

// ValidateBasic implements sdk.Msg
func (msg MsgSetAllowlistRoot) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	if _, err := hex.DecodeString(msg.Root); err != nil {
		return fmt.Errorf("root is not hex: %w", err)
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetAllowlistRoot) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetAllowlistRoot) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetAllowlistRoot) Reset() { *msg = MsgSetAllowlistRoot{} }

// String implements proto.Message
func (msg MsgSetAllowlistRoot) String() string {
	return fmt.Sprintf("MsgSetAllowlistRoot{Root: %s}", msg.Root)
}

// XXX_MessageName returns the message type URL for MsgSetAllowlistRoot
func (msg *MsgSetAllowlistRoot) XXX_MessageName() string {
	return "launchpad.tokensale.v1.MsgSetAllowlistRoot"
}

// MsgSetAllowlistRootResponse is the response for MsgSetAllowlistRoot
type MsgSetAllowlistRootResponse struct{}

// ProtoMessage implements proto.Message
func (*MsgSetAllowlistRootResponse) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetAllowlistRootResponse) Reset() { *msg = MsgSetAllowlistRootResponse{} }

// String implements proto.Message
func (msg MsgSetAllowlistRootResponse) String() string { return "ok" }

// MsgToggleGlobalAllowlist flips the global allowlist flag.
type MsgToggleGlobalAllowlist struct {
	Authority string `json:"authority"`
	Enabled   bool   `json:"enabled"`
}

// Route implements sdk.Msg
func (msg MsgToggleGlobalAllowlist) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgToggleGlobalAllowlist) Type() string { return TypeMsgToggleGlobalAllowlist }

// ValidateBasic implements sdk.Msg
func (msg MsgToggleGlobalAllowlist) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgToggleGlobalAllowlist) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgToggleGlobalAllowlist) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgToggleGlobalAllowlist) Reset() { *msg = MsgToggleGlobalAllowlist{} }

// String implements proto.Message
func (msg MsgToggleGlobalAllowlist) String() string {
	return fmt.Sprintf("MsgToggleGlobalAllowlist{Enabled: %v}", msg.Enabled)
}

// XXX_MessageName returns the message type URL for MsgToggleGlobalAllowlist
func (msg *MsgToggleGlobalAllowlist) XXX_MessageName() string {
	return "launchpad.tokensale.v1.MsgToggleGlobalAllowlist"
}

// MsgTogglePoolAllowlist flips one pool's allowlist flag.
type MsgTogglePoolAllowlist struct {
	Authority string `json:"authority"`
	PoolID    uint64 `json:"pool_id"`
	Enabled   bool   `json:"enabled"`
}

// Route implements sdk.Msg
func (msg MsgTogglePoolAllowlist) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgTogglePoolAllowlist) Type() string { return TypeMsgTogglePoolAllowlist }

// ValidateBasic implements sdk.Msg
func (msg MsgTogglePoolAllowlist) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgTogglePoolAllowlist) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgTogglePoolAllowlist) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgTogglePoolAllowlist) Reset() { *msg = MsgTogglePoolAllowlist{} }

// String implements proto.Message
func (msg MsgTogglePoolAllowlist) String() string {
	return fmt.Sprintf("MsgTogglePoolAllowlist{PoolID: %d, Enabled: %v}", msg.PoolID, msg.Enabled)
}

// XXX_MessageName returns the message type URL for MsgTogglePoolAllowlist
func (msg *MsgTogglePoolAllowlist) XXX_MessageName() string {
	return "launchpad.tokensale.v1.MsgTogglePoolAllowlist"
}

// MsgToggleAllowlistResponse is the shared response for allowlist toggles
type MsgToggleAllowlistResponse struct {
	Enabled bool `json:"enabled"`
}

// ProtoMessage implements proto.Message
func (*MsgToggleAllowlistResponse) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgToggleAllowlistResponse) Reset() { *msg = MsgToggleAllowlistResponse{} }

// String implements proto.Message
func (msg MsgToggleAllowlistResponse) String() string { return fmt.Sprintf("%v", msg.Enabled) }

// MsgWithdrawProceeds sweeps accumulated sale proceeds to the owner.
type MsgWithdrawProceeds struct {
	Authority string `json:"authority"`
}

// Route implements sdk.Msg
func (msg MsgWithdrawProceeds) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgWithdrawProceeds) Type() string { return TypeMsgWithdrawProceeds }

// ValidateBasic implements sdk.Msg
func (msg MsgWithdrawProceeds) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgWithdrawProceeds) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgWithdrawProceeds) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgWithdrawProceeds) Reset() { *msg = MsgWithdrawProceeds{} }

// String implements proto.Message
func (msg MsgWithdrawProceeds) String() string {
	return fmt.Sprintf("MsgWithdrawProceeds{Authority: %s}", msg.Authority)
}

// XXX_MessageName returns the message type URL for MsgWithdrawProceeds
func (msg *MsgWithdrawProceeds) XXX_MessageName() string {
	return "launchpad.tokensale.v1.MsgWithdrawProceeds"
}

// MsgWithdrawProceedsResponse reports the withdrawn amount.
type MsgWithdrawProceedsResponse struct {
	Amount string `json:"amount"`
}

// ProtoMessage implements proto.Message
func (*MsgWithdrawProceedsResponse) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgWithdrawProceedsResponse) Reset() { *msg = MsgWithdrawProceedsResponse{} }

// String implements proto.Message
func (msg MsgWithdrawProceedsResponse) String() string { return msg.Amount }
