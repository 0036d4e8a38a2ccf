package types

import (
	"errors"
	"testing"
)

var (
	goodAddr  = member("creator").String()
	otherAddr = member("someone").String()
)

func validAuctionMsg() MsgCreateAuctionPool {
	return MsgCreateAuctionPool{
		Creator:    goodAddr,
		SaleDenom:  "ulaunch",
		Inventory:  "1000",
		StartPrice: "100",
		EndPrice:   "50",
		StartTime:  1000,
		EndTime:    2000,
	}
}

// TestMsgCreateAuctionPoolValidateBasic tests stateless creation checks
func TestMsgCreateAuctionPoolValidateBasic(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(msg *MsgCreateAuctionPool)
		wantErr error
	}{
		{"valid", func(msg *MsgCreateAuctionPool) {}, nil},
		{"empty denom", func(msg *MsgCreateAuctionPool) { msg.SaleDenom = "" }, ErrInvalidAsset},
		{"zero inventory", func(msg *MsgCreateAuctionPool) { msg.Inventory = "0" }, ErrInvalidAmount},
		{"negative inventory", func(msg *MsgCreateAuctionPool) { msg.Inventory = "-3" }, ErrInvalidAmount},
		{"garbage inventory", func(msg *MsgCreateAuctionPool) { msg.Inventory = "lots" }, ErrInvalidAmount},
		{"negative start price", func(msg *MsgCreateAuctionPool) { msg.StartPrice = "-1" }, ErrInvalidCurve},
		{"garbage end price", func(msg *MsgCreateAuctionPool) { msg.EndPrice = "cheap" }, ErrInvalidCurve},
		{"flat curve", func(msg *MsgCreateAuctionPool) { msg.EndPrice = "100" }, ErrInvalidCurve},
		{"rising curve", func(msg *MsgCreateAuctionPool) { msg.StartPrice = "10"; msg.EndPrice = "20" }, ErrInvalidCurve},
		{"inverted window", func(msg *MsgCreateAuctionPool) { msg.StartTime = 3000 }, ErrInvalidWindow},
		{"empty window", func(msg *MsgCreateAuctionPool) { msg.StartTime = 2000 }, ErrInvalidWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validAuctionMsg()
			tt.mutate(&msg)
			err := msg.ValidateBasic()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	// Malformed creator address fails before field checks.
	msg := validAuctionMsg()
	msg.Creator = "not-bech32"
	if err := msg.ValidateBasic(); err == nil {
		t.Error("expected address parse error")
	}
}

// TestMsgCreateFixedPricePoolValidateBasic tests the flat-price variant
func TestMsgCreateFixedPricePoolValidateBasic(t *testing.T) {
	valid := MsgCreateFixedPricePool{
		Creator:   goodAddr,
		SaleDenom: "ulaunch",
		Inventory: "500",
		Price:     "10",
		StartTime: 1000,
		EndTime:   2000,
	}
	if err := valid.ValidateBasic(); err != nil {
		t.Fatalf("expected valid msg, got %v", err)
	}

	zeroPrice := valid
	zeroPrice.Price = "0"
	if err := zeroPrice.ValidateBasic(); !errors.Is(err, ErrInvalidCurve) {
		t.Errorf("expected ErrInvalidCurve for zero price, got %v", err)
	}

	badWindow := valid
	badWindow.EndTime = badWindow.StartTime
	if err := badWindow.ValidateBasic(); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}

// TestMsgBuyValidateBasic tests purchase message checks; a zero payment is
// left for the settlement engine to classify
func TestMsgBuyValidateBasic(t *testing.T) {
	valid := MsgBuy{Buyer: goodAddr, PoolID: 1, Payment: "105"}
	if err := valid.ValidateBasic(); err != nil {
		t.Fatalf("expected valid msg, got %v", err)
	}

	zero := valid
	zero.Payment = "0"
	if err := zero.ValidateBasic(); err != nil {
		t.Errorf("zero payment should pass stateless checks, got %v", err)
	}

	negative := valid
	negative.Payment = "-5"
	if err := negative.ValidateBasic(); !errors.Is(err, ErrInvalidPayment) {
		t.Errorf("expected ErrInvalidPayment, got %v", err)
	}

	garbage := valid
	garbage.Payment = "a lot"
	if err := garbage.ValidateBasic(); !errors.Is(err, ErrInvalidPayment) {
		t.Errorf("expected ErrInvalidPayment, got %v", err)
	}

	withProof := valid
	withProof.Proof = []string{"deadbeef", "00ff"}
	if err := withProof.ValidateBasic(); err != nil {
		t.Errorf("hex proof should pass, got %v", err)
	}

	badProof := valid
	badProof.Proof = []string{"zz"}
	if err := badProof.ValidateBasic(); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("expected ErrNotAllowed for bad proof, got %v", err)
	}
}

// TestMsgSetAllowlistRootValidateBasic tests root encoding checks
func TestMsgSetAllowlistRootValidateBasic(t *testing.T) {
	valid := MsgSetAllowlistRoot{Authority: goodAddr, Root: "ab12cd"}
	if err := valid.ValidateBasic(); err != nil {
		t.Fatalf("expected valid msg, got %v", err)
	}

	// An empty root clears the commitment and is legal.
	empty := MsgSetAllowlistRoot{Authority: goodAddr, Root: ""}
	if err := empty.ValidateBasic(); err != nil {
		t.Errorf("empty root should pass, got %v", err)
	}

	bad := MsgSetAllowlistRoot{Authority: goodAddr, Root: "xyz"}
	if err := bad.ValidateBasic(); err == nil {
		t.Error("expected error for non-hex root")
	}
}

// TestMsgSigners tests that each message is signed by its actor
func TestMsgSigners(t *testing.T) {
	if got := (MsgCreateAuctionPool{Creator: goodAddr}).GetSigners(); got[0].String() != goodAddr {
		t.Errorf("auction create signer %s, want %s", got[0], goodAddr)
	}
	if got := (MsgBuy{Buyer: otherAddr}).GetSigners(); got[0].String() != otherAddr {
		t.Errorf("buy signer %s, want %s", got[0], otherAddr)
	}
	if got := (MsgClosePool{Authority: goodAddr}).GetSigners(); got[0].String() != goodAddr {
		t.Errorf("close signer %s, want %s", got[0], goodAddr)
	}
	if got := (MsgWithdrawProceeds{Authority: goodAddr}).GetSigners(); got[0].String() != goodAddr {
		t.Errorf("withdraw signer %s, want %s", got[0], goodAddr)
	}
}

// TestDecodeProof tests hex proof decoding
func TestDecodeProof(t *testing.T) {
	out, err := DecodeProof([]string{"deadbeef", ""})
	if err != nil {
		t.Fatalf("DecodeProof: %v", err)
	}
	if len(out) != 2 || len(out[0]) != 4 || len(out[1]) != 0 {
		t.Errorf("unexpected decode shape: %v", out)
	}

	if _, err := DecodeProof([]string{"nope"}); err == nil {
		t.Error("expected decode error")
	}

	out, err = DecodeProof(nil)
	if err != nil {
		t.Fatalf("DecodeProof(nil): %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty proof, got %v", out)
	}
}
