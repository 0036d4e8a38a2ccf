package tokensale

import (
	"encoding/json"

	"cosmossdk.io/core/appmodule"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	"github.com/grpc-ecosystem/grpc-gateway/runtime"

	"github.com/openalpha/launchpad/x/tokensale/keeper"
	"github.com/openalpha/launchpad/x/tokensale/types"
)

const (
	ModuleName = types.ModuleName
)

var (
	_ module.AppModuleBasic = AppModuleBasic{}
	_ appmodule.AppModule   = AppModule{}
)

// AppModuleBasic defines the basic application module for tokensale
type AppModuleBasic struct{}

// Name returns the module's name
func (AppModuleBasic) Name() string {
	return ModuleName
}

// RegisterLegacyAminoCodec registers the module's types on the given LegacyAmino codec
func (AppModuleBasic) RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&types.MsgCreateAuctionPool{}, "tokensale/MsgCreateAuctionPool", nil)
	cdc.RegisterConcrete(&types.MsgCreateFixedPricePool{}, "tokensale/MsgCreateFixedPricePool", nil)
	cdc.RegisterConcrete(&types.MsgBuy{}, "tokensale/MsgBuy", nil)
	cdc.RegisterConcrete(&types.MsgClosePool{}, "tokensale/MsgClosePool", nil)
	cdc.RegisterConcrete(&types.MsgSetAllowlistRoot{}, "tokensale/MsgSetAllowlistRoot", nil)
	cdc.RegisterConcrete(&types.MsgToggleGlobalAllowlist{}, "tokensale/MsgToggleGlobalAllowlist", nil)
	cdc.RegisterConcrete(&types.MsgTogglePoolAllowlist{}, "tokensale/MsgTogglePoolAllowlist", nil)
	cdc.RegisterConcrete(&types.MsgWithdrawProceeds{}, "tokensale/MsgWithdrawProceeds", nil)
}

// RegisterInterfaces registers the module's interface types
func (AppModuleBasic) RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	types.RegisterInterfaces(registry)
}

// DefaultGenesis returns default genesis state as raw bytes
func (AppModuleBasic) DefaultGenesis(cdc codec.JSONCodec) json.RawMessage {
	return nil
}

// ValidateGenesis performs genesis state validation
func (AppModuleBasic) ValidateGenesis(cdc codec.JSONCodec, config client.TxEncodingConfig, bz json.RawMessage) error {
	return nil
}

// RegisterGRPCGatewayRoutes registers the gRPC Gateway routes for the module
func (AppModuleBasic) RegisterGRPCGatewayRoutes(clientCtx client.Context, mux *runtime.ServeMux) {
	// TODO: Register gRPC gateway routes when proto generation is set up
}

// AppModule implements an application module for the tokensale module
type AppModule struct {
	AppModuleBasic
	keeper *keeper.Keeper
}

// NewAppModule creates a new AppModule object
func NewAppModule(k *keeper.Keeper) AppModule {
	return AppModule{
		AppModuleBasic: AppModuleBasic{},
		keeper:         k,
	}
}

// Name returns the module's name
func (am AppModule) Name() string {
	return ModuleName
}

// RegisterServices registers module services
func (am AppModule) RegisterServices(cfg module.Configurator) {
	// Messages are routed through the custom MsgServer until proto service
	// generation is wired up.
	_ = keeper.NewMsgServerImpl(am.keeper)
}

// IsOnePerModuleType implements the depinject.OnePerModuleType interface
func (am AppModule) IsOnePerModuleType() {}

// IsAppModule implements the appmodule.AppModule interface
func (am AppModule) IsAppModule() {}
