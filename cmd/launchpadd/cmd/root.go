package cmd

import (
	"errors"
	"io"
	"os"
	"time"

	"cosmossdk.io/log"
	confixcmd "cosmossdk.io/tools/confix/cmd"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/config"
	"github.com/cosmos/cosmos-sdk/client/debug"
	"github.com/cosmos/cosmos-sdk/client/keys"
	"github.com/cosmos/cosmos-sdk/client/pruning"
	"github.com/cosmos/cosmos-sdk/client/snapshot"
	"github.com/cosmos/cosmos-sdk/server"
	serverconfig "github.com/cosmos/cosmos-sdk/server/config"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	authcli "github.com/cosmos/cosmos-sdk/x/auth/client/cli"
	"github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/cosmos/cosmos-sdk/x/crisis"
	genutilcli "github.com/cosmos/cosmos-sdk/x/genutil/client/cli"
	"github.com/spf13/cobra"

	tmcfg "github.com/cometbft/cometbft/config"

	"github.com/openalpha/launchpad/app"
	tokensalecli "github.com/openalpha/launchpad/x/tokensale/client/cli"
	tokensaletypes "github.com/openalpha/launchpad/x/tokensale/types"
)

// NewRootCmd creates a new root command for launchpadd
func NewRootCmd() *cobra.Command {
	// Set config
	initSDKConfig()

	tempApp := app.NewApp(
		log.NewNopLogger(),
		dbm.NewMemDB(),
		nil,
		false,
		nil,
	)
	encodingConfig := app.MakeEncodingConfig()

	initClientCtx := client.Context{}.
		WithCodec(encodingConfig.Codec).
		WithInterfaceRegistry(encodingConfig.InterfaceRegistry).
		WithTxConfig(encodingConfig.TxConfig).
		WithLegacyAmino(encodingConfig.Amino).
		WithInput(os.Stdin).
		WithAccountRetriever(types.AccountRetriever{}).
		WithHomeDir(app.DefaultNodeHome).
		WithViper("LAUNCHPAD")

	rootCmd := &cobra.Command{
		Use:   "launchpadd",
		Short: "Launchpad - Token Sale Platform",
		Long: `Launchpad is a token sale platform built on Cosmos SDK.
It runs owner-curated sale pools: declining-price auctions and
fixed-price sales, with optional Merkle allowlist gating.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Set the default command outputs
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			initClientCtx = initClientCtx.WithCmdContext(cmd.Context())
			initClientCtx, err := client.ReadPersistentCommandFlags(initClientCtx, cmd.Flags())
			if err != nil {
				return err
			}

			initClientCtx, err = config.ReadFromClientConfig(initClientCtx)
			if err != nil {
				return err
			}

			if err := client.SetCmdClientContextHandler(initClientCtx, cmd); err != nil {
				return err
			}

			customAppTemplate, customAppConfig := initAppConfig()
			customCMTConfig := initCometBFTConfig()

			return server.InterceptConfigsPreRunHandler(cmd, customAppTemplate, customAppConfig, customCMTConfig)
		},
	}

	initRootCmd(rootCmd, encodingConfig, tempApp.BasicModuleManager)

	return rootCmd
}

func initRootCmd(rootCmd *cobra.Command, encodingConfig app.EncodingConfig, basicManager module.BasicManager) {
	rootCmd.AddCommand(
		genutilcli.InitCmd(basicManager, app.DefaultNodeHome),
		debug.Cmd(),
		confixcmd.ConfigCommand(),
		pruning.Cmd(newApp, app.DefaultNodeHome),
		snapshot.Cmd(newApp),
	)

	server.AddCommands(rootCmd, app.DefaultNodeHome, newApp, appExport, addModuleInitFlags)

	// Add genesis commands
	genesisCmd := genutilcli.Commands(encodingConfig.TxConfig, basicManager, app.DefaultNodeHome)
	rootCmd.AddCommand(genesisCmd)

	// Add query commands
	queryCmd := &cobra.Command{
		Use:                        "query",
		Aliases:                    []string{"q"},
		Short:                      "Querying subcommands",
		DisableFlagParsing:         false,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	queryCmd.AddCommand(
		authcli.QueryTxsByEventsCmd(),
		authcli.QueryTxCmd(),
		tokensalecli.GetQueryCmd(),
	)
	rootCmd.AddCommand(queryCmd)

	// Add transaction commands
	txCmd := &cobra.Command{
		Use:                        "tx",
		Short:                      "Transactions subcommands",
		DisableFlagParsing:         false,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	txCmd.AddCommand(
		authcli.GetSignCommand(),
		authcli.GetBroadcastCommand(),
		tokensalecli.GetTxCmd(),
	)
	rootCmd.AddCommand(txCmd)

	// Add keybase commands
	rootCmd.AddCommand(
		keys.Commands(),
		VersionCmd(),
	)
}

func addModuleInitFlags(startCmd *cobra.Command) {
	crisis.AddModuleInitFlags(startCmd)
}

// newApp creates a new Cosmos SDK app
func newApp(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	appOpts servertypes.AppOptions,
) servertypes.Application {
	baseappOptions := server.DefaultBaseappOptions(appOpts)

	return app.NewApp(
		logger,
		db,
		traceStore,
		true,
		appOpts,
		baseappOptions...,
	)
}

// appExport creates a new app (optionally at a given height) and exports state
func appExport(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	height int64,
	forZeroHeight bool,
	jailAllowedAddrs []string,
	appOpts servertypes.AppOptions,
	modulesToExport []string,
) (servertypes.ExportedApp, error) {
	// Create app without loading latest version
	launchpadApp := app.NewApp(
		logger,
		db,
		traceStore,
		false,
		appOpts,
	)

	if height != -1 {
		if err := launchpadApp.LoadHeight(height); err != nil {
			return servertypes.ExportedApp{}, err
		}
	}

	return servertypes.ExportedApp{}, errors.New("export not implemented")
}

// initSDKConfig initializes the SDK config
func initSDKConfig() {
	// Set prefixes (optional, using defaults)
}

// TokensaleAppConfig is the app.toml section for the sale engine
type TokensaleAppConfig struct {
	// Owner is the bech32 address allowed to create and administer sale
	// pools. Empty means the governance module account.
	Owner string `mapstructure:"owner"`

	// PaymentDenom is the denom buyers pay with.
	PaymentDenom string `mapstructure:"payment-denom"`
}

// initAppConfig returns custom app config template and config
func initAppConfig() (string, interface{}) {
	type CustomAppConfig struct {
		serverconfig.Config

		Tokensale TokensaleAppConfig `mapstructure:"tokensale"`
	}

	customAppConfig := CustomAppConfig{
		Config: *serverconfig.DefaultConfig(),
		Tokensale: TokensaleAppConfig{
			Owner:        "",
			PaymentDenom: tokensaletypes.DefaultPaymentDenom,
		},
	}

	customAppTemplate := serverconfig.DefaultConfigTemplate + `
###############################################################################
###                             Token Sale                                  ###
###############################################################################

[tokensale]

# Address allowed to create and administer sale pools.
# Leave empty to use the governance module account.
owner = "{{ .Tokensale.Owner }}"

# Denom buyers pay with.
payment-denom = "{{ .Tokensale.PaymentDenom }}"
`

	return customAppTemplate, customAppConfig
}

// initCometBFTConfig returns custom CometBFT config tuned for sale traffic
func initCometBFTConfig() *tmcfg.Config {
	cfg := tmcfg.DefaultConfig()

	// ===========================================
	// Consensus Configuration - Fast Block Times
	// ===========================================
	// Auction prices decay per second, so buyers need their transactions
	// included quickly around the quoted price.
	cfg.Consensus.TimeoutPropose = 500 * time.Millisecond
	cfg.Consensus.TimeoutProposeDelta = 100 * time.Millisecond

	// Reduce timeout for prevote step
	cfg.Consensus.TimeoutPrevote = 500 * time.Millisecond
	cfg.Consensus.TimeoutPrevoteDelta = 100 * time.Millisecond

	// Reduce timeout for precommit step
	cfg.Consensus.TimeoutPrecommit = 500 * time.Millisecond
	cfg.Consensus.TimeoutPrecommitDelta = 100 * time.Millisecond

	// Reduce commit timeout - this is the key parameter for block time
	cfg.Consensus.TimeoutCommit = 500 * time.Millisecond

	// Skip timeout commit when block is empty (faster empty blocks)
	cfg.Consensus.SkipTimeoutCommit = false

	// ===========================================
	// Mempool Configuration - Launch Bursts
	// ===========================================
	// Sale opens concentrate demand into the first blocks, so keep a deep
	// mempool to absorb the burst.
	cfg.Mempool.Size = 10000

	// Increase max transaction bytes (10 MB)
	cfg.Mempool.MaxTxBytes = 10485760

	// Increase max transactions per block
	cfg.Mempool.MaxTxsBytes = 104857600 // 100 MB

	// Enable recheck for faster tx processing
	cfg.Mempool.Recheck = true

	// Keep invalid transactions in cache for faster rejection
	cfg.Mempool.KeepInvalidTxsInCache = false

	// ===========================================
	// P2P Configuration - Low Latency
	// ===========================================
	// Reduce flush throttle timeout for faster message delivery
	cfg.P2P.FlushThrottleTimeout = 10 * time.Millisecond

	// Increase send/receive rates for better throughput
	cfg.P2P.SendRate = 20480000 // 20 MB/s
	cfg.P2P.RecvRate = 20480000 // 20 MB/s

	// Increase max packet payload size
	cfg.P2P.MaxPacketMsgPayloadSize = 10240 // 10 KB

	return cfg
}

// VersionCmd returns a command to print the version
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Launchpad v0.1.0")
		},
	}
}
