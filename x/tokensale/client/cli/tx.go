package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/launchpad/x/tokensale/types"
)

const flagAllowlist = "allowlist"

// GetTxCmd returns the transaction commands for the tokensale module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "tokensale",
		Short:                      "Token sale module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdCreateAuctionPool(),
		CmdCreateFixedPricePool(),
		CmdBuy(),
		CmdClosePool(),
		CmdSetAllowlistRoot(),
		CmdToggleGlobalAllowlist(),
		CmdTogglePoolAllowlist(),
		CmdWithdrawProceeds(),
	)

	return cmd
}

// CmdCreateAuctionPool returns the command to open a decaying-price pool
func CmdCreateAuctionPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-auction [sale-denom] [inventory] [start-price] [end-price] [start-time] [end-time]",
		Short: "Open a decaying-price sale pool",
		Long: `Open a sale pool whose unit price decays linearly from start-price to
end-price over the sale window. Times are unix seconds and must lie in the
future. The inventory is pulled from the creator into module custody.

Examples:
  launchpadd tx tokensale create-auction ulaunch 1000000 100 50 1760000000 1760086400 --from owner
  launchpadd tx tokensale create-auction ulaunch 500000 20 5 1760000000 1760604800 --allowlist --from owner`,
		Args: cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			startTime, err := strconv.ParseInt(args[4], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid start time: %v", err)
			}
			endTime, err := strconv.ParseInt(args[5], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid end time: %v", err)
			}
			allowlist, err := cmd.Flags().GetBool(flagAllowlist)
			if err != nil {
				return err
			}

			msg := &types.MsgCreateAuctionPool{
				Creator:           clientCtx.GetFromAddress().String(),
				SaleDenom:         args[0],
				Inventory:         args[1],
				StartPrice:        args[2],
				EndPrice:          args[3],
				StartTime:         startTime,
				EndTime:           endTime,
				AllowlistRequired: allowlist,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Bool(flagAllowlist, false, "gate purchases on the global allowlist")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdCreateFixedPricePool returns the command to open a constant-price pool
func CmdCreateFixedPricePool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-fixed [sale-denom] [inventory] [price] [start-time] [end-time]",
		Short: "Open a fixed-price sale pool",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			startTime, err := strconv.ParseInt(args[3], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid start time: %v", err)
			}
			endTime, err := strconv.ParseInt(args[4], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid end time: %v", err)
			}
			allowlist, err := cmd.Flags().GetBool(flagAllowlist)
			if err != nil {
				return err
			}

			msg := &types.MsgCreateFixedPricePool{
				Creator:           clientCtx.GetFromAddress().String(),
				SaleDenom:         args[0],
				Inventory:         args[1],
				Price:             args[2],
				StartTime:         startTime,
				EndTime:           endTime,
				AllowlistRequired: allowlist,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Bool(flagAllowlist, false, "gate purchases on the global allowlist")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdBuy returns the command to purchase from a pool
func CmdBuy() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy [pool-id] [payment]",
		Short: "Buy from a sale pool at the current unit price",
		Long: `Buy from a sale pool. The payment is an amount of the chain's payment
denom; it converts into whole units at the current unit price and any
remainder is refunded. Allowlisted pools need --proof with the comma
separated hex nodes produced by 'query tokensale allowlist-proof'.

Examples:
  launchpadd tx tokensale buy 0 1050 --from buyer
  launchpadd tx tokensale buy 3 500 --proof ab12...,cd34... --from buyer`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			poolID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pool id: %v", err)
			}
			proofArg, err := cmd.Flags().GetString("proof")
			if err != nil {
				return err
			}
			var proof []string
			if proofArg != "" {
				proof = strings.Split(proofArg, ",")
			}

			msg := &types.MsgBuy{
				Buyer:   clientCtx.GetFromAddress().String(),
				PoolID:  poolID,
				Payment: args[1],
				Proof:   proof,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().String("proof", "", "comma separated hex allowlist proof nodes")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdClosePool returns the command to close a pool and sweep its inventory
func CmdClosePool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close-pool [pool-id]",
		Short: "Close a sale pool and sweep unsold inventory to the owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			poolID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pool id: %v", err)
			}

			msg := &types.MsgClosePool{
				Authority: clientCtx.GetFromAddress().String(),
				PoolID:    poolID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetAllowlistRoot returns the command to commit a new allowlist root
func CmdSetAllowlistRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-allowlist-root [hex-root]",
		Short: "Replace the committed allowlist root",
		Long: `Replace the committed allowlist root. Build the root from a member
file with 'query tokensale allowlist-root'. An empty string clears the
commitment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			if _, err := hex.DecodeString(args[0]); err != nil {
				return fmt.Errorf("root is not hex: %v", err)
			}

			msg := &types.MsgSetAllowlistRoot{
				Authority: clientCtx.GetFromAddress().String(),
				Root:      args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdToggleGlobalAllowlist returns the command to flip the global gate
func CmdToggleGlobalAllowlist() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle-global-allowlist [on|off]",
		Short: "Enable or disable the global allowlist gate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			enabled, err := parseOnOff(args[0])
			if err != nil {
				return err
			}

			msg := &types.MsgToggleGlobalAllowlist{
				Authority: clientCtx.GetFromAddress().String(),
				Enabled:   enabled,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdTogglePoolAllowlist returns the command to flip one pool's gate
func CmdTogglePoolAllowlist() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle-pool-allowlist [pool-id] [on|off]",
		Short: "Enable or disable the allowlist gate for one pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			poolID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pool id: %v", err)
			}
			enabled, err := parseOnOff(args[1])
			if err != nil {
				return err
			}

			msg := &types.MsgTogglePoolAllowlist{
				Authority: clientCtx.GetFromAddress().String(),
				PoolID:    poolID,
				Enabled:   enabled,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdWithdrawProceeds returns the command to pay out accumulated proceeds
func CmdWithdrawProceeds() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw-proceeds",
		Short: "Pay accumulated sale proceeds out to the owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgWithdrawProceeds{
				Authority: clientCtx.GetFromAddress().String(),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "enabled":
		return true, nil
	case "off", "false", "disabled":
		return false, nil
	default:
		return false, fmt.Errorf("invalid flag value: %s (use 'on' or 'off')", s)
	}
}
