package cli

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cosmossdk.io/math"
	tmbytes "github.com/cometbft/cometbft/libs/bytes"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/launchpad/x/tokensale/keeper"
	"github.com/openalpha/launchpad/x/tokensale/types"
)

// GetQueryCmd returns the cli query commands for the tokensale module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "tokensale",
		Short:                      "Querying commands for the tokensale module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPool(),
		CmdQueryPoolCount(),
		CmdQueryAllowlistState(),
		CmdQueryProceeds(),
		CmdPricePreview(),
		CmdAllowlistRoot(),
		CmdAllowlistProof(),
	)

	return cmd
}

// CmdQueryPool returns the command to fetch one pool from state
func CmdQueryPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool [pool-id]",
		Short: "Query a sale pool by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			poolID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pool id: %v", err)
			}

			bz, _, err := clientCtx.QueryStore(tmbytes.HexBytes(keeper.PoolKey(poolID)), types.StoreKey)
			if err != nil {
				return err
			}
			if len(bz) == 0 {
				return fmt.Errorf("pool not found: %d", poolID)
			}

			// Pools are stored as JSON; re-indent for the terminal.
			var out bytes.Buffer
			if err := json.Indent(&out, bz, "", "  "); err != nil {
				return err
			}
			fmt.Println(out.String())
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPoolCount returns the command to fetch the registry size
func CmdQueryPoolCount() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Query the number of pools ever created",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			bz, _, err := clientCtx.QueryStore(tmbytes.HexBytes(keeper.PoolCountKey), types.StoreKey)
			if err != nil {
				return err
			}
			count := uint64(0)
			if len(bz) > 0 {
				count = sdk.BigEndianToUint64(bz)
			}
			fmt.Println(count)
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryAllowlistState returns the command to fetch the allowlist flag and
// committed root
func CmdQueryAllowlistState() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allowlist-state",
		Short: "Query the global allowlist flag and committed root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			rootBz, _, err := clientCtx.QueryStore(tmbytes.HexBytes(keeper.AllowlistRootKey), types.StoreKey)
			if err != nil {
				return err
			}
			enabledBz, _, err := clientCtx.QueryStore(tmbytes.HexBytes(keeper.AllowlistEnabledKey), types.StoreKey)
			if err != nil {
				return err
			}

			state := types.AllowlistState{
				Enabled: len(enabledBz) == 1 && enabledBz[0] == 1,
				Root:    hex.EncodeToString(rootBz),
			}
			output, _ := json.MarshalIndent(state, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryProceeds returns the command to fetch the undrawn sale proceeds
func CmdQueryProceeds() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proceeds",
		Short: "Query accumulated, not yet withdrawn sale proceeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			bz, _, err := clientCtx.QueryStore(tmbytes.HexBytes(keeper.ProceedsKey), types.StoreKey)
			if err != nil {
				return err
			}
			proceeds := math.ZeroInt()
			if len(bz) > 0 {
				if err := proceeds.Unmarshal(bz); err != nil {
					return err
				}
			}
			fmt.Println(proceeds.String())
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdPricePreview returns the command to compute the decaying curve locally
func CmdPricePreview() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price-preview [start-price] [end-price] [start-time] [end-time] [at-time]",
		Short: "Compute the decaying unit price at a point in time, offline",
		Long: `Compute the decaying unit price for a hypothetical pool at a point in
time, using the same integer curve the chain applies. Useful for checking a
sale schedule before creating the pool.

Example:
  launchpadd query tokensale price-preview 100 50 1760000000 1760086400 1760043200`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			startPrice, ok := math.NewIntFromString(args[0])
			if !ok {
				return fmt.Errorf("invalid start price: %s", args[0])
			}
			endPrice, ok := math.NewIntFromString(args[1])
			if !ok {
				return fmt.Errorf("invalid end price: %s", args[1])
			}
			times := make([]int64, 3)
			for i, arg := range args[2:] {
				v, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid time %q: %v", arg, err)
				}
				times[i] = v
			}

			pool := types.Pool{
				Kind:       types.PoolKindAuction,
				StartPrice: startPrice,
				EndPrice:   endPrice,
				StartTime:  times[0],
				EndTime:    times[1],
			}
			price, err := pool.AuctionPriceAt(times[2])
			if err != nil {
				return err
			}
			fmt.Println(price.String())
			return nil
		},
	}

	return cmd
}

// CmdAllowlistRoot returns the command to build a Merkle root from a member
// file
func CmdAllowlistRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allowlist-root [member-file]",
		Short: "Build the allowlist Merkle root from a file of addresses",
		Long: `Build the allowlist Merkle root from a file with one bech32 address per
line (blank lines and lines starting with '#' are skipped). Commit the
printed root with 'tx tokensale set-allowlist-root'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := readMemberFile(args[0])
			if err != nil {
				return err
			}
			tree := types.NewAllowlistTree(members)
			if tree.Size() == 0 {
				return fmt.Errorf("no members in %s", args[0])
			}

			output, _ := json.MarshalIndent(map[string]interface{}{
				"root":    hex.EncodeToString(tree.Root()),
				"members": tree.Size(),
			}, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	return cmd
}

// CmdAllowlistProof returns the command to build one member's proof from a
// member file
func CmdAllowlistProof() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allowlist-proof [member-file] [address]",
		Short: "Build a membership proof against the file's Merkle root",
		Long: `Build the Merkle proof for one address against the root implied by the
member file. The printed proof feeds the --proof flag of
'tx tokensale buy'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := readMemberFile(args[0])
			if err != nil {
				return err
			}
			addr, err := sdk.AccAddressFromBech32(args[1])
			if err != nil {
				return fmt.Errorf("invalid address: %v", err)
			}

			tree := types.NewAllowlistTree(members)
			proof, ok := tree.Proof(addr)
			if !ok {
				return fmt.Errorf("%s is not in %s", args[1], args[0])
			}

			nodes := make([]string, len(proof))
			for i, node := range proof {
				nodes[i] = hex.EncodeToString(node)
			}
			output, _ := json.MarshalIndent(map[string]interface{}{
				"root":  hex.EncodeToString(tree.Root()),
				"proof": strings.Join(nodes, ","),
			}, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	return cmd
}

// readMemberFile parses one bech32 address per line, skipping blanks and
// '#' comments.
func readMemberFile(path string) ([]sdk.AccAddress, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var members []sdk.AccAddress
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addr, err := sdk.AccAddressFromBech32(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", i+1, err)
		}
		members = append(members, addr)
	}
	return members, nil
}
