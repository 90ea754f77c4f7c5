package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentledger/ledger"
)

func AccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the connected wallet account",
	}
	cmd.AddCommand(connectCmd(), disconnectCmd(), showAccountCmd(), roleCmd())
	return cmd
}

func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect [address]",
		Short: "Connect a wallet address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				role, err := store.Connect(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Connected %s as %s\n", store.Account(), role)
				return nil
			})
		},
	}
}

func disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the connected account and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				if err := store.Disconnect(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
				return nil
			})
		},
	}
}

func showAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the connected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				out := cmd.OutOrStdout()
				if store.Account() == "" {
					fmt.Fprintln(out, "No account connected")
					return nil
				}
				fmt.Fprintf(out, "Account: %s\n", store.Account())
				fmt.Fprintf(out, "Role:    %s\n", store.Role())
				return nil
			})
		},
	}
}

func roleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role [landlord|tenant]",
		Short: "Switch the role of the connected account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				role := ledger.Role(strings.ToLower(args[0]))
				if err := store.SetRole(ctx, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Role set to %s\n", role)
				return nil
			})
		},
	}
}
