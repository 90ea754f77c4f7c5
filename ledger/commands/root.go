// Package commands is the rentledger command line. Each command opens the
// configured store, runs pending storage migrations and performs one
// operation.
package commands

import "github.com/spf13/cobra"

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rentledger",
		Short:         "Rental marketplace ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		AccountCmd(),
		PropertyCmd(),
		RequestCmd(),
		LeaseCmd(),
		DataCmd(),
	)
	return rootCmd
}
