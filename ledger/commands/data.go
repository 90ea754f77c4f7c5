package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/ledger/migrate"
	"github.com/beesaferoot/rentledger/ledger/persist"
)

func DataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Sample data, storage migrations and maintenance",
	}
	cmd.AddCommand(seedCmd(), restoreCmd(), resetCmd(), statsCmd(), MigrateCmd(), StatusCmd(), HistoryCmd(), ValidateCmd())
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace all properties with the sample listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				if err := store.SeedSamples(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Sample properties added. Search for 'New York', 'London', or 'Tokyo'")
				return nil
			})
		},
	}
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Add missing sample listings and keep existing data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				added, err := store.RestoreSamples(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d sample properties\n", added)
				return nil
			})
		},
	}
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all properties, requests, leases and the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("refusing to clear all data without --yes")
			}
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				if err := store.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All data cleared")
				return nil
			})
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm clearing every collection")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count the records in each collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				st := store.Stats()
				out := cmd.OutOrStdout()
				account := store.Account()
				if account == "" {
					account = "not connected"
				}
				fmt.Fprintf(out, "Account:           %s\n", account)
				fmt.Fprintf(out, "Properties:        %d (%d available, %d leased)\n", st.Properties, st.Available, st.Leased)
				fmt.Fprintf(out, "Pending requests:  %d\n", st.PendingRequests)
				fmt.Fprintf(out, "Accepted requests: %d\n", st.AcceptedRequests)
				fmt.Fprintf(out, "Open drafts:       %d\n", st.OpenDrafts)
				fmt.Fprintf(out, "Leases:            %d\n", st.Leases)
				return nil
			})
		},
	}
}

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending storage migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			_, backend, err := openBackend()
			if err != nil {
				return err
			}
			defer backend.Close()

			migrator := migrate.NewMigrator(backend)
			out := cmd.OutOrStdout()
			if dryRun {
				pending, err := migrator.Pending(cmdContext(cmd))
				if err != nil {
					return fmt.Errorf("failed to get pending migrations: %w", err)
				}
				for _, m := range pending {
					fmt.Fprintf(out, "Would apply %s_%s\n", m.Version, m.Name)
				}
				return nil
			}

			ran, err := migrator.Up(cmdContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}
			if len(ran) == 0 {
				fmt.Fprintln(out, "No pending migrations")
				return nil
			}
			for _, m := range ran {
				fmt.Fprintf(out, "Applied %s_%s\n", m.Version, m.Name)
			}
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Show pending migrations without applying them")
	return cmd
}

func HistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show applied storage migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, backend, err := openBackend()
			if err != nil {
				return err
			}
			defer backend.Close()

			records, err := migrate.NewMigrator(backend).History(cmdContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to get migration history: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No migrations applied")
				return nil
			}
			fmt.Fprintf(out, "%-16s  %-30s  %s\n", "Version", "Name", "Applied At")
			for _, r := range records {
				fmt.Fprintf(out, "%-16s  %-30s  %s\n", r.Version, r.Name, r.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show status of all storage migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, backend, err := openBackend()
			if err != nil {
				return err
			}
			defer backend.Close()

			applied, err := migrate.NewMigrator(backend).GetAppliedVersions(cmdContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to get applied migrations: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-16s  %-30s  %-10s  %-8s\n", "Version", "Name", "Created", "Status")
			for _, m := range migrate.GetRegisteredMigrations() {
				status := "Pending"
				if applied[m.Version] {
					status = "Applied"
				}
				fmt.Fprintf(out, "%-16s  %-30s  %-10s  %-8s\n", m.Version, m.Name, m.CreatedAt.Format("2006-01-02"), status)
			}
			return nil
		},
	}
}

// ValidateCmd decodes every stored collection and reports its size against
// the configured ceiling.
func ValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check stored collections against their schemas and ceilings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, err := openBackend()
			if err != nil {
				return err
			}
			defer backend.Close()

			ctx := cmdContext(cmd)
			limits := limitsFrom(cfg)
			adapter, err := persist.New(backend, limits)
			if err != nil {
				return err
			}
			if _, err := adapter.Load(ctx); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			usage, err := adapter.Usage(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range []struct {
				key   string
				limit int
			}{
				{persist.KeyProperties, limits.Properties},
				{persist.KeyLeaseRequests, limits.LeaseRequests},
				{persist.KeyLeases, limits.Leases},
				{persist.KeyLeaseDrafts, limits.LeaseDrafts},
			} {
				fmt.Fprintf(out, "%-14s  %9d / %d characters\n", c.key, usage[c.key], c.limit)
			}
			fmt.Fprintln(out, "All collections are valid")
			return nil
		},
	}
}
