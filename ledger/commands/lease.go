package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentledger/ledger"
)

func LeaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Draft, sign and activate leases",
	}
	cmd.AddCommand(
		beginLeaseCmd(),
		leaseTermsCmd(),
		signLeaseCmd(),
		activateLeaseCmd(),
		leaseStatusCmd(),
		listLeasesCmd(),
		showLeaseCmd(),
		searchLeasesCmd(),
	)
	return cmd
}

func beginLeaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "begin [request-id]",
		Short: "Start a lease draft from an accepted request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := termsFromFlags(cmd)
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				landlord, err := getActor(cmd, store)
				if err != nil {
					return err
				}
				d, err := store.BeginLease(ctx, landlord, args[0], terms)
				if err != nil {
					return err
				}
				printDraft(cmd.OutOrStdout(), d)
				return nil
			})
		},
	}
	addTermsFlags(cmd)
	addActorFlag(cmd)
	return cmd
}

func leaseTermsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terms [request-id]",
		Short: "Change the terms of an unsigned draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := termsFromFlags(cmd)
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				actor, err := getActor(cmd, store)
				if err != nil {
					return err
				}
				if d := store.LeaseDraft(args[0]); d.State != ledger.StateNoLease && !ledger.SameAddress(actor, d.Landlord) {
					return ledger.ErrNotOwner
				}
				d, err := store.UpdateLeaseTerms(ctx, args[0], terms)
				if err != nil {
					return err
				}
				printDraft(cmd.OutOrStdout(), d)
				return nil
			})
		},
	}
	addTermsFlags(cmd)
	addActorFlag(cmd)
	return cmd
}

func signLeaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [request-id]",
		Short: "Sign a lease draft",
		Long:  "Signs as landlord when the acting account is the draft's landlord, otherwise as tenant. Use --role to choose explicitly.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roleFlag, _ := cmd.Flags().GetString("role")
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				signer, err := getActor(cmd, store)
				if err != nil {
					return err
				}
				role := ledger.Role(strings.ToLower(roleFlag))
				if role == "" {
					role = ledger.RoleTenant
					if ledger.SameAddress(signer, store.LeaseDraft(args[0]).Landlord) {
						role = ledger.RoleLandlord
					}
				}
				d, err := store.SignLease(ctx, args[0], role, signer)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s signature added\n", role.Title())
				printDraft(cmd.OutOrStdout(), d)
				return nil
			})
		},
	}
	cmd.Flags().String("role", "", "Sign as landlord or tenant")
	addActorFlag(cmd)
	return cmd
}

func activateLeaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate [request-id]",
		Short: "Activate a fully signed lease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				lease, err := store.ActivateLease(ctx, args[0])
				if errors.Is(err, ledger.ErrAlreadyActive) && lease.ID != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Lease %s is already active\n", lease.ID)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Lease %s is active for %s\n", lease.ID, lease.PropertyLocation)
				return nil
			})
		},
	}
}

func leaseStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [request-id]",
		Short: "Show where a lease draft stands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				d := store.LeaseDraft(args[0])
				if d.State == ledger.StateNoLease {
					fmt.Fprintf(cmd.OutOrStdout(), "No lease draft for request %s\n", args[0])
					return nil
				}
				printDraft(cmd.OutOrStdout(), d)
				return nil
			})
		},
	}
}

func listLeasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show leases of the acting account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				if all {
					printLeases(cmd.OutOrStdout(), store.Leases())
					return nil
				}
				actor, err := getActor(cmd, store)
				if err != nil {
					return err
				}
				leases := store.LeasesForLandlord(actor)
				leases = append(leases, store.LeasesForTenant(actor)...)
				printLeases(cmd.OutOrStdout(), leases)
				return nil
			})
		},
	}
	cmd.Flags().Bool("all", false, "Show every lease")
	addActorFlag(cmd)
	return cmd
}

func showLeaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [lease-id]",
		Short: "Print the lease agreement document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				lease, err := store.Lease(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), lease.Document)
				return nil
			})
		},
	}
}

func searchLeasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [term]",
		Short: "Find leases by id, location, tenant or landlord",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				printLeases(cmd.OutOrStdout(), store.SearchLeases(term))
				return nil
			})
		},
	}
}

func printDraft(w io.Writer, d ledger.LeaseDraft) {
	fmt.Fprintf(w, "Request:  %s\n", d.RequestID)
	fmt.Fprintf(w, "Property: %s (%s)\n", d.PropertyLocation, d.PropertyID)
	fmt.Fprintf(w, "Landlord: %s\n", d.Landlord)
	fmt.Fprintf(w, "Tenant:   %s\n", d.Tenant)
	fmt.Fprintf(w, "State:    %s\n", d.State)
	fmt.Fprintf(w, "Period:   %s to %s\n", shortDate(d.Terms.StartDate), shortDate(d.Terms.EndDate))
	fmt.Fprintf(w, "Rent:     %s ETH %s\n", amountOrDash(d.Terms.RentAmount), d.Terms.PaymentCycle)
	fmt.Fprintf(w, "Deposit:  %s ETH\n", amountOrDash(d.Terms.SecurityDeposit))
	if d.LeaseID != "" {
		fmt.Fprintf(w, "Lease:    %s\n", d.LeaseID)
	}
}

func printLeases(w io.Writer, leases []ledger.Lease) {
	if len(leases) == 0 {
		fmt.Fprintln(w, "No leases found")
		return
	}
	fmt.Fprintf(w, "%-14s  %-28s  %-8s  %-10s  %-10s  %s\n", "ID", "Location", "Rent", "Start", "End", "Tenant")
	for _, l := range leases {
		fmt.Fprintf(w, "%-14s  %-28s  %-8s  %-10s  %-10s  %s\n",
			l.ID, l.PropertyLocation, l.RentAmount, shortDate(&l.StartDate), shortDate(&l.EndDate), l.Tenant)
	}
}
