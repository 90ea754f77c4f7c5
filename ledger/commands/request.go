package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentledger/ledger"
)

func RequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Make and answer lease requests",
	}
	cmd.AddCommand(createRequestCmd(), listRequestsCmd(), acceptRequestCmd(), rejectRequestCmd())
	return cmd
}

func createRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [property-id]",
		Short: "Offer to lease a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offerFlag, _ := cmd.Flags().GetString("offer")
			offer, err := parseAmount("offer", offerFlag)
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				tenant, err := getActor(cmd, store)
				if err != nil {
					return err
				}
				req, err := store.CreateLeaseRequest(ctx, args[0], tenant, offer)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created lease request %s for %s (offer %s ETH)\n", req.ID, req.PropertyLocation, req.OfferAmount)
				return nil
			})
		},
	}

	cmd.Flags().String("offer", "", "Offered amount in ETH")
	_ = cmd.MarkFlagRequired("offer")
	addActorFlag(cmd)

	return cmd
}

func listRequestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show lease requests for the acting account",
		Long:  "Landlords see the pending and accepted requests against their properties. Tenants see the requests they made.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				actor, err := getActor(cmd, store)
				if err != nil {
					return err
				}
				if store.InferRole(actor) == ledger.RoleLandlord {
					printRequests(cmd.OutOrStdout(), store.RequestsForLandlord(actor))
				} else {
					printRequests(cmd.OutOrStdout(), store.RequestsForTenant(actor))
				}
				return nil
			})
		},
	}
	addActorFlag(cmd)
	return cmd
}

func acceptRequestCmd() *cobra.Command {
	return decisionCmd("accept", "Accept a pending lease request", ledger.RequestAccepted)
}

func rejectRequestCmd() *cobra.Command {
	return decisionCmd("reject", "Reject a pending lease request", ledger.RequestRejected)
}

func decisionCmd(use, short string, to ledger.RequestStatus) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " [request-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				actor, err := getActor(cmd, store)
				if err != nil {
					return err
				}
				if to == ledger.RequestAccepted {
					err = store.AcceptRequest(ctx, actor, args[0])
				} else {
					err = store.RejectRequest(ctx, actor, args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Request %s %s\n", args[0], to)
				return nil
			})
		},
	}
	addActorFlag(cmd)
	return cmd
}

func printRequests(w io.Writer, reqs []ledger.LeaseRequest) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, "No lease requests found")
		return
	}
	fmt.Fprintf(w, "%-14s  %-14s  %-28s  %-8s  %-9s  %s\n", "ID", "Property", "Location", "Offer", "Status", "Tenant")
	for _, r := range reqs {
		fmt.Fprintf(w, "%-14s  %-14s  %-28s  %-8s  %-9s  %s\n", r.ID, r.PropertyID, r.PropertyLocation, r.OfferAmount, r.Status, r.Tenant)
	}
}
