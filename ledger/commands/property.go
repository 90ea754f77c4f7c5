package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentledger/ledger"
)

func PropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "List, search and remove properties",
	}
	cmd.AddCommand(addPropertyCmd(), listPropertiesCmd(), searchPropertiesCmd(), deletePropertyCmd())
	return cmd
}

func addPropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "List a new property",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			location, _ := cmd.Flags().GetString("location")
			areaFlag, _ := cmd.Flags().GetString("area")
			priceFlag, _ := cmd.Flags().GetString("price")
			listing, _ := cmd.Flags().GetString("type")
			image, _ := cmd.Flags().GetString("image")

			area, err := parseAmount("area", areaFlag)
			if err != nil {
				return err
			}
			price, err := parseAmount("price", priceFlag)
			if err != nil {
				return err
			}

			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				owner, err := getActor(cmd, store)
				if err != nil {
					return err
				}
				p, err := store.CreateProperty(ctx, ledger.PropertyInput{
					Location:     location,
					Area:         area,
					Price:        price,
					ListingType:  ledger.ListingType(strings.ToLower(listing)),
					Owner:        owner,
					ImagePreview: image,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Listed property %s: %s (%s ETH, %s)\n", p.ID, p.Location, p.Price, p.ListingType)
				return nil
			})
		},
	}

	cmd.Flags().String("location", "", "Property location")
	cmd.Flags().String("area", "", "Area in acres")
	cmd.Flags().String("price", "", "Rent or sale price in ETH")
	cmd.Flags().String("type", string(ledger.ListingRent), "Listing type: rent or sale")
	cmd.Flags().String("image", "", "Image URL or data URL")
	_ = cmd.MarkFlagRequired("location")
	_ = cmd.MarkFlagRequired("area")
	_ = cmd.MarkFlagRequired("price")
	addActorFlag(cmd)

	return cmd
}

func listPropertiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show properties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mine, _ := cmd.Flags().GetBool("mine")
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				props := store.Properties()
				if mine {
					owner, err := getActor(cmd, store)
					if err != nil {
						return err
					}
					props = store.PropertiesOwnedBy(owner)
				}
				printProperties(cmd.OutOrStdout(), props)
				return nil
			})
		},
	}

	cmd.Flags().Bool("mine", false, "Only properties owned by the acting account")
	addActorFlag(cmd)

	return cmd
}

func searchPropertiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search available properties by location",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter ledger.PropertyFilter
			if len(args) == 1 {
				filter.Term = args[0]
			}
			if listing, _ := cmd.Flags().GetString("type"); listing != "all" {
				filter.ListingType = ledger.ListingType(strings.ToLower(listing))
				if !filter.ListingType.Valid() {
					return fmt.Errorf("invalid --type %q: want all, rent or sale", listing)
				}
			}
			for name, dst := range map[string]**decimal.Decimal{"min": &filter.MinPrice, "max": &filter.MaxPrice} {
				if !cmd.Flags().Changed(name) {
					continue
				}
				v, _ := cmd.Flags().GetString(name)
				d, err := parseAmount(name, v)
				if err != nil {
					return err
				}
				*dst = &d
			}

			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				printProperties(cmd.OutOrStdout(), store.SearchProperties(filter))
				return nil
			})
		},
	}

	cmd.Flags().String("type", "all", "Listing type: all, rent or sale")
	cmd.Flags().String("min", "", "Minimum price in ETH")
	cmd.Flags().String("max", "", "Maximum price in ETH")

	return cmd
}

func deletePropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Remove a property you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *ledger.Store) error {
				actor, err := getActor(cmd, store)
				if err != nil {
					return err
				}
				p, err := store.Property(args[0])
				if err != nil {
					return err
				}
				if !p.OwnedBy(actor) {
					return ledger.ErrNotOwner
				}
				if err := store.DeleteProperty(ctx, p.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted property %s\n", p.ID)
				return nil
			})
		},
	}
	addActorFlag(cmd)
	return cmd
}

func printProperties(w io.Writer, props []ledger.Property) {
	if len(props) == 0 {
		fmt.Fprintln(w, "No properties found")
		return
	}
	fmt.Fprintf(w, "%-14s  %-32s  %-8s  %-6s  %-10s  %s\n", "ID", "Location", "Price", "Type", "Status", "Owner")
	for _, p := range props {
		fmt.Fprintf(w, "%-14s  %-32s  %-8s  %-6s  %-10s  %s\n", p.ID, p.Location, p.Price, p.ListingType, p.Status, p.Owner)
	}
}
