package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentledger/internal/config"
	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/ledger/kv"
	"github.com/beesaferoot/rentledger/ledger/kv/filekv"
	"github.com/beesaferoot/rentledger/ledger/kv/gormkv"
	"github.com/beesaferoot/rentledger/ledger/migrate"
	"github.com/beesaferoot/rentledger/ledger/persist"
)

func getBackend(cfg config.Config) (kv.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return filekv.Open(cfg.DataFile)
	case config.BackendMemory:
		return kv.NewMemory(), nil
	default:
		return gormkv.Open(cfg.DatabaseURL)
	}
}

func limitsFrom(cfg config.Config) persist.Limits {
	return persist.Limits{
		Properties:    cfg.Limits.Properties,
		LeaseRequests: cfg.Limits.LeaseRequests,
		Leases:        cfg.Limits.Leases,
		LeaseDrafts:   cfg.Limits.LeaseDrafts,
	}
}

func openBackend() (config.Config, kv.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	backend, err := getBackend(cfg)
	return cfg, backend, err
}

// getStore opens the configured backend, brings its layout up to date and
// loads the ledger. The returned func closes the backend.
func getStore(ctx context.Context) (*ledger.Store, func(), error) {
	cfg, backend, err := openBackend()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = backend.Close() }

	if _, err := migrate.NewMigrator(backend).Up(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to migrate storage: %w", err)
	}
	adapter, err := persist.New(backend, limitsFrom(cfg))
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	store, err := ledger.Open(ctx, adapter)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withStore runs fn against an opened store
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store *ledger.Store) error) error {
	ctx := cmdContext(cmd)
	store, closeFn, err := getStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, store)
}

func addActorFlag(cmd *cobra.Command) {
	cmd.Flags().String("as", "", "Wallet address to act as (defaults to the connected account)")
}

// getActor returns the --as address or the connected account
func getActor(cmd *cobra.Command, store *ledger.Store) (string, error) {
	if as, _ := cmd.Flags().GetString("as"); strings.TrimSpace(as) != "" {
		return strings.TrimSpace(as), nil
	}
	if account := store.Account(); account != "" {
		return account, nil
	}
	return "", fmt.Errorf("no account connected; run 'account connect <address>' or pass --as: %w", ledger.ErrMissingIdentity)
}

func parseAmount(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return d, nil
}

func parseDate(name, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", name, value)
	}
	return t, nil
}

func addTermsFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "Lease start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Lease end date (YYYY-MM-DD)")
	cmd.Flags().String("rent", "", "Rent per payment cycle in ETH")
	cmd.Flags().String("deposit", "", "Security deposit in ETH")
	cmd.Flags().String("cycle", "", "Payment cycle: monthly, quarterly or yearly")
	cmd.Flags().String("terms", "", "Additional terms")
}

// termsFromFlags collects the terms flags that were set
func termsFromFlags(cmd *cobra.Command) (ledger.LeaseTerms, error) {
	var terms ledger.LeaseTerms
	flags := cmd.Flags()

	if flags.Changed("start") {
		v, _ := flags.GetString("start")
		t, err := parseDate("start", v)
		if err != nil {
			return terms, err
		}
		terms.StartDate = &t
	}
	if flags.Changed("end") {
		v, _ := flags.GetString("end")
		t, err := parseDate("end", v)
		if err != nil {
			return terms, err
		}
		terms.EndDate = &t
	}
	if flags.Changed("rent") {
		v, _ := flags.GetString("rent")
		d, err := parseAmount("rent", v)
		if err != nil {
			return terms, err
		}
		terms.RentAmount = &d
	}
	if flags.Changed("deposit") {
		v, _ := flags.GetString("deposit")
		d, err := parseAmount("deposit", v)
		if err != nil {
			return terms, err
		}
		terms.SecurityDeposit = &d
	}
	if flags.Changed("cycle") {
		v, _ := flags.GetString("cycle")
		terms.PaymentCycle = ledger.PaymentCycle(strings.ToLower(v))
	}
	if flags.Changed("terms") {
		terms.Terms, _ = flags.GetString("terms")
	}
	return terms, nil
}

func shortDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func amountOrDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
