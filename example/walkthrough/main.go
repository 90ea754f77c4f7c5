// Command walkthrough runs a landlord and a tenant through one lease, from
// listing to activation, against an in-memory store.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/ledger/kv"
	"github.com/beesaferoot/rentledger/ledger/persist"
)

const (
	landlord = "0x742d35Cc6634C0532925a3b8D12345678901234"
	tenant   = "0x53d284357ec70cE289D6D64134DfAc8E511c8a3D"
)

func main() {
	ctx := context.Background()

	adapter, err := persist.New(kv.NewMemory(), persist.DefaultLimits()) // swap for gormkv or filekv to keep the data
	if err != nil {
		log.Fatal(err)
	}
	store, err := ledger.Open(ctx, adapter)
	if err != nil {
		log.Fatal(err)
	}

	p, err := store.CreateProperty(ctx, ledger.PropertyInput{
		Location: "Tokyo Studio",
		Area:     decimal.RequireFromString("0.8"),
		Price:    decimal.RequireFromString("1.2"),
		Owner:    landlord,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Walkthrough: listed %s at %s ETH", p.Location, p.Price)

	req, err := store.CreateLeaseRequest(ctx, p.ID, tenant, decimal.RequireFromString("1.0"))
	if err != nil {
		log.Fatal(err)
	}
	if err := store.AcceptRequest(ctx, landlord, req.ID); err != nil {
		log.Fatal(err)
	}
	log.Printf("Walkthrough: request %s accepted", req.ID)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, -1)
	if _, err := store.BeginLease(ctx, landlord, req.ID, ledger.LeaseTerms{StartDate: &start, EndDate: &end}); err != nil {
		log.Fatal(err)
	}
	if _, err := store.SignLease(ctx, req.ID, ledger.RoleLandlord, landlord); err != nil {
		log.Fatal(err)
	}
	d, err := store.SignLease(ctx, req.ID, ledger.RoleTenant, tenant)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Walkthrough: draft is %s", d.State)

	lease, err := store.ActivateLease(ctx, req.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(lease.Document)

	usage, err := adapter.Usage(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, key := range []string{persist.KeyProperties, persist.KeyLeaseRequests, persist.KeyLeases, persist.KeyLeaseDrafts} {
		log.Printf("Walkthrough: %s uses %d characters", key, usage[key])
	}
}
