package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentledger/ledger"
)

func TestOpenWithoutPersister(t *testing.T) {
	store, err := ledger.Open(context.Background(), nil)
	require.NoError(t, err)

	p, err := store.CreateProperty(context.Background(), ledger.PropertyInput{
		Location: "Nairobi Loft",
		Area:     dec("1"),
		Price:    dec("2"),
		Owner:    landlordA,
	})
	require.NoError(t, err)
	assert.Contains(t, p.ID, "prop_")
	assert.Len(t, store.Properties(), 1)
}

func TestOpenNormalizesLoadedState(t *testing.T) {
	p := &memPersister{state: ledger.State{
		Properties: []ledger.Property{{ID: "1", Location: "Old", Owner: landlordA, Price: dec("1"), Area: dec("1")}},
		Requests:   []ledger.LeaseRequest{{ID: "r1", PropertyID: "1", Tenant: tenantB, OfferAmount: dec("1")}},
		Leases:     []ledger.Lease{{ID: "l1", PropertyID: "9"}},
		Drafts:     []ledger.LeaseDraft{{RequestID: "r9", PropertyID: "9"}},
	}}
	store := newStore(t, p)

	snap := store.Snapshot()
	assert.Equal(t, ledger.PropertyAvailable, snap.Properties[0].Status)
	assert.Equal(t, ledger.ListingRent, snap.Properties[0].ListingType)
	assert.Equal(t, ledger.RequestPending, snap.Requests[0].Status)
	assert.Equal(t, ledger.LeaseActive, snap.Leases[0].Status)
	assert.Equal(t, ledger.CycleMonthly, snap.Leases[0].PaymentCycle)
	assert.Equal(t, ledger.StateAwaitingLandlordSign, snap.Drafts[0].State)
}

func TestFailedSaveKeepsState(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	store := newStore(t, p)
	prop := tokyoStudio(t, store)

	p.fail = errDiskFull
	_, err := store.CreateLeaseRequest(ctx, prop.ID, tenantB, dec("1"))
	require.ErrorIs(t, err, errDiskFull)
	assert.Empty(t, store.Requests())

	err = store.DeleteProperty(ctx, prop.ID)
	require.ErrorIs(t, err, errDiskFull)
	assert.Len(t, store.Properties(), 1)
}

func TestSnapshotIsACopy(t *testing.T) {
	store := newStore(t, nil)
	tokyoStudio(t, store)

	snap := store.Snapshot()
	snap.Properties[0].Location = "changed"
	assert.Equal(t, "Tokyo Studio", store.Properties()[0].Location)
}

func TestCollectionHas(t *testing.T) {
	c := ledger.CollectionProperties | ledger.CollectionLeases
	assert.True(t, c.Has(ledger.CollectionProperties))
	assert.False(t, c.Has(ledger.CollectionDrafts))
	assert.True(t, ledger.CollectionAll.Has(c))
}

func TestReturnedValuesDoNotAliasState(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	p := tokyoStudio(t, store)
	req := acceptedRequest(t, store, p.ID)

	d := readyDraft(t, store, req.ID)
	before := store.Snapshot()
	d.LandlordSignature.Token = "0xforged"
	*d.Terms.StartDate = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	*d.Terms.RentAmount = dec("0.01")
	assert.Equal(t, before, store.Snapshot())

	lease, err := store.ActivateLease(ctx, req.ID)
	require.NoError(t, err)
	before = store.Snapshot()

	snap := store.Snapshot()
	*snap.Properties[0].CurrentLeaseID = "tampered"
	*snap.Drafts[0].Terms.SecurityDeposit = dec("0")
	snap.Drafts[0].TenantSignature.Signer = "0xZ"

	props := store.Properties()
	*props[0].LeasedTo = "0xZ"
	got, err := store.Property(p.ID)
	require.NoError(t, err)
	*got.LeasedAt = time.Time{}
	draft := store.LeaseDraft(req.ID)
	*draft.Terms.EndDate = time.Time{}
	*store.LeaseDrafts()[0].Terms.StartDate = time.Time{}
	*store.PropertiesOwnedBy(landlordA)[0].CurrentLeaseID = "tampered"

	assert.Equal(t, before, store.Snapshot())
	got, err = store.Property(p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentLeaseID)
	assert.Equal(t, lease.ID, *got.CurrentLeaseID)
	assert.Equal(t, tenantB, *got.LeasedTo)
}
