package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentledger/ledger"
)

func TestCreatePropertyValidation(t *testing.T) {
	valid := ledger.PropertyInput{Location: "Accra", Area: dec("1"), Price: dec("1"), Owner: landlordA}

	tests := []struct {
		name   string
		modify func(*ledger.PropertyInput)
		want   error
	}{
		{"missing owner", func(in *ledger.PropertyInput) { in.Owner = " " }, ledger.ErrMissingIdentity},
		{"blank location", func(in *ledger.PropertyInput) { in.Location = "" }, ledger.ErrMissingField},
		{"zero area", func(in *ledger.PropertyInput) { in.Area = dec("0") }, ledger.ErrValidation},
		{"negative price", func(in *ledger.PropertyInput) { in.Price = dec("-1") }, ledger.ErrValidation},
		{"bad listing type", func(in *ledger.PropertyInput) { in.ListingType = "lease" }, ledger.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, nil)
			in := valid
			tt.modify(&in)
			_, err := store.CreateProperty(context.Background(), in)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, store.Properties())
		})
	}
}

func TestCreatePropertyDefaults(t *testing.T) {
	store := newStore(t, nil)
	p, err := store.CreateProperty(context.Background(), ledger.PropertyInput{
		Location:     "  Cairo Penthouse ",
		Area:         dec("2"),
		Price:        dec("3.5"),
		Owner:        landlordA,
		ImagePreview: "ftp://example.com/a.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "prop_1", p.ID)
	assert.Equal(t, "Cairo Penthouse", p.Location)
	assert.Equal(t, ledger.ListingRent, p.ListingType)
	assert.Equal(t, ledger.PropertyAvailable, p.Status)
	assert.Equal(t, ledger.PlaceholderImageURL, p.ImagePreview)
	assert.Equal(t, fixedNow, p.CreatedAt)
}

func TestPropertiesKeepInsertionOrder(t *testing.T) {
	store := newStore(t, nil)
	for _, loc := range []string{"One", "Two", "Three"} {
		_, err := store.CreateProperty(context.Background(), ledger.PropertyInput{Location: loc, Area: dec("1"), Price: dec("1"), Owner: landlordA})
		require.NoError(t, err)
	}
	var got []string
	for _, p := range store.Properties() {
		got = append(got, p.Location)
	}
	assert.Equal(t, []string{"One", "Two", "Three"}, got)
}

func TestPropertiesOwnedByIgnoresCase(t *testing.T) {
	store := newStore(t, nil)
	tokyoStudio(t, store)

	assert.Len(t, store.PropertiesOwnedBy("0xa"), 1)
	assert.Empty(t, store.PropertiesOwnedBy(tenantB))
	assert.Empty(t, store.PropertiesOwnedBy(""))
}

func TestSearchProperties(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	require.NoError(t, store.SeedSamples(ctx))
	_, err := store.CreateProperty(ctx, ledger.PropertyInput{
		Location: "Tokyo Family House", Area: dec("2"), Price: dec("4"), ListingType: ledger.ListingSale, Owner: landlordA,
	})
	require.NoError(t, err)

	locations := func(ps []ledger.Property) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Location)
		}
		return out
	}

	assert.Equal(t, []string{"Tokyo Modern Studio", "Tokyo Family House"},
		locations(store.SearchProperties(ledger.PropertyFilter{Term: "tokyo"})))
	assert.Equal(t, []string{"Tokyo Family House"},
		locations(store.SearchProperties(ledger.PropertyFilter{Term: "TOKYO", ListingType: ledger.ListingSale})))

	low, high := dec("2"), dec("5")
	assert.Equal(t, []string{"New York Downtown Apartment", "Tokyo Family House"},
		locations(store.SearchProperties(ledger.PropertyFilter{MinPrice: &low, MaxPrice: &high})))
	assert.Len(t, store.SearchProperties(ledger.PropertyFilter{}), 4)
}

func TestSearchSkipsLeasedProperties(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	p := tokyoStudio(t, store)
	req := acceptedRequest(t, store, p.ID)
	readyDraft(t, store, req.ID)
	_, err := store.ActivateLease(ctx, req.ID)
	require.NoError(t, err)

	assert.Empty(t, store.SearchProperties(ledger.PropertyFilter{Term: "Tokyo"}))
}

func TestSetPropertyStatus(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	p := tokyoStudio(t, store)

	err := store.SetPropertyStatus(ctx, "nope", ledger.PropertyLeased, nil)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	err = store.SetPropertyStatus(ctx, p.ID, ledger.PropertyLeased, nil)
	assert.ErrorIs(t, err, ledger.ErrMissingField)

	ref := "lease_missing"
	err = store.SetPropertyStatus(ctx, p.ID, ledger.PropertyLeased, &ref)
	assert.ErrorIs(t, err, ledger.ErrLeaseNotFound)

	require.NoError(t, store.SetPropertyStatus(ctx, p.ID, ledger.PropertyAvailable, nil))
	got, err := store.Property(p.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.PropertyAvailable, got.Status)
}

func TestSetPropertyStatusRefusesToFreeLeasedProperty(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	p := tokyoStudio(t, store)
	req := acceptedRequest(t, store, p.ID)
	readyDraft(t, store, req.ID)
	lease, err := store.ActivateLease(ctx, req.ID)
	require.NoError(t, err)

	err = store.SetPropertyStatus(ctx, p.ID, ledger.PropertyAvailable, nil)
	assert.ErrorIs(t, err, ledger.ErrPropertyLeased)

	require.NoError(t, store.SetPropertyStatus(ctx, p.ID, ledger.PropertyLeased, &lease.ID))
}

func TestDeleteProperty(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	p := tokyoStudio(t, store)
	other := tokyoStudio(t, store)

	req := acceptedRequest(t, store, p.ID)
	_, err := store.BeginLease(ctx, landlordA, req.ID, ledger.LeaseTerms{})
	require.NoError(t, err)
	rejected, err := store.CreateLeaseRequest(ctx, p.ID, tenantC, dec("0.9"))
	require.NoError(t, err)
	require.NoError(t, store.RejectRequest(ctx, landlordA, rejected.ID))
	_, err = store.CreateLeaseRequest(ctx, p.ID, tenantC, dec("1.0"))
	require.NoError(t, err)
	kept, err := store.CreateLeaseRequest(ctx, other.ID, tenantC, dec("1"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteProperty(ctx, p.ID))

	assert.Len(t, store.Properties(), 1)
	assert.Equal(t, []ledger.LeaseRequest{kept}, store.Requests())
	assert.Empty(t, store.LeaseDrafts())
	assert.ErrorIs(t, store.DeleteProperty(ctx, p.ID), ledger.ErrNotFound)
}

func TestDeleteLeasedPropertyRefused(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	p := tokyoStudio(t, store)
	req := acceptedRequest(t, store, p.ID)
	readyDraft(t, store, req.ID)
	_, err := store.ActivateLease(ctx, req.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteProperty(ctx, p.ID), ledger.ErrPropertyLeased)
	assert.Len(t, store.Properties(), 1)
}

func TestSafeImageURL(t *testing.T) {
	for _, ref := range []string{"data:image/png;base64,AAAA", "blob:http://x/1", "https://example.com/a.jpg", "http://example.com"} {
		assert.Equal(t, ref, ledger.SafeImageURL(ref))
	}
	for _, ref := range []string{"", "ipfs://Qm", "data:text/plain,hi"} {
		assert.Equal(t, ledger.PlaceholderImageURL, ledger.SafeImageURL(ref))
	}
}
