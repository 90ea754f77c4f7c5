package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentledger/ledger"
)

const (
	landlordA = "0xA"
	tenantB   = "0xB"
	tenantC   = "0xC"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// memPersister keeps the last saved state and can be told to fail
type memPersister struct {
	state ledger.State
	saves []ledger.Collection
	fail  error
}

func (m *memPersister) Load(context.Context) (ledger.State, error) {
	return m.state, nil
}

func (m *memPersister) Save(_ context.Context, st ledger.State, dirty ledger.Collection) error {
	if m.fail != nil {
		return m.fail
	}
	m.state = st
	m.saves = append(m.saves, dirty)
	return nil
}

var errDiskFull = errors.New("disk full")

func newStore(t *testing.T, p ledger.Persister) *ledger.Store {
	t.Helper()
	n := 0
	store, err := ledger.Open(context.Background(), p,
		ledger.WithClock(func() time.Time { return fixedNow }),
		ledger.WithIDGenerator(func(prefix string) string {
			n++
			return fmt.Sprintf("%s_%d", prefix, n)
		}),
	)
	require.NoError(t, err)
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tokyoStudio(t *testing.T, store *ledger.Store) ledger.Property {
	t.Helper()
	p, err := store.CreateProperty(context.Background(), ledger.PropertyInput{
		Location:    "Tokyo Studio",
		Area:        dec("0.8"),
		Price:       dec("1.2"),
		ListingType: ledger.ListingRent,
		Owner:       landlordA,
	})
	require.NoError(t, err)
	return p
}

func acceptedRequest(t *testing.T, store *ledger.Store, propertyID string) ledger.LeaseRequest {
	t.Helper()
	ctx := context.Background()
	req, err := store.CreateLeaseRequest(ctx, propertyID, tenantB, dec("1.1"))
	require.NoError(t, err)
	require.NoError(t, store.AcceptRequest(ctx, landlordA, req.ID))
	req, err = store.Request(req.ID)
	require.NoError(t, err)
	return req
}

func leaseDates() (time.Time, time.Time) {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
}

func readyDraft(t *testing.T, store *ledger.Store, requestID string) ledger.LeaseDraft {
	t.Helper()
	ctx := context.Background()
	start, end := leaseDates()
	_, err := store.BeginLease(ctx, landlordA, requestID, ledger.LeaseTerms{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	_, err = store.SignLease(ctx, requestID, ledger.RoleLandlord, landlordA)
	require.NoError(t, err)
	d, err := store.SignLease(ctx, requestID, ledger.RoleTenant, tenantB)
	require.NoError(t, err)
	return d
}
