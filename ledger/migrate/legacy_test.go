package migrate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentledger/ledger/kv"
)

const legacyPropertiesJSON = `[
  {"id":1,"location":"New York Downtown Apartment","area":"1.2","rentOffer":"2.5","listingType":"rent",
   "owner":"0xA","status":"leased","leasedTo":"0xB","leasedAt":"2024-02-01T10:00:00.000Z","leaseId":"LEASE_1706781600000",
   "currentLease":{"leaseId":"LEASE_1706781600000"},"certificatePreview":"data:application/pdf;base64,AA",
   "imagePreview":"https://example.com/a.jpg","createdAt":"2024-01-01T00:00:00.000Z"},
  {"id":1717171717171,"location":"Tokyo Modern Studio","area":"0.8","rentOffer":"1.2","listingType":"rent",
   "owner":"0xC","status":"available","imagePreview":"https://example.com/b.jpg","createdAt":"2024-01-02T00:00:00.000Z"}
]`

const legacyRequestsJSON = `[
  {"id":1717171717999.42,"tenant":"0xD","propertyId":1717171717171,"property":{"id":1717171717171,"location":"Tokyo Modern Studio"},
   "offer":"1.100","status":"pending","createdAt":"2024-03-01T00:00:00.000Z","landlord":"0xC","tenantAddress":"0xD"}
]`

const legacyLeasesJSON = `[
  {"id":1706781600000,"leaseId":"LEASE_1706781600000","tenant":"0xB","propertyId":1,
   "property":{"id":1,"location":"New York Downtown Apartment"},
   "startDate":"2024-02-01","endDate":"2025-01-31","rentAmount":"2.5","securityDeposit":"",
   "paymentCycle":"monthly","terms":"","status":"active","landlord":"0xA",
   "createdAt":"2024-02-01T10:00:00.000Z","signedAt":"2024-02-01T10:00:00.000Z",
   "leaseAgreementDocument":"LEASE AGREEMENT",
   "landlordSignature":{"signer":"0xA","role":"landlord","signature":"0xSIG...","message":"m","timestamp":"2024-02-01T09:00:00.000Z"},
   "tenantSignature":{"signer":"0xB","role":"tenant","signature":"0xSIG2...","message":"m2","timestamp":"2024-02-01T09:30:00.000Z"}}
]`

func seedLegacy(t *testing.T) *kv.Memory {
	t.Helper()
	store := kv.NewMemory()
	var b kv.Batch
	b.Put("rentLedgerAccount", "0xA")
	b.Put("rentLedgerUserRole", "landlord")
	b.Put("rentLedgerProperties", legacyPropertiesJSON)
	b.Put("rentLedgerLeaseRequests", legacyRequestsJSON)
	b.Put("rentLedgerLeases", legacyLeasesJSON)
	require.NoError(t, store.Apply(context.Background(), b))
	return store
}

func decode(t *testing.T, store kv.Reader, key string) []map[string]any {
	t.Helper()
	raw, ok, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok, key)
	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestImportLegacyKeys(t *testing.T) {
	ctx := context.Background()
	store := seedLegacy(t)

	migrator := &Migrator{store: store, now: NewMigrator(store).now}
	migrator.Register(ImportLegacyKeys)
	_, err := migrator.Up(ctx)
	require.NoError(t, err)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "leaseRequests", "leases", "properties", "schemaMigrations", "userRole"}, keys)

	account, _, _ := store.Get(ctx, "account")
	assert.Equal(t, "0xA", account)

	props := decode(t, store, "properties")
	require.Len(t, props, 2)
	assert.Equal(t, "1", props[0]["id"])
	assert.Equal(t, "2.5", props[0]["price"])
	assert.Equal(t, "LEASE_1706781600000", props[0]["currentLeaseId"])
	assert.NotContains(t, props[0], "rentOffer")
	assert.NotContains(t, props[0], "currentLease")
	assert.NotContains(t, props[0], "certificatePreview")
	assert.Equal(t, "1717171717171", props[1]["id"])

	reqs := decode(t, store, "leaseRequests")
	require.Len(t, reqs, 1)
	assert.Equal(t, "1717171717999.42", reqs[0]["id"])
	assert.Equal(t, "1717171717171", reqs[0]["propertyId"])
	assert.Equal(t, "1.100", reqs[0]["offerAmount"])
	assert.Equal(t, "Tokyo Modern Studio", reqs[0]["propertyLocation"])
	assert.NotContains(t, reqs[0], "property")
	assert.NotContains(t, reqs[0], "tenantAddress")

	leases := decode(t, store, "leases")
	require.Len(t, leases, 1)
	l := leases[0]
	assert.Equal(t, "LEASE_1706781600000", l["id"])
	assert.Equal(t, "1", l["propertyId"])
	assert.Equal(t, "2024-02-01T00:00:00Z", l["startDate"])
	assert.Equal(t, "0", l["securityDeposit"])
	assert.Equal(t, "New York Downtown Apartment", l["propertyLocation"])
	assert.Equal(t, "LEASE AGREEMENT", l["leaseDocument"])
	assert.NotContains(t, l, "leaseAgreementDocument")
	sig := l["landlordSignature"].(map[string]any)
	assert.Equal(t, "0xSIG...", sig["signatureToken"])
	assert.NotContains(t, sig, "signature")
}

func TestImportLegacyKeepsCurrentData(t *testing.T) {
	ctx := context.Background()
	store := seedLegacy(t)
	var b kv.Batch
	b.Put("properties", "[]")
	require.NoError(t, store.Apply(ctx, b))

	batch, err := importLegacyKeys(ctx, store)
	require.NoError(t, err)
	assert.NotContains(t, batch.Set, "properties")
	assert.Contains(t, batch.Delete, "rentLedgerProperties")
}

func TestImportLegacyNothingToDo(t *testing.T) {
	batch, err := importLegacyKeys(context.Background(), kv.NewMemory())
	require.NoError(t, err)
	assert.True(t, batch.Empty())
}

func TestImportLegacyBadJSON(t *testing.T) {
	store := kv.NewMemory()
	var b kv.Batch
	b.Put("rentLedgerLeases", "{oops")
	require.NoError(t, store.Apply(context.Background(), b))

	_, err := importLegacyKeys(context.Background(), store)
	assert.Error(t, err)
}
