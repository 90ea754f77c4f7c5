package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beesaferoot/rentledger/ledger/kv"
)

// Keys written by the browser version of the ledger
const (
	legacyAccount       = "rentLedgerAccount"
	legacyUserRole      = "rentLedgerUserRole"
	legacyProperties    = "rentLedgerProperties"
	legacyLeaseRequests = "rentLedgerLeaseRequests"
	legacyLeases        = "rentLedgerLeases"
)

// ImportLegacyKeys moves data saved under the rentLedger* keys into the
// current layout. Current keys that already hold data are left alone.
var ImportLegacyKeys = &Migration{
	Version:   "20240601000000",
	Name:      "import_legacy_keys",
	CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	Up:        importLegacyKeys,
}

func init() {
	RegisterMigration(ImportLegacyKeys)
}

type record = map[string]any

func importLegacyKeys(ctx context.Context, r kv.Reader) (kv.Batch, error) {
	var b kv.Batch

	plain := map[string]string{legacyAccount: "account", legacyUserRole: "userRole"}
	for from, to := range plain {
		v, ok, err := r.Get(ctx, from)
		if err != nil {
			return b, err
		}
		if !ok {
			continue
		}
		if v != "" && v != "null" {
			if err := putIfAbsent(ctx, r, &b, to, v); err != nil {
				return b, err
			}
		}
		b.Remove(from)
	}

	collections := []struct {
		from, to string
		convert  func(record) record
	}{
		{legacyProperties, "properties", convertProperty},
		{legacyLeaseRequests, "leaseRequests", convertRequest},
		{legacyLeases, "leases", convertLease},
	}
	for _, c := range collections {
		raw, ok, err := r.Get(ctx, c.from)
		if err != nil {
			return b, err
		}
		if !ok {
			continue
		}
		var items []record
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return b, fmt.Errorf("%s: %w", c.from, err)
		}
		out := make([]record, 0, len(items))
		for _, item := range items {
			if item != nil {
				out = append(out, c.convert(item))
			}
		}
		encoded, err := json.Marshal(out)
		if err != nil {
			return b, err
		}
		if err := putIfAbsent(ctx, r, &b, c.to, string(encoded)); err != nil {
			return b, err
		}
		b.Remove(c.from)
	}
	return b, nil
}

func putIfAbsent(ctx context.Context, r kv.Reader, b *kv.Batch, key, value string) error {
	_, exists, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		b.Put(key, value)
	}
	return nil
}

func convertProperty(p record) record {
	out := pick(p, "location", "listingType", "owner", "status", "leasedTo", "imagePreview", "createdAt")
	out["id"] = idString(p["id"])
	out["area"] = amount(p["area"])
	out["price"] = amount(p["rentOffer"])
	if ref := idString(p["leaseId"]); ref != "" {
		out["currentLeaseId"] = ref
	}
	if at, ok := p["leasedAt"].(string); ok && at != "" {
		out["leasedAt"] = at
	}
	return out
}

func convertRequest(r record) record {
	out := pick(r, "tenant", "landlord", "propertyLocation", "status", "createdAt")
	out["id"] = idString(r["id"])
	out["propertyId"] = idString(r["propertyId"])
	out["offerAmount"] = amount(r["offer"])
	if _, ok := out["tenant"]; !ok {
		if addr, ok := r["tenantAddress"].(string); ok {
			out["tenant"] = addr
		}
	}
	if _, ok := out["propertyLocation"]; !ok {
		if loc := nestedLocation(r); loc != "" {
			out["propertyLocation"] = loc
		}
	}
	return out
}

func convertLease(l record) record {
	out := pick(l, "landlord", "tenant", "paymentCycle", "terms", "status", "createdAt")
	id := idString(l["leaseId"])
	if id == "" {
		id = idString(l["id"])
	}
	out["id"] = id
	out["propertyId"] = idString(l["propertyId"])
	out["rentAmount"] = amount(l["rentAmount"])
	out["securityDeposit"] = amount(l["securityDeposit"])
	out["startDate"] = dateTime(l["startDate"])
	out["endDate"] = dateTime(l["endDate"])
	if loc := nestedLocation(l); loc != "" {
		out["propertyLocation"] = loc
	}
	if doc, ok := l["leaseAgreementDocument"].(string); ok {
		out["leaseDocument"] = doc
	}
	for _, key := range []string{"landlordSignature", "tenantSignature"} {
		if sig, ok := l[key].(map[string]any); ok {
			out[key] = convertSignature(sig)
		}
	}
	return out
}

func convertSignature(s record) record {
	out := pick(s, "signer", "role", "message", "timestamp")
	if token, ok := s["signature"].(string); ok {
		out["signatureToken"] = token
	}
	return out
}

// pick copies the non-null values of keys
func pick(src record, keys ...string) record {
	out := make(record, len(keys)+4)
	for _, k := range keys {
		if v, ok := src[k]; ok && v != nil {
			out[k] = v
		}
	}
	return out
}

func nestedLocation(r record) string {
	if p, ok := r["property"].(map[string]any); ok {
		if loc, ok := p["location"].(string); ok {
			return loc
		}
	}
	return ""
}

// idString renders numeric ids such as 1717171717171.123 as strings
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}

// amount keeps amounts as decimal strings; blanks become zero
func amount(v any) string {
	switch a := v.(type) {
	case string:
		if strings.TrimSpace(a) == "" {
			return "0"
		}
		return strings.TrimSpace(a)
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64)
	}
	return "0"
}

// dateTime widens the date-only values the browser form produced
func dateTime(v any) string {
	s, _ := v.(string)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.Format(time.RFC3339)
	}
	return s
}
