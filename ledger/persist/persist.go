// Package persist mirrors ledger state into a kv.Store. Each collection is a
// JSON blob under a fixed key; blobs are size-bounded on write and checked
// against a JSON Schema on read.
package persist

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/beesaferoot/rentledger/ledger"
	"github.com/beesaferoot/rentledger/ledger/kv"
)

// Storage keys
const (
	KeyAccount       = "account"
	KeyUserRole      = "userRole"
	KeyProperties    = "properties"
	KeyLeaseRequests = "leaseRequests"
	KeyLeases        = "leases"
	KeyLeaseDrafts   = "leaseDrafts"
)

var (
	// ErrOverCeiling rejects a write whose encoded collection is too large
	ErrOverCeiling = errors.New("collection exceeds storage ceiling")
	// ErrCorrupt reports a stored blob that does not decode or validate
	ErrCorrupt = errors.New("stored collection is corrupt")
)

// Limits are the maximum encoded sizes, in characters, per collection
type Limits struct {
	Properties    int
	LeaseRequests int
	Leases        int
	LeaseDrafts   int
}

// DefaultLimits allows roughly five megabytes of properties, images
// included, and one megabyte for each other collection.
func DefaultLimits() Limits {
	return Limits{
		Properties:    5_000_000,
		LeaseRequests: 1_000_000,
		Leases:        1_000_000,
		LeaseDrafts:   1_000_000,
	}
}

//go:embed schemas/*.json
var schemaFS embed.FS

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	keys := []string{KeyProperties, KeyLeaseRequests, KeyLeases, KeyLeaseDrafts}
	for _, key := range keys {
		raw, err := schemaFS.ReadFile("schemas/" + key + ".json")
		if err != nil {
			return nil, err
		}
		if err := compiler.AddResource(schemaURL(key), bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", key, err)
		}
	}
	schemas := make(map[string]*jsonschema.Schema, len(keys))
	for _, key := range keys {
		s, err := compiler.Compile(schemaURL(key))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", key, err)
		}
		schemas[key] = s
	}
	return schemas, nil
}

func schemaURL(key string) string {
	return "mem://rentledger/" + key + ".json"
}

// Adapter implements ledger.Persister over a kv.Store
type Adapter struct {
	store   kv.Store
	limits  Limits
	schemas map[string]*jsonschema.Schema
}

var _ ledger.Persister = (*Adapter)(nil)

func New(store kv.Store, limits Limits) (*Adapter, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Adapter{store: store, limits: limits, schemas: schemas}, nil
}

// Load reads every collection. Absent keys are empty collections.
func (a *Adapter) Load(ctx context.Context) (ledger.State, error) {
	var st ledger.State

	account, _, err := a.store.Get(ctx, KeyAccount)
	if err != nil {
		return st, err
	}
	role, _, err := a.store.Get(ctx, KeyUserRole)
	if err != nil {
		return st, err
	}
	st.Account = account
	st.Role = ledger.Role(role)

	if err := a.load(ctx, KeyProperties, &st.Properties); err != nil {
		return st, err
	}
	if err := a.load(ctx, KeyLeaseRequests, &st.Requests); err != nil {
		return st, err
	}
	if err := a.load(ctx, KeyLeases, &st.Leases); err != nil {
		return st, err
	}
	if err := a.load(ctx, KeyLeaseDrafts, &st.Drafts); err != nil {
		return st, err
	}
	return st, nil
}

func (a *Adapter) load(ctx context.Context, key string, dst any) error {
	raw, ok, err := a.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok || raw == "" {
		return nil
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if doc == nil {
		return nil
	}
	if err := a.schemas[key].Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

// Save writes the dirty collections of st in a single batch. Nothing is
// written when any collection is over its ceiling.
func (a *Adapter) Save(ctx context.Context, st ledger.State, dirty ledger.Collection) error {
	var b kv.Batch

	if dirty.Has(ledger.CollectionSession) {
		if st.Account == "" {
			b.Remove(KeyAccount)
		} else {
			b.Put(KeyAccount, st.Account)
		}
		if st.Role == "" {
			b.Remove(KeyUserRole)
		} else {
			b.Put(KeyUserRole, string(st.Role))
		}
	}

	blobs := []struct {
		flag  ledger.Collection
		key   string
		limit int
		value any
	}{
		{ledger.CollectionProperties, KeyProperties, a.limits.Properties, nonNil(st.Properties)},
		{ledger.CollectionLeaseRequests, KeyLeaseRequests, a.limits.LeaseRequests, nonNil(st.Requests)},
		{ledger.CollectionLeases, KeyLeases, a.limits.Leases, nonNil(st.Leases)},
		{ledger.CollectionDrafts, KeyLeaseDrafts, a.limits.LeaseDrafts, nonNil(st.Drafts)},
	}
	for _, blob := range blobs {
		if !dirty.Has(blob.flag) {
			continue
		}
		raw, err := json.Marshal(blob.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", blob.key, err)
		}
		if n := utf8.RuneCount(raw); blob.limit > 0 && n > blob.limit {
			log.Printf("Persist: warning: %s is %d characters, over the %d limit; change not saved", blob.key, n, blob.limit)
			return fmt.Errorf("%w: %s is %d characters (limit %d)", ErrOverCeiling, blob.key, n, blob.limit)
		}
		b.Put(blob.key, string(raw))
	}

	if b.Empty() {
		return nil
	}
	return a.store.Apply(ctx, b)
}

// Usage reports the encoded size of each stored collection
func (a *Adapter) Usage(ctx context.Context) (map[string]int, error) {
	usage := make(map[string]int)
	for _, key := range []string{KeyProperties, KeyLeaseRequests, KeyLeases, KeyLeaseDrafts} {
		raw, _, err := a.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		usage[key] = utf8.RuneCountInString(raw)
	}
	return usage, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
