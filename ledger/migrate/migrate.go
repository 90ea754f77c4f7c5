// Package migrate applies versioned changes to the stored key layout. A
// migration and the record of it having run are written in the same batch.
package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/beesaferoot/rentledger/ledger/kv"
)

// RecordsKey holds the JSON list of applied migrations
const RecordsKey = "schemaMigrations"

type Migration struct {
	Version   string
	Name      string
	CreatedAt time.Time
	// Up inspects the store and returns the writes to perform
	Up func(ctx context.Context, r kv.Reader) (kv.Batch, error)
}

type MigrationRecord struct {
	Version   string    `json:"version"`
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"appliedAt"`
}

var (
	globalMigrations = make([]*Migration, 0)
	registryMutex    sync.RWMutex
)

func RegisterMigration(migration *Migration) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	globalMigrations = append(globalMigrations, migration)
}

// GetRegisteredMigrations returns the registered migrations ordered by version
func GetRegisteredMigrations() []*Migration {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	migrations := make([]*Migration, len(globalMigrations))
	copy(migrations, globalMigrations)
	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations
}

func ResetMigrations() {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	globalMigrations = make([]*Migration, 0)
}

type Migrator struct {
	store      kv.Store
	migrations []*Migration
	now        func() time.Time
}

func NewMigrator(store kv.Store) *Migrator {
	return &Migrator{
		store:      store,
		migrations: GetRegisteredMigrations(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *Migrator) Register(migration *Migration) {
	m.migrations = append(m.migrations, migration)
}

// History returns the applied migrations in the order they ran
func (m *Migrator) History(ctx context.Context) ([]MigrationRecord, error) {
	raw, ok, err := m.store.Get(ctx, RecordsKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var records []MigrationRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", RecordsKey, err)
	}
	return records, nil
}

func (m *Migrator) GetAppliedVersions(ctx context.Context) (map[string]bool, error) {
	records, err := m.History(ctx)
	if err != nil {
		return nil, err
	}
	versions := make(map[string]bool)
	for _, record := range records {
		versions[record.Version] = true
	}
	return versions, nil
}

// Pending lists the migrations that have not run yet
func (m *Migrator) Pending(ctx context.Context) ([]*Migration, error) {
	applied, err := m.GetAppliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	var pending []*Migration
	for _, migration := range m.migrations {
		if !applied[migration.Version] {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// Up applies every pending migration and returns the ones it ran
func (m *Migrator) Up(ctx context.Context) ([]*Migration, error) {
	records, err := m.History(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	var ran []*Migration
	for _, migration := range pending {
		batch, err := migration.Up(ctx, m.store)
		if err != nil {
			return ran, fmt.Errorf("migration %s_%s failed: %w", migration.Version, migration.Name, err)
		}

		records = append(records, MigrationRecord{
			Version:   migration.Version,
			Name:      migration.Name,
			AppliedAt: m.now(),
		})
		raw, err := json.Marshal(records)
		if err != nil {
			return ran, err
		}
		batch.Put(RecordsKey, string(raw))

		if err := m.store.Apply(ctx, batch); err != nil {
			return ran, fmt.Errorf("failed to record migration %s_%s: %w", migration.Version, migration.Name, err)
		}
		log.Printf("Migrator: applied %s_%s", migration.Version, migration.Name)
		ran = append(ran, migration)
	}
	return ran, nil
}
