package filekv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesaferoot/rentledger/ledger/kv"
)

func TestOpenMissingFile(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "none.json.zst"))
	require.NoError(t, err)

	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestApplySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.json.zst")

	store, err := Open(path)
	require.NoError(t, err)

	var b kv.Batch
	b.Put("properties", `[{"id":"1","location":"Lagos"}]`)
	b.Put("userRole", "tenant")
	require.NoError(t, store.Apply(ctx, b))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, "properties")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1","location":"Lagos"}]`, v)

	var del kv.Batch
	del.Remove("userRole")
	require.NoError(t, reopened.Apply(ctx, del))

	again, err := Open(path)
	require.NoError(t, err)
	keys, err := again.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"properties"}, keys)
}

func TestNoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "ledger.json.zst"))
	require.NoError(t, err)

	var b kv.Batch
	b.Put("account", "0xabc")
	require.NoError(t, store.Apply(context.Background(), b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger.json.zst", entries[0].Name())
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json.zst")
	require.NoError(t, os.WriteFile(path, []byte("not zstd"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json.zst")
	store, err := Open(path)
	require.NoError(t, err)

	var b kv.Batch
	b.Put("leases", "[]")
	require.NoError(t, store.Apply(ctx, b))
	require.NoError(t, store.Clear(ctx))

	reopened, err := Open(path)
	require.NoError(t, err)
	keys, _ := reopened.Keys(ctx)
	assert.Empty(t, keys)
}
