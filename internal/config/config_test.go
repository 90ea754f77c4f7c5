package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"RENTLEDGER_CONFIG", "RENTLEDGER_BACKEND", "DATABASE_URL", "RENTLEDGER_DATA_FILE",
		"RENTLEDGER_LIMIT_PROPERTIES", "RENTLEDGER_LIMIT_LEASE_REQUESTS",
		"RENTLEDGER_LIMIT_LEASES", "RENTLEDGER_LIMIT_LEASE_DRAFTS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, BackendSQL, cfg.Backend)
	assert.Equal(t, "rentledger.db", cfg.DatabaseURL)
	assert.Equal(t, 5_000_000, cfg.Limits.Properties)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "rentledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: file
data_file: /tmp/ledger.json.zst
limits:
  properties: 1000
  leases: 500
`), 0o644))
	t.Setenv("RENTLEDGER_CONFIG", path)
	t.Setenv("RENTLEDGER_LIMIT_LEASES", "750")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, "/tmp/ledger.json.zst", cfg.DataFile)
	assert.Equal(t, 1000, cfg.Limits.Properties)
	assert.Equal(t, 750, cfg.Limits.Leases)
	assert.Equal(t, 1_000_000, cfg.Limits.LeaseRequests)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("RENTLEDGER_BACKEND"))
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RENTLEDGER_BACKEND=memory\n"), 0o644))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("RENTLEDGER_BACKEND", "redis")
	_, err := Load()
	assert.ErrorContains(t, err, "unknown backend")

	clearEnv(t)
	t.Setenv("RENTLEDGER_LIMIT_PROPERTIES", "lots")
	_, err = Load()
	assert.ErrorContains(t, err, "RENTLEDGER_LIMIT_PROPERTIES")

	clearEnv(t)
	t.Setenv("RENTLEDGER_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.DatabaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Limits.LeaseDrafts = 0
	assert.ErrorContains(t, cfg.Validate(), "lease_drafts")
}
