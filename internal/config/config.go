// Package config resolves where and how the ledger is stored. Values come
// from defaults, then an optional YAML file named by RENTLEDGER_CONFIG, then
// the environment (including a .env file).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendSQL    = "sql"
	BackendFile   = "file"
	BackendMemory = "memory"
)

type Config struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
	DataFile    string `yaml:"data_file"`
	Limits      Limits `yaml:"limits"`
}

// Limits override the per-collection storage ceilings, in characters
type Limits struct {
	Properties    int `yaml:"properties"`
	LeaseRequests int `yaml:"lease_requests"`
	Leases        int `yaml:"leases"`
	LeaseDrafts   int `yaml:"lease_drafts"`
}

func Default() Config {
	return Config{
		Backend:     BackendSQL,
		DatabaseURL: "rentledger.db",
		DataFile:    "rentledger.json.zst",
		Limits: Limits{
			Properties:    5_000_000,
			LeaseRequests: 1_000_000,
			Leases:        1_000_000,
			LeaseDrafts:   1_000_000,
		},
	}
}

// Load builds the configuration for the current process. envFiles default
// to .env in the working directory; variables already set are not replaced.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("RENTLEDGER_CONFIG")); path != "" {
		var err error
		if cfg, err = LoadFile(cfg, path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto base
func LoadFile(base Config, path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	if err := yaml.Unmarshal(b, &base); err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	return base, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("RENTLEDGER_BACKEND"); v != "" {
		c.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("RENTLEDGER_DATA_FILE"); v != "" {
		c.DataFile = v
	}

	limits := []struct {
		env string
		dst *int
	}{
		{"RENTLEDGER_LIMIT_PROPERTIES", &c.Limits.Properties},
		{"RENTLEDGER_LIMIT_LEASE_REQUESTS", &c.Limits.LeaseRequests},
		{"RENTLEDGER_LIMIT_LEASES", &c.Limits.Leases},
		{"RENTLEDGER_LIMIT_LEASE_DRAFTS", &c.Limits.LeaseDrafts},
	}
	for _, l := range limits {
		v := os.Getenv(l.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", l.env, err)
		}
		*l.dst = n
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the sql backend")
		}
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("RENTLEDGER_DATA_FILE is required for the file backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want sql, file or memory)", c.Backend)
	}
	for name, v := range map[string]int{
		"properties":     c.Limits.Properties,
		"lease_requests": c.Limits.LeaseRequests,
		"leases":         c.Limits.Leases,
		"lease_drafts":   c.Limits.LeaseDrafts,
	} {
		if v <= 0 {
			return fmt.Errorf("limit %s must be positive", name)
		}
	}
	return nil
}
