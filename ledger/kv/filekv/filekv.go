// Package filekv keeps every ledger entry in one zstd-compressed JSON file.
// Each batch rewrites the file through a temporary sibling and a rename, so
// readers see either the old contents or the new ones.
package filekv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/beesaferoot/rentledger/ledger/kv"
)

// Store is a kv.Store backed by a single file
type Store struct {
	path string

	mu   sync.RWMutex
	data map[string]string
}

var _ kv.Store = (*Store)(nil)

// Open reads path if it exists. A missing file is an empty store.
func Open(path string) (*Store, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &Store{path: path, data: data}, nil
}

func readFile(path string) (map[string]string, error) {
	data := make(map[string]string)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	if err := json.NewDecoder(dec).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return data, nil
}

func writeFile(path string, data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return err
	}
	if err := json.NewEncoder(enc).Encode(data); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return kv.SortedKeys(s.data), nil
}

func (s *Store) Apply(ctx context.Context, b kv.Batch) error {
	if b.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.data)+len(b.Set))
	for k, v := range s.data {
		next[k] = v
	}
	kv.ApplyTo(next, b)
	if err := writeFile(s.path, next); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	s.data = next
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeFile(s.path, map[string]string{}); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	s.data = make(map[string]string)
	return nil
}

func (s *Store) Close() error { return nil }
