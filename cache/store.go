// Package cache persists the latest snapshot and daemon health as JSON files
// so other local processes can read them without talking to the daemon.
package cache

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// Well-known keys.
const (
	KeySnapshot = "snapshot"
	KeyHealth   = "health"
)

// Store provides a JSON file-based cache. Files are stored in a flat
// directory:
//
//	~/.cache/host-pulse/
//	  snapshot.json
//	  health.json
//	  daemon.pid
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a cache store at the given directory.
// The directory is created with 0700 permissions if it does not exist.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the filesystem path for a cache key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads a cached value. fresh reports whether the entry was written
// within maxAge; a maxAge <= 0 treats every entry as fresh.
// A missing file returns nil, false, nil. A file that is not valid JSON is
// removed and treated as a miss.
func (s *Store) Get(key string, maxAge time.Duration) (json.RawMessage, bool, error) {
	path := s.Path(key)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: stat %s: %w", key, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("cache: read %s: %w", key, err)
	}

	if !json.Valid(data) {
		s.logger.Warn("cache: removing corrupted entry", slog.String("key", key))
		_ = os.Remove(path)
		return nil, false, nil
	}

	fresh := maxAge <= 0 || time.Since(info.ModTime()) < maxAge
	return json.RawMessage(data), fresh, nil
}

// Set writes a value with an atomic write (temp file, then rename) so a
// concurrent reader sees either the old or the new content, never a mix.
func (s *Store) Set(key string, data interface{}) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+key+"-*.json")
	if err != nil {
		return fmt.Errorf("cache: create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: chmod temp for %s: %w", key, err)
	}
	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: write temp for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: close temp for %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		return fmt.Errorf("cache: rename temp for %s: %w", key, err)
	}

	success = true
	return nil
}

// GetTyped reads and unmarshals a cached value into T. It returns nil if the
// key does not exist or its content does not decode.
func GetTyped[T any](s *Store, key string, maxAge time.Duration) (*T, bool, error) {
	raw, fresh, err := s.Get(key, maxAge)
	if err != nil || raw == nil {
		return nil, false, err
	}

	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		s.logger.Warn("cache: removing entry with unmarshal error",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		_ = os.Remove(s.Path(key))
		return nil, false, nil
	}
	return &result, fresh, nil
}

// SetTyped marshals and caches a value of type T.
func SetTyped[T any](s *Store, key string, data *T) error {
	return s.Set(key, data)
}

// Age returns how old a cache entry is based on its modification time.
// Returns -1 if the entry does not exist.
func (s *Store) Age(key string) time.Duration {
	info, err := os.Stat(s.Path(key))
	if err != nil {
		return -1
	}
	return time.Since(info.ModTime())
}

// Remove deletes a cache entry. A missing entry is not an error.
func (s *Store) Remove(key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: remove %s: %w", key, err)
	}
	return nil
}
