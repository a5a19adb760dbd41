package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store persists exactly one TokenPair per installation.
//
// Save stamps the pair with absolute expiry instants computed at the moment
// of the call and replaces any prior record as a whole. Load returns
// (nil, nil) when no usable record exists; corrupt content counts as absent,
// not as a failure. Clear is idempotent.
type Store interface {
	Save(pair *TokenPair) error
	Load() (*TokenPair, error)
	Clear() error
	Close() error
}

// NewStoreFromEnv selects the token store backend. REDIS_URL picks Redis,
// DATABASE_URL picks Postgres (both encrypted at rest and requiring
// TOKEN_ENCRYPTION_KEY); the default is a JSON file under the user's
// configuration directory.
func NewStoreFromEnv() (Store, error) {
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		key := os.Getenv("TOKEN_ENCRYPTION_KEY")
		if key == "" {
			return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY is required when using Redis token storage")
		}
		return NewRedisStore(redisURL, key)
	}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		key := os.Getenv("TOKEN_ENCRYPTION_KEY")
		if key == "" {
			return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY is required when using database token storage")
		}
		return NewPostgresStore(databaseURL, key)
	}

	path := os.Getenv("TINY_TOKEN_FILE")
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving user config dir: %w", err)
		}
		path = filepath.Join(configDir, "tiny-erp-mcp", "tokens.json")
	}
	return NewFileStore(path), nil
}

// FileStore keeps the token record in a single JSON file. The file is the
// source of truth across process restarts; writes replace it whole. No file
// locking: this is a single-user credential and last-writer-wins is
// accepted.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore creates a file-backed token store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Save stamps and writes the full record, creating the directory if needed.
func (s *FileStore) Save(pair *TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair.stamp(s.now())

	data, err := json.MarshalIndent(pair, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// Load returns the stored pair, or (nil, nil) when the file is missing,
// unreadable, or corrupt.
func (s *FileStore) Load() (*TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil || pair.AccessToken == "" {
		return nil, nil
	}
	return &pair, nil
}

// Clear removes the token file. Already-absent is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// Close is a no-op for file-based storage.
func (s *FileStore) Close() error { return nil }
