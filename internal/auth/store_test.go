package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T, now time.Time) *FileStore {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	store.now = func() time.Time { return now }
	return store
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newTestFileStore(t, now)

	err := store.Save(&TokenPair{
		AccessToken:      "A1",
		RefreshToken:     "R1",
		TokenType:        "Bearer",
		ExpiresIn:        14400,
		RefreshExpiresIn: 86400,
	})
	require.NoError(t, err)

	pair, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, pair)

	assert.Equal(t, "A1", pair.AccessToken)
	assert.Equal(t, "R1", pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	// Absolute expiries are computed from the lifetimes at save time.
	assert.Equal(t, now.Add(4*time.Hour).UnixMilli(), pair.AccessTokenExpiresAt)
	assert.Equal(t, now.Add(24*time.Hour).UnixMilli(), pair.RefreshTokenExpiresAt)
}

func TestFileStoreSaveReplacesWholeRecord(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newTestFileStore(t, now)

	require.NoError(t, store.Save(&TokenPair{AccessToken: "A1", RefreshToken: "R1", ExpiresIn: 3600, RefreshExpiresIn: 86400}))

	later := now.Add(2 * time.Hour)
	store.now = func() time.Time { return later }
	require.NoError(t, store.Save(&TokenPair{AccessToken: "A2", RefreshToken: "R2", ExpiresIn: 3600, RefreshExpiresIn: 86400}))

	pair, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, "A2", pair.AccessToken)
	assert.Equal(t, "R2", pair.RefreshToken)
	assert.Equal(t, later.Add(time.Hour).UnixMilli(), pair.AccessTokenExpiresAt)
}

func TestFileStoreSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "tokens.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(&TokenPair{AccessToken: "A1", ExpiresIn: 3600}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))

	pair, err := store.Load()
	assert.NoError(t, err)
	assert.Nil(t, pair)
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{ not json"), 0600))

	store := NewFileStore(path)
	pair, err := store.Load()
	assert.NoError(t, err)
	assert.Nil(t, pair)
}

func TestFileStoreLoadRecordWithoutAccessToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"refresh_token":"R1"}`), 0600))

	store := NewFileStore(path)
	pair, err := store.Load()
	assert.NoError(t, err)
	assert.Nil(t, pair)
}

func TestFileStoreClearIsIdempotent(t *testing.T) {
	store := newTestFileStore(t, time.Now())

	require.NoError(t, store.Save(&TokenPair{AccessToken: "A1", ExpiresIn: 3600}))
	require.NoError(t, store.Clear())

	pair, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, pair)

	// Clearing again, with nothing stored, is not an error.
	assert.NoError(t, store.Clear())
}
