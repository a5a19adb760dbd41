package auth

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore persists the token record in a single-row table, encrypted
// at rest. Intended for containerized deployments where the process has no
// durable home directory.
type PostgresStore struct {
	db            *sql.DB
	encryptionKey string
	now           func() time.Time
}

// NewPostgresStore opens the database and ensures the schema exists.
func NewPostgresStore(connectionString, encryptionKey string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	store := &PostgresStore{db: db, encryptionKey: encryptionKey, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS tiny_tokens (
		id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		record_encrypted TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Save stamps, encrypts, and upserts the single token row.
func (s *PostgresStore) Save(pair *TokenPair) error {
	pair.stamp(s.now())

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encoding token record: %w", err)
	}

	sealed, err := sealRecord(data, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("encrypting token record: %w", err)
	}

	query := `
		INSERT INTO tiny_tokens (id, record_encrypted, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id)
		DO UPDATE SET record_encrypted = EXCLUDED.record_encrypted, updated_at = NOW()
	`
	if _, err := s.db.Exec(query, sealed); err != nil {
		return fmt.Errorf("writing token record: %w", err)
	}
	return nil
}

// Load returns the stored pair, or (nil, nil) when absent or undecryptable.
func (s *PostgresStore) Load() (*TokenPair, error) {
	var sealed string
	err := s.db.QueryRow(`SELECT record_encrypted FROM tiny_tokens WHERE id = 1`).Scan(&sealed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token record: %w", err)
	}

	data, err := openRecord(sealed, s.encryptionKey)
	if err != nil {
		return nil, nil
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil || pair.AccessToken == "" {
		return nil, nil
	}
	return &pair, nil
}

// Clear deletes the token row; idempotent.
func (s *PostgresStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM tiny_tokens WHERE id = 1`); err != nil {
		return fmt.Errorf("clearing token record: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error { return s.db.Close() }
