// Package store persists compiled function artifacts in a SQLite database.
// Artifacts are stored as CBOR images keyed by their logical path, each
// with the SHA-256 digest of its image, so a driver can compare digests to
// skip recompiling sources whose compiled form it already holds. Entries
// are looked up by path only.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/nightjar-mud/nightjar/pkg/bytecode"
)

// ErrNotFound indicates the requested artifact doesn't exist.
var ErrNotFound = errors.New("store: artifact not found")

// Store is a SQLite-backed artifact store.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Entry describes one stored artifact.
type Entry struct {
	Path   string
	Digest string
	Size   int
}

// Open creates or opens the artifact store at dbPath, creating parent
// directories as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Create table if needed
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS artifacts (
		path   TEXT PRIMARY KEY,
		digest TEXT NOT NULL,
		image  BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Digest returns the hex SHA-256 of an artifact's encoded image.
func Digest(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Put encodes fn and stores it under path, replacing any previous artifact
// there. It returns the image digest.
func (s *Store) Put(path string, fn *bytecode.Function) (string, error) {
	image, err := bytecode.EncodeImage(fn)
	if err != nil {
		return "", fmt.Errorf("encoding artifact %s: %w", path, err)
	}
	digest := Digest(image)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`INSERT INTO artifacts (path, digest, image) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET digest = excluded.digest, image = excluded.image`,
		path, digest, image)
	if err != nil {
		return "", fmt.Errorf("storing artifact %s: %w", path, err)
	}
	return digest, nil
}

// Get loads and decodes the artifact stored under path.
func (s *Store) Get(path string) (*bytecode.Function, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var image []byte
	err := s.db.QueryRow(`SELECT image FROM artifacts WHERE path = ?`, path).Scan(&image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading artifact %s: %w", path, err)
	}
	return bytecode.DecodeImage(image)
}

// GetDigest returns the stored digest for path without decoding the image.
func (s *Store) GetDigest(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var digest string
	err := s.db.QueryRow(`SELECT digest FROM artifacts WHERE path = ?`, path).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading digest for %s: %w", path, err)
	}
	return digest, nil
}

// Delete removes the artifact stored under path.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM artifacts WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("deleting artifact %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every stored artifact in path order.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT path, digest, length(image) FROM artifacts ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Digest, &e.Size); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
