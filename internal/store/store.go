// Package store persists reading records in SQLite.
//
// Two drivers are supported: the pure-Go "sqlite" driver (modernc.org/sqlite,
// the default) and the cgo "sqlite3" driver (github.com/mattn/go-sqlite3).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"kwangun/internal/logging"
	"kwangun/internal/types"
)

// Driver names registered with database/sql.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3, cgo
)

// ErrNotFound is returned when no reading has the requested ID.
var ErrNotFound = errors.New("reading not found")

// ErrUnknownDriver is returned by Open for drivers other than DriverModernc
// and DriverMattn.
var ErrUnknownDriver = errors.New("unknown store driver")

// Reading is one stored reading.
type Reading struct {
	ID        string
	Record    types.Record // includes 字 when the character is known
	CreatedAt time.Time
}

// Char returns the character the reading annotates.
func (r Reading) Char() string {
	return r.Record.Value(types.FeatureCharName)
}

// Store manages the reading database.
type Store struct {
	db     *sql.DB
	driver string
	dbPath string
	mu     sync.RWMutex
}

// Open creates or opens a reading store at path. ":memory:" opens a private
// in-memory database.
func Open(driver, path string) (*Store, error) {
	if driver == "" {
		driver = DriverModernc
	}
	if driver != DriverModernc && driver != DriverMattn {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}

	if path != ":memory:" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, driver: driver, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Store("opened %s store at %s", driver, path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// initSchema creates the database schema.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS readings (
		id TEXT PRIMARY KEY,
		char TEXT NOT NULL DEFAULT '',
		onset TEXT NOT NULL DEFAULT '',
		hu TEXT NOT NULL DEFAULT '',
		grade TEXT NOT NULL DEFAULT '',
		rhyme TEXT NOT NULL DEFAULT '',
		tone TEXT NOT NULL DEFAULT '',
		grp TEXT NOT NULL DEFAULT '',
		section TEXT NOT NULL DEFAULT '',
		fanqie TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_readings_char ON readings(char);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// columns lists the feature columns in table order.
var columns = []struct {
	name    string
	feature types.Feature
}{
	{"char", types.FeatureCharName},
	{"onset", types.FeatureOnset},
	{"hu", types.FeatureHu},
	{"grade", types.FeatureGrade},
	{"rhyme", types.FeatureRhyme},
	{"tone", types.FeatureTone},
	{"grp", types.FeatureGroup},
	{"section", types.FeatureSection},
	{"fanqie", types.FeatureFanqie},
}

const selectReading = `SELECT id, char, onset, hu, grade, rhyme, tone, grp, section, fanqie, created_at FROM readings`

const insertReading = `INSERT INTO readings (id, char, onset, hu, grade, rhyme, tone, grp, section, fanqie, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// =============================================================================
// WRITES
// =============================================================================

// Put stores r under a fresh ID. Features outside the table columns are
// dropped.
func (s *Store) Put(ctx context.Context, r types.Record) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reading := newReading(r)
	if _, err := s.db.ExecContext(ctx, insertReading, insertArgs(reading)...); err != nil {
		return Reading{}, fmt.Errorf("failed to insert reading: %w", err)
	}
	debugReading("stored", reading)
	return reading, nil
}

// PutAll stores records in one transaction and returns them in input order.
func (s *Store) PutAll(ctx context.Context, records []types.Record) ([]Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertReading)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	out := make([]Reading, 0, len(records))
	for i, r := range records {
		reading := newReading(r)
		if _, err := stmt.ExecContext(ctx, insertArgs(reading)...); err != nil {
			return nil, fmt.Errorf("failed to insert reading %d: %w", i, err)
		}
		out = append(out, reading)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit readings: %w", err)
	}
	logging.Store("stored %d readings", len(out))
	return out, nil
}

// Delete removes the reading with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM readings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reading: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete reading: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func newReading(r types.Record) Reading {
	m := make(map[types.Feature]string, len(columns))
	for _, c := range columns {
		if v, ok := r.Get(c.feature); ok {
			m[c.feature] = v
		}
	}
	return Reading{
		ID:        uuid.New().String(),
		Record:    types.NewRecord(m),
		CreatedAt: time.Now().UTC(),
	}
}

func insertArgs(r Reading) []interface{} {
	args := make([]interface{}, 0, len(columns)+2)
	args = append(args, r.ID)
	for _, c := range columns {
		args = append(args, r.Record.Value(c.feature))
	}
	args = append(args, r.CreatedAt.Format(time.RFC3339Nano))
	return args
}

// =============================================================================
// READS
// =============================================================================

// Get returns the reading with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectReading+` WHERE id = ?`, id)
	r, err := scanReading(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reading{}, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return Reading{}, fmt.Errorf("failed to get reading: %w", err)
	}
	return r, nil
}

// ByChar returns every reading of char in insertion order.
func (s *Store) ByChar(ctx context.Context, char string) ([]Reading, error) {
	return s.query(ctx, selectReading+` WHERE char = ? ORDER BY rowid`, char)
}

// All returns every stored reading in insertion order.
func (s *Store) All(ctx context.Context) ([]Reading, error) {
	return s.query(ctx, selectReading+` ORDER BY rowid`)
}

// Count returns the number of stored readings.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, q string, args ...interface{}) ([]Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReading(sc scanner) (Reading, error) {
	var (
		id, created string
		vals        = make([]string, len(columns))
	)
	dest := make([]interface{}, 0, len(columns)+2)
	dest = append(dest, &id)
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	dest = append(dest, &created)

	if err := sc.Scan(dest...); err != nil {
		return Reading{}, err
	}

	m := make(map[types.Feature]string, len(columns))
	for i, c := range columns {
		m[c.feature] = vals[i]
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Reading{}, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	return Reading{ID: id, Record: types.NewRecord(m), CreatedAt: ts}, nil
}

func debugReading(action string, r Reading) {
	logging.StoreDebug("%s reading %s: %s", action, r.ID, r.Record)
}
