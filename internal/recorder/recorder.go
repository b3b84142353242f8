// Package recorder persists observed stream records to a SQLite database.
package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/brianly1003/phxstream/internal/domain"
	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
)

// schemaVersion is bumped whenever the records table changes shape.
const schemaVersion = 1

// Recorder is a hub subscriber that appends every event to a records table.
type Recorder struct {
	id     string
	db     *sql.DB
	dbPath string

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Open opens (or creates) the database at dbPath.
func Open(dbPath string) (*Recorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create recorder directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open recorder database: %w", err)
	}
	// One writer; the hub delivers from a single goroutine anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create recorder schema: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("recorder opened")

	return &Recorder{
		id:     "recorder:" + dbPath,
		db:     db,
		dbPath: dbPath,
		done:   make(chan struct{}),
	}, nil
}

func createSchema(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS metadata (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return err
	}

	var currentVersion int
	if err := db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&currentVersion); err != nil {
		currentVersion = 0
	}
	if currentVersion != 0 && currentVersion < schemaVersion {
		log.Info().
			Int("old_version", currentVersion).
			Int("new_version", schemaVersion).
			Msg("recorder schema changed, dropping old records")
		if _, err := db.Exec("DROP TABLE IF EXISTS records"); err != nil {
			return err
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			observed_at TEXT NOT NULL,
			topic TEXT,
			body TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_records_type ON records(type);
		CREATE INDEX IF NOT EXISTS idx_records_topic ON records(topic);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	_, err := db.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

// ID returns the subscriber ID.
func (r *Recorder) ID() string {
	return r.id
}

// Path returns the database path.
func (r *Recorder) Path() string {
	return r.dbPath
}

// Send stores event.
func (r *Recorder) Send(event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrSubscriberClosed
	}

	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", event.Type(), err)
	}

	_, err = r.db.Exec(
		"INSERT INTO records (type, observed_at, topic, body) VALUES (?, ?, ?, ?)",
		string(event.Type()),
		event.Timestamp().UTC().Format(time.RFC3339Nano),
		event.GetTopic(),
		string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s record: %w", event.Type(), err)
	}
	return nil
}

// Count returns the number of stored records.
func (r *Recorder) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// List returns the most recent limit records, oldest first.
// A non-positive limit returns every record.
func (r *Recorder) List(ctx context.Context, limit int) ([]events.Record, error) {
	query := "SELECT body FROM records ORDER BY id"
	args := []any{}
	if limit > 0 {
		query = "SELECT body FROM (SELECT id, body FROM records ORDER BY id DESC LIMIT ?) ORDER BY id"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []events.Record
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var rec events.Record
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	close(r.done)
	return r.db.Close()
}

// Done is closed once Close has been called.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

var _ ports.Subscriber = (*Recorder)(nil)
