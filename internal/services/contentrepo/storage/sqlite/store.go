package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/contentrepository/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/event"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/domain/eventstore"
	"github.com/louisbranch/contentrepository/internal/services/contentrepo/storage/sqlite/migrations"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store is a SQLite-backed eventstore.Store.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ eventstore.Store = (*Store)(nil)

// OpenEvents opens the event store at path and applies the embedded
// migrations.
func OpenEvents(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.EventsFS, "events"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		sqlDB: sqlDB,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the underlying database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the records of one stream after a version.
func (s *Store) Load(ctx context.Context, stream event.StreamName, afterVersion int64) ([]eventstore.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if stream == event.AllStreams {
		return s.LoadAll(ctx, 0, 0)
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT sequence, stream_name, version, event_type, payload_json, metadata_json, recorded_at
FROM events
WHERE stream_name = ? AND version > ?
ORDER BY version`, string(stream), afterVersion)
	if err != nil {
		return nil, fmt.Errorf("load stream %s: %w", stream, err)
	}
	return scanRecords(rows)
}

// LoadAll returns records of every stream in commit order. A limit of zero
// loads everything.
func (s *Store) LoadAll(ctx context.Context, afterSequence uint64, limit int) ([]eventstore.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT sequence, stream_name, version, event_type, payload_json, metadata_json, recorded_at
FROM events
WHERE sequence > ?
ORDER BY sequence
LIMIT ?`, int64(afterSequence), limit)
	if err != nil {
		return nil, fmt.Errorf("load all: %w", err)
	}
	return scanRecords(rows)
}

// Commit appends the events in one transaction when expected matches.
func (s *Store) Commit(ctx context.Context, stream event.StreamName, events []eventstore.Pending, expected eventstore.ExpectedVersion) (eventstore.CommitResult, error) {
	if err := s.ready(ctx); err != nil {
		return eventstore.CommitResult{}, err
	}
	if stream == "" || stream == event.AllStreams {
		return eventstore.CommitResult{}, fmt.Errorf("stream name %q cannot be written", stream)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return eventstore.CommitResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := streamVersion(ctx, tx, stream)
	if err != nil {
		return eventstore.CommitResult{}, err
	}
	if !expected.Matches(current) {
		return eventstore.CommitResult{}, eventstore.NewConcurrencyConflict(stream, expected, current)
	}
	if len(events) == 0 {
		return eventstore.CommitResult{Version: current}, nil
	}

	recordedAt := s.now()
	records := make([]eventstore.Record, 0, len(events))
	for i, pending := range events {
		record, err := eventstore.EncodeRecord(stream, current+int64(i)+1, pending)
		if err != nil {
			return eventstore.CommitResult{}, fmt.Errorf("event %d: %w", i, err)
		}
		metadata, err := json.Marshal(record.Metadata)
		if err != nil {
			return eventstore.CommitResult{}, fmt.Errorf("event %d metadata: %w", i, err)
		}
		result, err := tx.ExecContext(ctx, `
INSERT INTO events (stream_name, version, event_type, payload_json, metadata_json, recorded_at)
VALUES (?, ?, ?, ?, ?, ?)`,
			string(stream), record.Version, string(record.Type), record.Payload, metadata, toMillis(recordedAt))
		if err != nil {
			if isConstraintError(err) {
				return eventstore.CommitResult{}, eventstore.NewConcurrencyConflict(stream, expected, current)
			}
			return eventstore.CommitResult{}, fmt.Errorf("append event %d: %w", i, err)
		}
		sequence, err := result.LastInsertId()
		if err != nil {
			return eventstore.CommitResult{}, fmt.Errorf("event %d sequence: %w", i, err)
		}
		record.Sequence = uint64(sequence)
		record.RecordedAt = fromMillis(toMillis(recordedAt))
		records = append(records, record)
	}

	if err := tx.Commit(); err != nil {
		if isConstraintError(err) || isSQLiteBusyError(err) {
			return eventstore.CommitResult{}, eventstore.NewConcurrencyConflict(stream, expected, current)
		}
		return eventstore.CommitResult{}, fmt.Errorf("commit: %w", err)
	}

	last := records[len(records)-1]
	return eventstore.CommitResult{Version: last.Version, Sequence: last.Sequence, Records: records}, nil
}

// StreamVersion returns the version of the last event of a stream.
func (s *Store) StreamVersion(ctx context.Context, stream event.StreamName) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return eventstore.NoVersion, err
	}
	return streamVersion(ctx, s.sqlDB, stream)
}

// DeleteStream removes every record of a stream.
func (s *Store) DeleteStream(ctx context.Context, stream event.StreamName) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM events WHERE stream_name = ?`, string(stream)); err != nil {
		return fmt.Errorf("delete stream %s: %w", stream, err)
	}
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func streamVersion(ctx context.Context, q queryer, stream event.StreamName) (int64, error) {
	var version sql.NullInt64
	if err := q.QueryRowContext(ctx, `SELECT MAX(version) FROM events WHERE stream_name = ?`, string(stream)).Scan(&version); err != nil {
		return eventstore.NoVersion, fmt.Errorf("stream version %s: %w", stream, err)
	}
	if !version.Valid {
		return eventstore.NoVersion, nil
	}
	return version.Int64, nil
}

func scanRecords(rows *sql.Rows) ([]eventstore.Record, error) {
	defer rows.Close()

	var records []eventstore.Record
	for rows.Next() {
		var (
			record     eventstore.Record
			sequence   int64
			stream     string
			eventType  string
			metadata   []byte
			recordedAt int64
		)
		if err := rows.Scan(&sequence, &stream, &record.Version, &eventType, &record.Payload, &metadata, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		record.Sequence = uint64(sequence)
		record.StreamName = event.StreamName(stream)
		record.Type = event.Type(eventType)
		record.RecordedAt = fromMillis(recordedAt)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &record.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of event %d: %w", sequence, err)
			}
		}
		decoded, err := event.Decode(record.Type, record.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode event %d: %w", sequence, err)
		}
		record.Event = decoded
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return records, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isSQLiteBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}
