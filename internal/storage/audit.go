package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// AuditRecord is one raw inbound webhook delivery. Records are
// write-once; nothing in the processing path reads them back.
type AuditRecord struct {
	ID        int64
	Payload   string
	Timestamp time.Time
}

// AuditLog durably records every inbound webhook payload before it is
// processed, independent of processing outcome.
type AuditLog interface {
	Append(ctx context.Context, payload []byte) error
	// Recent returns the most recent records, newest first.
	Recent(ctx context.Context, limit int) ([]AuditRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLiteAuditLog is an append-only webhook log in a local SQLite file.
type SQLiteAuditLog struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ AuditLog = (*SQLiteAuditLog)(nil)

func NewSQLiteAuditLog(path string, logger *slog.Logger) (*SQLiteAuditLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit database ping failed: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS webhooks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			payload TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create webhooks table: %w", err)
	}

	return &SQLiteAuditLog{db: db, logger: logger}, nil
}

func (a *SQLiteAuditLog) Append(ctx context.Context, payload []byte) error {
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := a.db.ExecContext(ctx,
		"INSERT INTO webhooks (payload, timestamp) VALUES (?, ?)",
		string(payload), ts); err != nil {
		a.logger.Error("Failed to append audit record", "error", err)
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

func (a *SQLiteAuditLog) Recent(ctx context.Context, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := a.db.QueryContext(ctx,
		"SELECT id, payload, timestamp FROM webhooks ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		var ts string
		if err := rows.Scan(&rec.ID, &rec.Payload, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			a.logger.Warn("Malformed timestamp in audit record", "id", rec.ID, "timestamp", ts)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit rows iteration error: %w", err)
	}

	return records, nil
}

func (a *SQLiteAuditLog) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("audit database ping failed: %w", err)
	}
	return nil
}

func (a *SQLiteAuditLog) Close() error {
	return a.db.Close()
}
