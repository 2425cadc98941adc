package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	id "idproof/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL via database/sql.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing connection pool. Callers own the pool
// lifecycle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgresStore opens a pool against the given URL and ensures the audit
// table exists.
func OpenPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	store := &PostgresStore{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id         UUID PRIMARY KEY,
			user_id    UUID NOT NULL,
			action     TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			client_ip  TEXT NOT NULL DEFAULT '',
			device     TEXT NOT NULL DEFAULT '',
			metadata   JSONB NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS audit_events_user_idx ON audit_events (user_id, occurred_at);
	`)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, user_id, action, occurred_at, client_ip, device, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.UserID.String(), string(event.Action), event.Timestamp, event.ClientIP, event.Device, metadata)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, occurred_at, client_ip, device, metadata
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event := Event{UserID: userID}
		var action string
		var metadata []byte
		if err := rows.Scan(&event.ID, &action, &event.Timestamp, &event.ClientIP, &event.Device, &metadata); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close releases the underlying pool when this store opened it.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
