package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
)

// PostgresStore persists profiles in PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool. Callers own the pool lifecycle.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgresStore connects to the given URL and ensures the profiles table
// exists.
func OpenPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open profile database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping profile database: %w", err)
	}
	store := &PostgresStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS profiles (
			user_id       UUID PRIMARY KEY,
			is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
			last_verified TIMESTAMPTZ
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure profile schema: %w", err)
	}
	return nil
}

// MarkVerified upserts the profile. is_verified is only ever raised to true,
// and GREATEST keeps last_verified from moving backwards when terminal writes
// race.
func (s *PostgresStore) MarkVerified(ctx context.Context, userID id.UserID, verifiedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, is_verified, last_verified)
		VALUES ($1, TRUE, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			is_verified = TRUE,
			last_verified = GREATEST(profiles.last_verified, EXCLUDED.last_verified)
	`, userID.String(), verifiedAt)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistenceFailed, "failed to persist verification")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (Profile, error) {
	p := Profile{UserID: userID}
	err := s.pool.QueryRow(ctx, `
		SELECT is_verified, last_verified
		FROM profiles
		WHERE user_id = $1
	`, userID.String()).Scan(&p.IsVerified, &p.LastVerified)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Close releases the underlying pool when this store opened it.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
