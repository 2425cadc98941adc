package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
)

// attemptTTL bounds how long a finished attempt stays pollable. New
// submissions reset it.
const attemptTTL = 24 * time.Hour

// RedisAttemptStore keeps the current attempt per user in Redis, so status
// polls and terminal writes survive process restarts and work across
// replicas.
type RedisAttemptStore struct {
	client *redis.Client
}

func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{client: client}
}

func attemptKey(userID id.UserID) string {
	return "idproof:attempt:" + userID.String()
}

func (s *RedisAttemptStore) Save(ctx context.Context, attempt Attempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.client.Set(ctx, attemptKey(attempt.UserID), payload, attemptTTL).Err(); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

// Finish writes a terminal state inside a WATCH transaction so the write only
// lands when the stored attempt ID still matches. Losing the race to a newer
// submission is not an error.
func (s *RedisAttemptStore) Finish(ctx context.Context, attempt Attempt) error {
	key := attemptKey(attempt.UserID)

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read current attempt: %w", err)
		}

		var current Attempt
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("unmarshal current attempt: %w", err)
		}
		if current.ID != attempt.ID {
			return nil
		}

		payload, err := json.Marshal(attempt)
		if err != nil {
			return fmt.Errorf("marshal attempt: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, attemptTTL)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := s.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("finish attempt: too much contention on %s", key)
}

func (s *RedisAttemptStore) Current(ctx context.Context, userID id.UserID) (Attempt, error) {
	raw, err := s.client.Get(ctx, attemptKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Attempt{}, dErrors.New(dErrors.CodeNotFound, "no verification attempt found")
	}
	if err != nil {
		return Attempt{}, fmt.Errorf("get attempt: %w", err)
	}

	var attempt Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}
