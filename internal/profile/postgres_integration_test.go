//go:build integration

package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	id "idproof/pkg/domain"
	dErrors "idproof/pkg/domain-errors"
	"idproof/pkg/testutil/containers"
)

func TestPostgresStore_Integration(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)

	store, err := OpenPostgresStore(ctx, pg.URL)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	t.Run("mark verified creates and reads back", func(t *testing.T) {
		userID := id.UserID(uuid.New())
		now := time.Now().UTC().Truncate(time.Microsecond)

		require.NoError(t, store.MarkVerified(ctx, userID, now))

		p, err := store.Get(ctx, userID)
		require.NoError(t, err)
		require.True(t, p.IsVerified)
		require.NotNil(t, p.LastVerified)
		require.WithinDuration(t, now, *p.LastVerified, time.Millisecond)
	})

	t.Run("verification is monotonic", func(t *testing.T) {
		userID := id.UserID(uuid.New())
		now := time.Now().UTC().Truncate(time.Microsecond)
		earlier := now.Add(-time.Hour)

		require.NoError(t, store.MarkVerified(ctx, userID, now))
		require.NoError(t, store.MarkVerified(ctx, userID, earlier))

		p, err := store.Get(ctx, userID)
		require.NoError(t, err)
		require.True(t, p.IsVerified)
		require.WithinDuration(t, now, *p.LastVerified, time.Millisecond)
	})

	t.Run("unknown user returns not_found", func(t *testing.T) {
		_, err := store.Get(ctx, id.UserID(uuid.New()))
		require.Error(t, err)
		require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
