package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/testutil"
)

func seedMessages(t *testing.T, repo *GormMessageRepository, n int) []*domain.Message {
	t.Helper()
	out := make([]*domain.Message, n)
	for i := 0; i < n; i++ {
		msg := &domain.Message{
			From: "alice",
			To:   domain.BroadcastTarget,
			Text: fmt.Sprintf("msg %d", i),
			Type: domain.MessageTypeBroadcast,
			Time: "10:00:00",
		}
		require.NoError(t, repo.Create(context.Background(), msg))
		out[i] = msg
	}
	return out
}

func seedJoin(t *testing.T, repo *GormMessageRepository, name string) *domain.Message {
	t.Helper()
	joined := domain.NewStatusMessage(name, domain.JoinText, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(context.Background(), joined))
	return joined
}

func texts(messages []domain.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Text
	}
	return out
}

func TestGormMessageRepository_ListRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewGormMessageRepository(testutil.NewDB(t))
	seedMessages(t, repo, 5)

	t.Run("zero limit returns full history in order", func(t *testing.T) {
		got, err := repo.ListRecent(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"msg 0", "msg 1", "msg 2", "msg 3", "msg 4"}, texts(got))
	})

	t.Run("limit keeps the trailing window in order", func(t *testing.T) {
		got, err := repo.ListRecent(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"msg 3", "msg 4"}, texts(got))
	})

	t.Run("limit above history size", func(t *testing.T) {
		got, err := repo.ListRecent(ctx, 50)
		require.NoError(t, err)
		assert.Len(t, got, 5)
	})
}

func TestGormMessageRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	repo := NewGormMessageRepository(testutil.NewDB(t))
	seeded := seedMessages(t, repo, 1)

	got, err := repo.GetByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, *seeded[0], *got)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestGormMessageRepository_UpdateOwned(t *testing.T) {
	ctx := context.Background()
	repo := NewGormMessageRepository(testutil.NewDB(t))
	seeded := seedMessages(t, repo, 1)
	id := seeded[0].ID

	t.Run("author edits", func(t *testing.T) {
		err := repo.UpdateOwned(ctx, &domain.Message{
			ID: id, From: "alice", To: "bob", Text: "edited", Type: domain.MessageTypeDirect, Time: "11:00:00",
		})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "bob", got.To)
		assert.Equal(t, "edited", got.Text)
		assert.Equal(t, domain.MessageTypeDirect, got.Type)
		assert.Equal(t, "11:00:00", got.Time)
		assert.Equal(t, "alice", got.From)
	})

	t.Run("someone else is refused and nothing changes", func(t *testing.T) {
		err := repo.UpdateOwned(ctx, &domain.Message{
			ID: id, From: "mallory", To: "Todos", Text: "pwned", Type: domain.MessageTypeBroadcast, Time: "12:00:00",
		})
		assert.ErrorIs(t, err, ErrNotMessageOwner)

		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Text)
	})

	t.Run("status announcements cannot be rewritten by their subject", func(t *testing.T) {
		joined := seedJoin(t, repo, "alice")

		err := repo.UpdateOwned(ctx, &domain.Message{
			ID: joined.ID, From: "alice", To: "bob", Text: "secret", Type: domain.MessageTypeDirect, Time: "12:00:00",
		})
		assert.ErrorIs(t, err, ErrNotMessageOwner)

		got, err := repo.GetByID(ctx, joined.ID)
		require.NoError(t, err)
		assert.Equal(t, *joined, *got)
	})

	t.Run("missing message", func(t *testing.T) {
		err := repo.UpdateOwned(ctx, &domain.Message{
			ID: "missing", From: "alice", To: "Todos", Text: "x", Type: domain.MessageTypeBroadcast, Time: "12:00:00",
		})
		assert.ErrorIs(t, err, ErrMessageNotFound)
	})
}

func TestGormMessageRepository_DeleteOwned(t *testing.T) {
	ctx := context.Background()
	repo := NewGormMessageRepository(testutil.NewDB(t))
	seeded := seedMessages(t, repo, 2)

	t.Run("someone else is refused", func(t *testing.T) {
		_, err := repo.DeleteOwned(ctx, seeded[0].ID, "mallory")
		assert.ErrorIs(t, err, ErrNotMessageOwner)

		_, err = repo.GetByID(ctx, seeded[0].ID)
		assert.NoError(t, err)
	})

	t.Run("status announcements cannot be deleted by their subject", func(t *testing.T) {
		joined := seedJoin(t, repo, "alice")

		_, err := repo.DeleteOwned(ctx, joined.ID, "alice")
		assert.ErrorIs(t, err, ErrNotMessageOwner)

		got, err := repo.GetByID(ctx, joined.ID)
		require.NoError(t, err)
		assert.Equal(t, *joined, *got)
	})

	t.Run("author deletes and gets the body back", func(t *testing.T) {
		deleted, err := repo.DeleteOwned(ctx, seeded[0].ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, *seeded[0], *deleted)

		_, err = repo.GetByID(ctx, seeded[0].ID)
		assert.ErrorIs(t, err, ErrMessageNotFound)

		rest, err := repo.ListRecent(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"msg 1", domain.JoinText}, texts(rest))
	})

	t.Run("missing message", func(t *testing.T) {
		_, err := repo.DeleteOwned(ctx, seeded[0].ID, "alice")
		assert.ErrorIs(t, err, ErrMessageNotFound)
	})
}
