package services_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medgrove/med-web-ui/internal/models"
	"github.com/medgrove/med-web-ui/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) services.BoltStore {
	t.Helper()

	store, err := services.NewBoltStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndReadMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AppendMessage(ctx, "s1", models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   "hello",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, "s1", models.Message{
		ID:      uuid.New().String(),
		Role:    models.RoleAssistant,
		Content: "hi there",
	})
	require.NoError(t, err)

	msgs, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "hi there", msgs[1].Content)
}

func TestMessagesUnknownSession(t *testing.T) {
	store := newTestStore(t)

	msgs, err := store.Messages(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAppendTrimsHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := store.AppendMessage(ctx, "s1", models.Message{
			ID:      uuid.New().String(),
			Role:    models.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	msgs, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 20)
	assert.Equal(t, "message 5", msgs[0].Content)
	assert.Equal(t, "message 24", msgs[19].Content)
}

func TestClearConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AppendMessage(ctx, "s1", models.Message{ID: "a", Role: models.RoleUser, Content: "x"})
	require.NoError(t, err)

	require.NoError(t, store.ClearConversation(ctx, "s1"))
	require.NoError(t, store.ClearConversation(ctx, "s1")) // idempotent

	msgs, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestConversationsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AppendMessage(ctx, "s1", models.Message{ID: "a", Role: models.RoleUser, Content: "one"})
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, "s2", models.Message{ID: "b", Role: models.RoleUser, Content: "two"})
	require.NoError(t, err)

	require.NoError(t, store.ClearConversation(ctx, "s1"))

	msgs, err := store.Messages(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "two", msgs[0].Content)
}
