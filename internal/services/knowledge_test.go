package services_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/medgrove/med-web-ui/internal/services"
	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedding maps a handful of known words onto fixed unit vectors so
// retrieval is deterministic without a real embedding endpoint.
func stubEmbedding(_ context.Context, text string) ([]float32, error) {
	switch {
	case strings.Contains(text, "fever"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(text, "migraine"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func newTestKnowledgeBase(t *testing.T) *services.KnowledgeBase {
	t.Helper()

	kb, err := services.NewKnowledgeBase(t.TempDir(), stubEmbedding, slog.Default())
	require.NoError(t, err)
	return kb
}

var _ chromem.EmbeddingFunc = stubEmbedding

func TestRetrieveEmptyStore(t *testing.T) {
	kb := newTestKnowledgeBase(t)

	assert.Equal(t, "", kb.Retrieve(context.Background(), "anything", 4))
}

func TestRetrieveRanksByRelevance(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	ctx := context.Background()

	err := kb.AddDocuments(ctx, []services.KnowledgeDocument{
		{ID: "1", Content: "fever management in adults"},
		{ID: "2", Content: "migraine triggers and prevention"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, kb.Count())

	got := kb.Retrieve(ctx, "treating a fever", 1)
	assert.Equal(t, "fever management in adults", got)
}

func TestRetrieveClampsTopK(t *testing.T) {
	kb := newTestKnowledgeBase(t)
	ctx := context.Background()

	err := kb.AddDocuments(ctx, []services.KnowledgeDocument{
		{ID: "1", Content: "fever management in adults"},
	})
	require.NoError(t, err)

	got := kb.Retrieve(ctx, "fever", 10)
	assert.Equal(t, "fever management in adults", got)
}
