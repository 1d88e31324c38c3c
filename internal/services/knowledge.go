package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// KnowledgeBase wraps an embedded chromem-go vector store holding the medical
// reference corpus. Retrieval is best-effort: the assistant answers from its
// training data when the store is empty or a query fails.
type KnowledgeBase struct {
	db         *chromem.DB
	collection *chromem.Collection

	logger *slog.Logger
}

// KnowledgeDocument is one ingestible chunk of reference material.
type KnowledgeDocument struct {
	ID       string
	Content  string
	Metadata map[string]string
}

const knowledgeCollection = "medical-docs"

// NewKnowledgeBase opens (or creates) a persistent vector store at dir. The
// embedding function decides the vector space; pass
// chromem.NewEmbeddingFuncOpenAI for parity with the hosted setup, or any
// other chromem.EmbeddingFunc for local embedding.
func NewKnowledgeBase(dir string, embed chromem.EmbeddingFunc, logger *slog.Logger) (*KnowledgeBase, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge db: %w", err)
	}

	collection, err := db.GetOrCreateCollection(knowledgeCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	return &KnowledgeBase{
		db:         db,
		collection: collection,
		logger:     logger.With(slog.String("module", "knowledge")),
	}, nil
}

// AddDocuments ingests reference chunks into the collection.
func (k *KnowledgeBase) AddDocuments(ctx context.Context, docs []KnowledgeDocument) error {
	if len(docs) == 0 {
		return nil
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		}
	}

	if err := k.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Count reports how many chunks the collection holds.
func (k *KnowledgeBase) Count() int {
	return k.collection.Count()
}

// Retrieve returns the top-k chunks relevant to the query, joined by blank
// lines, ready to drop into the prompt context. Failures and an empty store
// both yield the empty string.
func (k *KnowledgeBase) Retrieve(ctx context.Context, query string, topK int) string {
	count := k.collection.Count()
	if count == 0 {
		return ""
	}
	if topK > count {
		topK = count
	}

	results, err := k.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		k.logger.Error("Knowledge query failed", slog.String("err", err.Error()))
		return ""
	}

	chunks := make([]string, 0, len(results))
	for _, res := range results {
		chunks = append(chunks, res.Content)
	}
	return strings.Join(chunks, "\n\n")
}
