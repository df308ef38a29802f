package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanun-labs/qanun-cli/internal/adapters/driven/storage/memory"
	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

func TestIngestService_EmptyContent(t *testing.T) {
	svc := NewIngestService(memory.NewChunkStore(), nil)

	_, err := svc.Ingest(context.Background(), domain.Document{Content: "   \n  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestService_PersistsDocumentAndChunks(t *testing.T) {
	store := memory.NewChunkStore()
	svc := NewIngestService(store, nil)
	ctx := context.Background()

	content := "قانون العمل.\n" +
		"المادة 1\n" +
		"يسري هذا القانون على جميع العاملين في القطاع الخاص.\n" +
		"المادة 2\n" +
		"لا يجوز إنهاء عقد العمل دون إخطار كتابي مسبق."

	chunks, err := svc.Ingest(ctx, domain.Document{
		ID:       "doc-1",
		Title:    "قانون العمل",
		DocType:  "statute",
		Language: "ar",
		Content:  content,
	})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "قانون العمل", doc.Title)
	assert.False(t, doc.UpdatedAt.IsZero())

	stored, err := store.LoadChunks(ctx, domain.ChunkFilter{DocumentID: "doc-1"})
	require.NoError(t, err)
	require.Len(t, stored, len(chunks))
	for i, chunk := range stored {
		assert.Equal(t, i, chunk.Position)
		assert.Equal(t, "doc-1", chunk.DocumentID)
		assert.NotEmpty(t, chunk.ID)
		assert.NotEmpty(t, chunk.Content)
	}

	// The preamble carries no article marker; the articles do.
	assert.Empty(t, stored[0].ArticleNumber)
	articles := make(map[string]bool)
	for _, chunk := range stored {
		if chunk.ArticleNumber != "" {
			articles[chunk.ArticleNumber] = true
		}
	}
	assert.True(t, articles["1"])
	assert.True(t, articles["2"])
}

func TestIngestService_GeneratesDocumentID(t *testing.T) {
	store := memory.NewChunkStore()
	svc := NewIngestService(store, nil)

	chunks, err := svc.Ingest(context.Background(), domain.Document{Content: "نص قصير للتجربة."})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.NotEmpty(t, chunks[0].DocumentID)
	_, err = store.GetDocument(context.Background(), chunks[0].DocumentID)
	assert.NoError(t, err)
}

func TestIngestService_ReingestReplacesDocument(t *testing.T) {
	store := memory.NewChunkStore()
	svc := NewIngestService(store, nil)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, domain.Document{ID: "doc-1", Title: "الإصدار الأول", Content: "النص الأول."})
	require.NoError(t, err)

	_, err = svc.Ingest(ctx, domain.Document{ID: "doc-1", Title: "الإصدار الثاني", Content: "النص الثاني."})
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "الإصدار الثاني", doc.Title)
}
