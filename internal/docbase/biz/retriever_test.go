package biz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docbase/internal/docbase/biz"
	"github.com/kart-io/docbase/internal/docbase/store"
)

func seedVectors(t *testing.T, vectors *fakeVectorStore, projectID, docID string, contents ...string) {
	t.Helper()
	var chunks []store.Chunk
	var embeddings [][]float32
	for i, content := range contents {
		chunks = append(chunks, store.Chunk{
			ChunkID:    docID + ":" + string(rune('1'+i)),
			DocumentID: docID,
			ProjectID:  projectID,
			Content:    content,
		})
		embeddings = append(embeddings, embedText(content))
	}
	require.NoError(t, vectors.Insert(context.Background(), chunks, embeddings))
}

func TestRetrieveEmptyQuery(t *testing.T) {
	vectors := &fakeVectorStore{}
	embedder := &fakeEmbedder{}
	retriever := biz.NewRetriever(vectors, embedder, nil, 5)

	for _, query := range []string{"", "   ", "\t\n"} {
		results, err := retriever.Retrieve(context.Background(), query, "p1", nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
	// 空白查询不调用嵌入服务。
	assert.Equal(t, 0, embedder.callCount())
}

func TestRetrieveScopesToProject(t *testing.T) {
	vectors := &fakeVectorStore{}
	embedder := &fakeEmbedder{}
	retriever := biz.NewRetriever(vectors, embedder, nil, 10)

	seedVectors(t, vectors, "p1", "doc1", "content one")
	seedVectors(t, vectors, "p2", "doc2", "content two")

	results, err := retriever.Retrieve(context.Background(), "content", "p1", nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "p1", r.Chunk.ProjectID)
	}
}

func TestRetrieveDocumentSubset(t *testing.T) {
	vectors := &fakeVectorStore{}
	embedder := &fakeEmbedder{}
	retriever := biz.NewRetriever(vectors, embedder, nil, 10)

	seedVectors(t, vectors, "p1", "doc1", "alpha")
	seedVectors(t, vectors, "p1", "doc2", "beta")
	seedVectors(t, vectors, "p1", "doc3", "gamma")

	// 限定到 doc1、doc3 时结果是无限定结果的子集。
	all, err := retriever.Retrieve(context.Background(), "query", "p1", nil)
	require.NoError(t, err)
	scoped, err := retriever.Retrieve(context.Background(), "query", "p1", []string{"doc1", "doc3"})
	require.NoError(t, err)

	allIDs := make(map[string]bool)
	for _, r := range all {
		allIDs[r.Chunk.ChunkID] = true
	}
	for _, r := range scoped {
		assert.True(t, allIDs[r.Chunk.ChunkID])
		assert.Contains(t, []string{"doc1", "doc3"}, r.Chunk.DocumentID)
	}
}

func TestRetrieveTopK(t *testing.T) {
	vectors := &fakeVectorStore{}
	embedder := &fakeEmbedder{}
	retriever := biz.NewRetriever(vectors, embedder, nil, 2)

	seedVectors(t, vectors, "p1", "doc1", "one", "two", "three", "four")

	results, err := retriever.Retrieve(context.Background(), "query", "p1", nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
