package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/docbase/internal/docbase/store"
	"github.com/kart-io/docbase/pkg/llm"
)

// Retriever 负责向量检索：嵌入查询文本并在限定范围内搜索相似 chunk。
type Retriever struct {
	vectors  store.VectorStore
	embedder llm.EmbeddingProvider
	cache    *EmbeddingCache
	topK     int
}

// NewRetriever 创建检索器实例。cache 可以为 nil。
func NewRetriever(vectors store.VectorStore, embedder llm.EmbeddingProvider, cache *EmbeddingCache, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		vectors:  vectors,
		embedder: embedder,
		cache:    cache,
		topK:     topK,
	}
}

// Retrieve 检索与 query 最相关的 chunk。
// 结果始终限定在 projectID 内；documentIDs 非空时进一步限定到这些文档。
// 空白 query 直接返回空结果，不调用嵌入服务。
func (r *Retriever) Retrieve(ctx context.Context, query, projectID string, documentIDs []string) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []store.SearchResult{}, nil
	}

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filter := store.Filter{store.Eq{Field: "project_id", Value: projectID}}
	if len(documentIDs) > 0 {
		filter = append(filter, store.In{Field: "document_id", Values: documentIDs})
	}

	results, err := r.vectors.Search(ctx, vector, r.topK, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}
	return results, nil
}

// embedQuery 嵌入查询文本，优先使用缓存。
func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if vector, ok := r.cache.Get(ctx, query); ok {
		return vector, nil
	}

	vector, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, query, vector)
	return vector, nil
}
