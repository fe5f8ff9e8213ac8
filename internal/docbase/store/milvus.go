package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kart-io/logger"
	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/docbase/pkg/component/milvus"
)

// 向量集合的字段名。
const (
	fieldChunkID      = "chunk_id"
	fieldDocumentID   = "document_id"
	fieldDocumentName = "document_name"
	fieldProjectID    = "project_id"
	fieldChunkIndex   = "chunk_index"
	fieldPage         = "page"
	fieldContent      = "content"
)

var outputFields = []string{
	fieldChunkID, fieldDocumentID, fieldDocumentName,
	fieldProjectID, fieldChunkIndex, fieldPage, fieldContent,
}

// milvusVectorStore 基于 Milvus 实现 VectorStore。
type milvusVectorStore struct {
	client     *milvus.Client
	collection string
	dimension  int
}

var _ VectorStore = (*milvusVectorStore)(nil)

// NewMilvusVectorStore 创建基于 Milvus 的向量存储。
func NewMilvusVectorStore(client *milvus.Client, collection string, dimension int) VectorStore {
	return &milvusVectorStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}
}

// EnsureCollection 确保集合存在并已加载。
func (s *milvusVectorStore) EnsureCollection(ctx context.Context) error {
	schema := &milvus.CollectionSchema{
		Name:        s.collection,
		Description: "docbase document chunks",
		Dimension:   s.dimension,
		PrimaryKey:  fieldChunkID,
		MetaFields: []milvus.MetaField{
			{Name: fieldDocumentID, DataType: entity.FieldTypeVarChar, MaxLen: 128},
			{Name: fieldDocumentName, DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: fieldProjectID, DataType: entity.FieldTypeVarChar, MaxLen: 128},
			{Name: fieldChunkIndex, DataType: entity.FieldTypeInt64},
			{Name: fieldPage, DataType: entity.FieldTypeInt64},
			{Name: fieldContent, DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	}
	if err := s.client.CreateCollection(ctx, schema); err != nil {
		return fmt.Errorf("ensure collection %s: %w", s.collection, err)
	}
	return nil
}

// Insert 写入 chunks 及其向量。
func (s *milvusVectorStore) Insert(ctx context.Context, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	n := len(chunks)
	metadata := map[string][]any{
		fieldChunkID:      make([]any, n),
		fieldDocumentID:   make([]any, n),
		fieldDocumentName: make([]any, n),
		fieldProjectID:    make([]any, n),
		fieldChunkIndex:   make([]any, n),
		fieldPage:         make([]any, n),
		fieldContent:      make([]any, n),
	}
	for i, c := range chunks {
		metadata[fieldChunkID][i] = c.ChunkID
		metadata[fieldDocumentID][i] = c.DocumentID
		metadata[fieldDocumentName][i] = c.DocumentName
		metadata[fieldProjectID][i] = c.ProjectID
		metadata[fieldChunkIndex][i] = int64(c.Index)
		metadata[fieldPage][i] = int64(c.Page)
		metadata[fieldContent][i] = c.Content
	}

	if err := s.client.Insert(ctx, s.collection, &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	}); err != nil {
		return fmt.Errorf("insert %d chunks: %w", n, err)
	}
	return nil
}

// Search 在 filter 限定范围内检索最相似的 topK 个 chunk。
func (s *milvusVectorStore) Search(ctx context.Context, vector []float32, topK int, filter Filter) ([]SearchResult, error) {
	hits, err := s.client.SearchWithFilter(ctx, s.collection, vector, topK, filter.Expr(), outputFields)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{
			Chunk: Chunk{
				ChunkID:      stringField(hit.Metadata, fieldChunkID),
				DocumentID:   stringField(hit.Metadata, fieldDocumentID),
				DocumentName: stringField(hit.Metadata, fieldDocumentName),
				ProjectID:    stringField(hit.Metadata, fieldProjectID),
				Index:        int(int64Field(hit.Metadata, fieldChunkIndex)),
				Page:         int(int64Field(hit.Metadata, fieldPage)),
				Content:      stringField(hit.Metadata, fieldContent),
			},
			Score: hit.Score,
		})
	}

	// 分数相同的命中按 chunk_id 排序，保证结果顺序确定。
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].Chunk.ChunkID < results[j].Chunk.ChunkID
	})

	return results, nil
}

// DeleteByDocument 删除某文档的全部 chunk。
// 删除失败只记录告警：过期向量会被项目过滤与文档删除后的检索范围排除。
func (s *milvusVectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	expr := Filter{Eq{Field: fieldDocumentID, Value: documentID}}.Expr()
	if err := s.client.DeleteByExpr(ctx, s.collection, expr); err != nil {
		if isUnsupported(err) {
			logger.Warnw("Vector delete unsupported, leaving stale vectors",
				"collection", s.collection,
				"document_id", documentID,
				"error", err.Error(),
			)
			return nil
		}
		return fmt.Errorf("delete chunks of document %s: %w", documentID, err)
	}
	return nil
}

// Count 返回集合中的实体数量。
func (s *milvusVectorStore) Count(ctx context.Context) (int64, error) {
	return s.client.GetCollectionStats(ctx, s.collection)
}

func isUnsupported(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unsupported") || strings.Contains(msg, "not supported") ||
		strings.Contains(msg, "unimplemented")
}

func stringField(meta map[string]any, name string) string {
	if v, ok := meta[name].(string); ok {
		return v
	}
	return ""
}

func int64Field(meta map[string]any, name string) int64 {
	if v, ok := meta[name].(int64); ok {
		return v
	}
	return 0
}
