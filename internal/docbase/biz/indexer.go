package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/docbase/internal/docbase/store"
	"github.com/kart-io/docbase/internal/model"
	"github.com/kart-io/docbase/pkg/llm"
)

// Indexer 负责把抽取出的文本单元切分、打标、嵌入并写入向量索引。
type Indexer struct {
	vectors  store.VectorStore
	embedder llm.EmbeddingProvider
	chunker  *Chunker
}

// NewIndexer 创建索引器实例。
func NewIndexer(vectors store.VectorStore, embedder llm.EmbeddingProvider, chunker *Chunker) *Indexer {
	return &Indexer{
		vectors:  vectors,
		embedder: embedder,
		chunker:  chunker,
	}
}

// tagChunks 将文本单元切分并附加元数据。
// chunk_index 跨所有单元从 1 连续递增，chunk_id 形如 "{docID}:{index}"。
func (i *Indexer) tagChunks(doc *model.Document, units []Unit) []store.Chunk {
	var chunks []store.Chunk
	index := 0
	for _, unit := range units {
		for _, content := range i.chunker.Split(unit.Text) {
			index++
			chunks = append(chunks, store.Chunk{
				ChunkID:      fmt.Sprintf("%s:%d", doc.ID, index),
				DocumentID:   doc.ID,
				DocumentName: doc.Name,
				ProjectID:    doc.ProjectID,
				Index:        index,
				Page:         unit.Page,
				Content:      content,
			})
		}
	}
	return chunks
}

// Index 索引一个文档的全部文本单元，返回写入的 chunk 数量。
// 没有可索引内容时返回 (0, nil)，文档仍视为成功。
func (i *Indexer) Index(ctx context.Context, doc *model.Document, units []Unit) (int, error) {
	chunks := i.tagChunks(doc, units)
	if len(chunks) == 0 {
		logger.Infow("Document has no indexable content", "document_id", doc.ID)
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for idx, chunk := range chunks {
		texts[idx] = chunk.Content
	}

	embeddings, err := i.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if err := i.vectors.Insert(ctx, chunks, embeddings); err != nil {
		return 0, fmt.Errorf("failed to write vector index: %w", err)
	}

	logger.Infow("Document indexed",
		"document_id", doc.ID,
		"project_id", doc.ProjectID,
		"chunks", len(chunks),
	)
	return len(chunks), nil
}

// Delete 删除文档的全部向量。
func (i *Indexer) Delete(ctx context.Context, documentID string) error {
	return i.vectors.DeleteByDocument(ctx, documentID)
}
