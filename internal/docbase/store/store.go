// Package store 提供 docbase 的存储层：关系型持久化与向量索引。
package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/docbase/internal/model"
)

// Chunk 是一段带元数据的文本切片，向量索引中的一行。
type Chunk struct {
	// ChunkID 形如 "{documentID}:{index}"，作为向量索引的主键。
	ChunkID string
	// DocumentID 所属文档。
	DocumentID string
	// DocumentName 文档名称，冗余存储以便检索结果直接可用。
	DocumentName string
	// ProjectID 所属项目。
	ProjectID string
	// Index 是该 chunk 在文档内的序号，从 1 开始连续递增。
	Index int
	// Page 是来源页码（1 起），非分页文档为 0。
	Page int
	// Content 切片文本。
	Content string
}

// SearchResult 是一次向量检索命中的 chunk 及其距离分数。
type SearchResult struct {
	Chunk Chunk
	// Score 为 L2 距离，越小越相似。
	Score float32
}

// VectorStore 定义向量索引的操作。
type VectorStore interface {
	// EnsureCollection 确保集合存在并已加载。
	EnsureCollection(ctx context.Context) error

	// Insert 写入 chunks 及其向量。embeddings 与 chunks 按下标对齐。
	Insert(ctx context.Context, chunks []Chunk, embeddings [][]float32) error

	// Search 在 filter 限定范围内检索与 vector 最相似的 topK 个 chunk。
	Search(ctx context.Context, vector []float32, topK int, filter Filter) ([]SearchResult, error)

	// DeleteByDocument 删除某文档的全部 chunk。
	// 后端不支持删除时返回 nil 并记录告警，不阻塞文档删除。
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count 返回集合中的实体数量。
	Count(ctx context.Context) (int64, error)
}

// ProjectStore 定义项目的存储操作。
type ProjectStore interface {
	Create(ctx context.Context, project *model.Project) error
	Get(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context) ([]*model.Project, error)
	Delete(ctx context.Context, id string) error
}

// DocumentStore 定义文档的存储操作。
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, id string) (*model.Document, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.Document, error)
	UpdateStatus(ctx context.Context, id, status, errMsg string) error
	// FinishIndexing 将文档标记为成功并记录 chunk 数量。
	FinishIndexing(ctx context.Context, id string, chunkCount int) error
	Delete(ctx context.Context, id string) error
	CountByProject(ctx context.Context, projectID string) (int64, error)
}

// ChatStore 定义会话的存储操作。
type ChatStore interface {
	Create(ctx context.Context, chat *model.Chat) error
	Get(ctx context.Context, id string) (*model.Chat, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.Chat, error)
	UpdateName(ctx context.Context, id, name string) error
	// Touch 更新会话的 UpdatedAt，用于按活跃度排序。
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	// GetDocumentIDs 返回会话绑定的文档 ID；空切片表示不限定。
	GetDocumentIDs(ctx context.Context, chatID string) ([]string, error)
	// AddDocuments 将文档绑定到会话检索范围。
	AddDocuments(ctx context.Context, chatID string, documentIDs []string) error
}

// MessageStore 定义消息的存储操作。
type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	Get(ctx context.Context, id string) (*model.Message, error)
	// ListByChat 按创建时间升序返回会话的全部消息。
	ListByChat(ctx context.Context, chatID string) ([]*model.Message, error)
	CountByChat(ctx context.Context, chatID string) (int64, error)
}

// Factory 是关系型存储的工厂接口。
type Factory interface {
	Projects() ProjectStore
	Documents() DocumentStore
	Chats() ChatStore
	Messages() MessageStore
	// Transaction 在单个数据库事务内执行 fn。
	Transaction(ctx context.Context, fn func(txFactory Factory) error) error
	// DB 返回底层数据库连接，仅用于迁移。
	DB() *gorm.DB
	Close() error
}
