package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/kart-io/docbase/internal/docbase/store"
	"github.com/kart-io/docbase/internal/model"
	"github.com/kart-io/docbase/pkg/component/blob"
	"github.com/kart-io/docbase/pkg/id"
)

// ingestTimeout 单个文档后台摄取的时间上限。
const ingestTimeout = 10 * time.Minute

// JobQueue 后台任务队列。*pool.Pool 实现了该接口。
type JobQueue interface {
	Submit(task func()) error
}

// DocumentService 文档上传、摄取与删除。
type DocumentService struct {
	factory   store.Factory
	blobs     blob.Store
	extractor *Extractor
	indexer   *Indexer
	pool      JobQueue
}

// NewDocumentService 创建文档服务。
func NewDocumentService(factory store.Factory, blobs blob.Store, extractor *Extractor, indexer *Indexer, workers JobQueue) *DocumentService {
	return &DocumentService{
		factory:   factory,
		blobs:     blobs,
		extractor: extractor,
		indexer:   indexer,
		pool:      workers,
	}
}

// Ingest 接收上传并提交后台摄取，立即返回 pending 状态的文档。
// 不支持的文件类型在入队前同步拒绝。
func (s *DocumentService) Ingest(ctx context.Context, projectID, name, fileType string, data []byte) (*model.Document, error) {
	switch fileType {
	case model.FileTypePDF, model.FileTypeText, model.FileTypeMarkdown:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, fileType)
	}

	if _, err := s.factory.Projects().Get(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	doc := &model.Document{
		ID:        id.New(),
		ProjectID: projectID,
		Name:      name,
		FileType:  fileType,
		SizeBytes: int64(len(data)),
		Status:    model.StatusPending,
	}
	if err := s.factory.Documents().Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	// 记录已落库，之后的任何失败都要把状态推进到 failed，
	// 避免文档永远停在 pending。
	key := blob.Key(projectID, doc.ID, fileType)
	if err := s.blobs.Put(ctx, key, data); err != nil {
		s.markFailed(ctx, doc.ID, err)
		return nil, fmt.Errorf("failed to store raw file: %w", err)
	}

	docID := doc.ID
	if err := s.pool.Submit(func() {
		s.process(docID, data)
	}); err != nil {
		s.markFailed(ctx, doc.ID, err)
		return nil, fmt.Errorf("failed to enqueue ingestion: %w", err)
	}

	logger.Infow("Document ingestion enqueued",
		"document_id", doc.ID,
		"project_id", projectID,
		"file_type", fileType,
		"size", doc.SizeBytes,
	)
	return doc, nil
}

// process 在后台执行抽取、切分与索引，并推进文档状态。
// 请求上下文此时已结束，使用独立的超时上下文。
func (s *DocumentService) process(docID string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	doc, err := s.factory.Documents().Get(ctx, docID)
	if err != nil {
		logger.Errorw("Ingestion aborted, document missing", "document_id", docID, "error", err.Error())
		return
	}

	if err := s.factory.Documents().UpdateStatus(ctx, docID, model.StatusProcessing, ""); err != nil {
		logger.Errorw("Failed to mark document processing", "document_id", docID, "error", err.Error())
		return
	}

	units, err := s.extractor.Extract(data, doc.FileType)
	if err != nil {
		s.markFailed(ctx, docID, err)
		return
	}

	chunkCount, err := s.indexer.Index(ctx, doc, units)
	if err != nil {
		s.markFailed(ctx, docID, err)
		return
	}

	if err := s.factory.Documents().FinishIndexing(ctx, docID, chunkCount); err != nil {
		logger.Errorw("Failed to mark document successful", "document_id", docID, "error", err.Error())
	}
}

func (s *DocumentService) markFailed(ctx context.Context, docID string, cause error) {
	logger.Errorw("Document ingestion failed", "document_id", docID, "error", cause.Error())
	if err := s.factory.Documents().UpdateStatus(ctx, docID, model.StatusFailed, cause.Error()); err != nil {
		logger.Errorw("Failed to mark document failed", "document_id", docID, "error", err.Error())
	}
}

// Get 按 ID 查询文档。
func (s *DocumentService) Get(ctx context.Context, documentID string) (*model.Document, error) {
	doc, err := s.factory.Documents().Get(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// Download 返回文档记录及其原始文件内容。
func (s *DocumentService) Download(ctx context.Context, documentID string) (*model.Document, []byte, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.blobs.Get(ctx, blob.Key(doc.ProjectID, doc.ID, doc.FileType))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read raw file: %w", err)
	}
	return doc, data, nil
}

// ListByProject 列出项目下的全部文档。
func (s *DocumentService) ListByProject(ctx context.Context, projectID string) ([]*model.Document, error) {
	return s.factory.Documents().ListByProject(ctx, projectID)
}

// Delete 删除文档：先清理向量索引，再清理原始文件，最后删除记录。
// 向量删除失败会中止删除；原始文件清理失败只记录告警。
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.indexer.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}

	key := blob.Key(doc.ProjectID, doc.ID, doc.FileType)
	if err := s.blobs.Delete(ctx, key); err != nil {
		logger.Warnw("Failed to delete raw file", "document_id", documentID, "key", key, "error", err.Error())
	}

	return s.factory.Documents().Delete(ctx, documentID)
}
