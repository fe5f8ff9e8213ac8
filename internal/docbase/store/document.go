package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/docbase/internal/model"
)

type documents struct {
	db *gorm.DB
}

var _ DocumentStore = (*documents)(nil)

func newDocuments(db *gorm.DB) *documents {
	return &documents{db: db}
}

func (d *documents) Create(ctx context.Context, doc *model.Document) error {
	return d.db.WithContext(ctx).Create(doc).Error
}

func (d *documents) Get(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *documents) ListByProject(ctx context.Context, projectID string) ([]*model.Document, error) {
	var list []*model.Document
	if err := d.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateStatus 更新文档状态。errMsg 仅在失败时有值。
func (d *documents) UpdateStatus(ctx context.Context, id, status, errMsg string) error {
	return d.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": status,
			"error":  errMsg,
		}).Error
}

// FinishIndexing 将文档标记为成功并记录 chunk 数量。
func (d *documents) FinishIndexing(ctx context.Context, id string, chunkCount int) error {
	return d.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      model.StatusSuccessful,
			"chunk_count": chunkCount,
			"error":       "",
		}).Error
}

func (d *documents) Delete(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{}).Error
}

func (d *documents) CountByProject(ctx context.Context, projectID string) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&model.Document{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
