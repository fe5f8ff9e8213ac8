package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/docbase/internal/model"
)

type chats struct {
	db *gorm.DB
}

var _ ChatStore = (*chats)(nil)

func newChats(db *gorm.DB) *chats {
	return &chats{db: db}
}

func (c *chats) Create(ctx context.Context, chat *model.Chat) error {
	return c.db.WithContext(ctx).Create(chat).Error
}

func (c *chats) Get(ctx context.Context, id string) (*model.Chat, error) {
	var chat model.Chat
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *chats) ListByProject(ctx context.Context, projectID string) ([]*model.Chat, error) {
	var list []*model.Chat
	if err := c.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("updated_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (c *chats) UpdateName(ctx context.Context, id, name string) error {
	return c.db.WithContext(ctx).Model(&model.Chat{}).
		Where("id = ?", id).
		Update("name", name).Error
}

// Touch 更新会话的 UpdatedAt。
func (c *chats) Touch(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Model(&model.Chat{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

func (c *chats) Delete(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&model.ChatDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Chat{}).Error
	})
}

// GetDocumentIDs 返回会话绑定的文档 ID；空切片表示检索整个项目。
func (c *chats) GetDocumentIDs(ctx context.Context, chatID string) ([]string, error) {
	var ids []string
	if err := c.db.WithContext(ctx).Model(&model.ChatDocument{}).
		Where("chat_id = ?", chatID).
		Order("document_id").
		Pluck("document_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// AddDocuments 将文档绑定到会话检索范围，重复绑定忽略。
func (c *chats) AddDocuments(ctx context.Context, chatID string, documentIDs []string) error {
	if len(documentIDs) == 0 {
		return nil
	}
	rows := make([]model.ChatDocument, 0, len(documentIDs))
	for _, docID := range documentIDs {
		rows = append(rows, model.ChatDocument{ChatID: chatID, DocumentID: docID})
	}
	return c.db.WithContext(ctx).
		Clauses(onConflictDoNothing()).
		Create(&rows).Error
}
