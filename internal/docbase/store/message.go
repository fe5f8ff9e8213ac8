package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kart-io/docbase/internal/model"
)

func onConflictDoNothing() clause.OnConflict {
	return clause.OnConflict{DoNothing: true}
}

type messages struct {
	db *gorm.DB
}

var _ MessageStore = (*messages)(nil)

func newMessages(db *gorm.DB) *messages {
	return &messages{db: db}
}

func (m *messages) Create(ctx context.Context, msg *model.Message) error {
	return m.db.WithContext(ctx).Create(msg).Error
}

func (m *messages) Get(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message
	if err := m.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByChat 按创建时间升序返回会话消息。
// ULID 主键按生成时间有序，作为同一时刻消息的次级排序键。
func (m *messages) ListByChat(ctx context.Context, chatID string) ([]*model.Message, error) {
	var list []*model.Message
	if err := m.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (m *messages) CountByChat(ctx context.Context, chatID string) (int64, error) {
	var count int64
	if err := m.db.WithContext(ctx).Model(&model.Message{}).
		Where("chat_id = ?", chatID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
