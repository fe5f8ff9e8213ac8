package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/kart-io/docbase/internal/docbase/store"
	"github.com/kart-io/docbase/internal/model"
	"github.com/kart-io/docbase/pkg/id"
)

// ChatService 会话管理与问答编排。
type ChatService struct {
	factory     store.Factory
	retriever   *Retriever
	synthesizer *Synthesizer

	// 同一会话内的提问串行执行，保证历史与标题的一致性。
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewChatService 创建会话服务。
func NewChatService(factory store.Factory, retriever *Retriever, synthesizer *Synthesizer) *ChatService {
	return &ChatService{
		factory:     factory,
		retriever:   retriever,
		synthesizer: synthesizer,
		locks:       make(map[string]*sync.Mutex),
	}
}

// Create 创建会话，可选绑定检索范围到指定文档。
func (s *ChatService) Create(ctx context.Context, projectID, name string, documentIDs []string) (*model.Chat, error) {
	if _, err := s.factory.Projects().Get(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if name == "" {
		name = model.DefaultChatName
	}

	chat := &model.Chat{
		ID:        id.New(),
		ProjectID: projectID,
		Name:      name,
	}

	err := s.factory.Transaction(ctx, func(tx store.Factory) error {
		if err := tx.Chats().Create(ctx, chat); err != nil {
			return err
		}
		return tx.Chats().AddDocuments(ctx, chat.ID, documentIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// Get 按 ID 查询会话。
func (s *ChatService) Get(ctx context.Context, chatID string) (*model.Chat, error) {
	chat, err := s.factory.Chats().Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

// Rename 重命名会话并返回更新后的记录。
func (s *ChatService) Rename(ctx context.Context, chatID, name string) (*model.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyChatName
	}

	if _, err := s.Get(ctx, chatID); err != nil {
		return nil, err
	}
	if err := s.factory.Chats().UpdateName(ctx, chatID, name); err != nil {
		return nil, fmt.Errorf("failed to rename chat: %w", err)
	}
	return s.Get(ctx, chatID)
}

// AddDocuments 将文档追加进会话的检索范围。
// 文档必须存在且属于会话所在的项目；已绑定的文档会被忽略。
func (s *ChatService) AddDocuments(ctx context.Context, chatID string, documentIDs []string) error {
	chat, err := s.Get(ctx, chatID)
	if err != nil {
		return err
	}

	for _, docID := range documentIDs {
		doc, err := s.factory.Documents().Get(ctx, docID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
			}
			return fmt.Errorf("failed to get document: %w", err)
		}
		if doc.ProjectID != chat.ProjectID {
			return fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
		}
	}

	if err := s.factory.Chats().AddDocuments(ctx, chatID, documentIDs); err != nil {
		return fmt.Errorf("failed to bind documents: %w", err)
	}
	return nil
}

// ListByProject 按活跃度列出项目下的会话。
func (s *ChatService) ListByProject(ctx context.Context, projectID string) ([]*model.Chat, error) {
	return s.factory.Chats().ListByProject(ctx, projectID)
}

// Delete 删除会话及其消息与文档绑定。
func (s *ChatService) Delete(ctx context.Context, chatID string) error {
	if _, err := s.Get(ctx, chatID); err != nil {
		return err
	}
	return s.factory.Chats().Delete(ctx, chatID)
}

// Turn 是一轮问答的结果。
type Turn struct {
	Human     *model.Message
	AI        *model.Message
	Citations []model.Citation
}

// AskQuestion 执行一轮问答：
//  1. 持久化用户消息（此后即使后续失败也保留）；
//  2. 在会话范围内检索相关 chunk；
//  3. 携带历史（不含本条提问）合成带引用的回答；
//  4. 事务内写入 AI 消息并刷新会话时间；
//  5. 首轮问答后异步式地生成标题，失败不影响结果。
//
// 语言模型失败时返回错误，此时用户消息已持久化、无 AI 消息。
func (s *ChatService) AskQuestion(ctx context.Context, chatID, question string) (*Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	chat, err := s.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	// 历史在持久化本条提问前读取，因此不包含触发本轮的消息。
	history, err := s.factory.Messages().ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	isFirstTurn := len(history) == 0

	human := &model.Message{
		ID:      id.New(),
		ChatID:  chatID,
		Sender:  model.SenderHuman,
		Content: question,
	}
	if err := s.factory.Messages().Create(ctx, human); err != nil {
		return nil, fmt.Errorf("failed to persist question: %w", err)
	}

	scope, err := s.factory.Chats().GetDocumentIDs(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat scope: %w", err)
	}

	results, err := s.retriever.Retrieve(ctx, question, chat.ProjectID, scope)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	answer, err := s.synthesizer.Synthesize(ctx, question, history, results)
	if err != nil {
		return nil, err
	}

	ai := &model.Message{
		ID:      id.New(),
		ChatID:  chatID,
		Sender:  model.SenderAI,
		Content: answer.Content,
	}
	if err := ai.SetCitations(answer.Citations); err != nil {
		return nil, fmt.Errorf("failed to serialize citations: %w", err)
	}

	err = s.factory.Transaction(ctx, func(tx store.Factory) error {
		if err := tx.Messages().Create(ctx, ai); err != nil {
			return err
		}
		return tx.Chats().Touch(ctx, chatID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist answer: %w", err)
	}

	if isFirstTurn && chat.Name == model.DefaultChatName {
		s.generateTitle(ctx, chatID, question)
	}

	return &Turn{Human: human, AI: ai, Citations: answer.Citations}, nil
}

// generateTitle 生成并保存会话标题，任何失败只记录告警。
func (s *ChatService) generateTitle(ctx context.Context, chatID, firstMessage string) {
	title := s.synthesizer.GenerateTitle(ctx, firstMessage)
	if title == model.DefaultChatName {
		return
	}
	if err := s.factory.Chats().UpdateName(ctx, chatID, title); err != nil {
		logger.Warnw("Failed to save chat title", "chat_id", chatID, "error", err.Error())
	}
}

// Messages 按时间升序返回会话的全部消息。
func (s *ChatService) Messages(ctx context.Context, chatID string) ([]*model.Message, error) {
	if _, err := s.Get(ctx, chatID); err != nil {
		return nil, err
	}
	return s.factory.Messages().ListByChat(ctx, chatID)
}

// Sources 返回某条 AI 消息的引用来源。
func (s *ChatService) Sources(ctx context.Context, messageID string) ([]model.Citation, error) {
	msg, err := s.factory.Messages().Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	citations, err := msg.Citations()
	if err != nil {
		return nil, fmt.Errorf("failed to parse citations: %w", err)
	}
	return citations, nil
}

// chatLock 返回会话级互斥锁，按需创建。
func (s *ChatService) chatLock(chatID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[chatID] = lock
	}
	return lock
}
