package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/docbase/internal/docbase/store"
	"github.com/kart-io/docbase/internal/model"
	"github.com/kart-io/docbase/pkg/llm"
)

// InsufficientContextAnswer 检索不到任何上下文时的固定回答。
const InsufficientContextAnswer = "I don't have enough information in the knowledge base to answer this question."

// DefaultSystemPrompt 回答合成的默认系统提示词。
const DefaultSystemPrompt = `You are a knowledgeable assistant answering questions about a document collection.
Answer using ONLY the numbered context excerpts below. Cite the excerpts you use
with bracketed numbers like [1] or [2]. Never invent facts, names, numbers or
dates that are not stated in the context. If excerpts contradict each other,
point out the contradiction explicitly instead of silently picking one side.
If the context does not contain the answer, say so instead of guessing.

Context:
%s`

const titlePrompt = `Generate a concise title (5 words or fewer) for a conversation that starts with the following message. Reply with the title only, no quotes.

Message: %s`

// SynthesizerConfig 回答合成配置。
type SynthesizerConfig struct {
	// SystemPrompt 系统提示词模板，必须包含一个 %s 占位上下文。
	SystemPrompt string
	// HistoryWindow 携带的历史轮数上限。
	HistoryWindow int
}

// Synthesizer 基于检索结果与会话历史合成带引用的回答。
type Synthesizer struct {
	chat   llm.ChatProvider
	config *SynthesizerConfig
}

// NewSynthesizer 创建回答合成器。
func NewSynthesizer(chat llm.ChatProvider, config *SynthesizerConfig) *Synthesizer {
	if config == nil {
		config = &SynthesizerConfig{}
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}
	if config.HistoryWindow <= 0 {
		config.HistoryWindow = 10
	}
	return &Synthesizer{chat: chat, config: config}
}

// Answer 是一次合成的结果。
type Answer struct {
	Content   string
	Citations []model.Citation
}

// Synthesize 合成回答。
// results 为空时返回固定回答且不调用语言模型；
// 引用编号按文档首次出现的顺序分配，同一文档复用同一编号。
func (s *Synthesizer) Synthesize(ctx context.Context, question string, history []*model.Message, results []store.SearchResult) (*Answer, error) {
	if len(results) == 0 {
		return &Answer{Content: InsufficientContextAnswer, Citations: []model.Citation{}}, nil
	}

	contextBlock, citations := buildCitations(results)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: fmt.Sprintf(s.config.SystemPrompt, contextBlock),
	})
	messages = append(messages, s.historyWindow(history)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	content, err := s.chat.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("language model request failed: %w", err)
	}

	return &Answer{Content: content, Citations: citations}, nil
}

// buildCitations 为检索结果分配引用编号并拼装上下文块。
// 编号按文档首次出现顺序从 1 递增，以 document_id 为键（缺失时退化为文档名）。
// 上下文块中同一文档的每个 chunk 都复用该编号；引用列表按文档去重，
// 以首次命中的 chunk 作为来源摘录。
func buildCitations(results []store.SearchResult) (string, []model.Citation) {
	numbers := make(map[string]int)
	entries := make([]string, 0, len(results))
	citations := make([]model.Citation, 0, len(results))

	for _, result := range results {
		chunk := result.Chunk
		key := chunk.DocumentID
		if key == "" {
			key = chunk.DocumentName
		}

		number, seen := numbers[key]
		if !seen {
			number = len(numbers) + 1
			numbers[key] = number
			citations = append(citations, model.Citation{
				Number:       number,
				DocumentID:   chunk.DocumentID,
				DocumentName: chunk.DocumentName,
				ChunkID:      chunk.ChunkID,
				Page:         chunk.Page,
				Content:      chunk.Content,
			})
		}

		entries = append(entries, fmt.Sprintf("[%d] %s\n%s", number, chunk.DocumentName, chunk.Content))
	}

	return strings.Join(entries, "\n\n---\n\n"), citations
}

// historyWindow 截取最近的历史轮次并转换为模型消息。
func (s *Synthesizer) historyWindow(history []*model.Message) []llm.Message {
	if len(history) > s.config.HistoryWindow {
		history = history[len(history)-s.config.HistoryWindow:]
	}

	messages := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		role := llm.RoleUser
		if msg.Sender == model.SenderAI {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}
	return messages
}

// GenerateTitle 用会话首条消息生成简短标题。
// 模型调用失败或结果为空时回退到默认标题。
func (s *Synthesizer) GenerateTitle(ctx context.Context, firstMessage string) string {
	input := []rune(firstMessage)
	if len(input) > 200 {
		input = input[:200]
	}

	title, err := s.chat.Generate(ctx, fmt.Sprintf(titlePrompt, string(input)), "")
	if err != nil {
		return model.DefaultChatName
	}

	title = strings.TrimSpace(title)
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)
	if title == "" {
		return model.DefaultChatName
	}

	if runes := []rune(title); len(runes) > 50 {
		title = string(runes[:47]) + "..."
	}
	return title
}
