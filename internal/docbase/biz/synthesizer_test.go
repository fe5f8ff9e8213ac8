package biz_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docbase/internal/docbase/biz"
	"github.com/kart-io/docbase/internal/docbase/store"
	"github.com/kart-io/docbase/internal/model"
	"github.com/kart-io/docbase/pkg/llm"
)

func resultFor(docID, docName, chunkID, content string) store.SearchResult {
	return store.SearchResult{
		Chunk: store.Chunk{
			ChunkID:      chunkID,
			DocumentID:   docID,
			DocumentName: docName,
			ProjectID:    "p1",
			Content:      content,
		},
	}
}

func TestSynthesizeWithoutContext(t *testing.T) {
	chat := &fakeChat{reply: "should not be used"}
	synthesizer := biz.NewSynthesizer(chat, nil)

	answer, err := synthesizer.Synthesize(context.Background(), "question", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, biz.InsufficientContextAnswer, answer.Content)
	assert.Empty(t, answer.Citations)
	// 无上下文时不应调用语言模型。
	assert.Equal(t, 0, chat.chatCalls)
}

func TestSynthesizeCitationNumbering(t *testing.T) {
	chat := &fakeChat{reply: "answer [1][2][3]"}
	synthesizer := biz.NewSynthesizer(chat, nil)

	// 文档出现顺序 A, B, A, C：编号应为 1, 2, 1, 3。
	results := []store.SearchResult{
		resultFor("doc-a", "A.pdf", "doc-a:1", "alpha"),
		resultFor("doc-b", "B.pdf", "doc-b:1", "bravo"),
		resultFor("doc-a", "A.pdf", "doc-a:2", "alpha two"),
		resultFor("doc-c", "C.pdf", "doc-c:1", "charlie"),
	}

	answer, err := synthesizer.Synthesize(context.Background(), "q", nil, results)
	require.NoError(t, err)

	// 引用列表按文档去重，首个命中的 chunk 作为摘录。
	require.Len(t, answer.Citations, 3)
	assert.Equal(t, []model.Citation{
		{Number: 1, DocumentID: "doc-a", DocumentName: "A.pdf", ChunkID: "doc-a:1", Content: "alpha"},
		{Number: 2, DocumentID: "doc-b", DocumentName: "B.pdf", ChunkID: "doc-b:1", Content: "bravo"},
		{Number: 3, DocumentID: "doc-c", DocumentName: "C.pdf", ChunkID: "doc-c:1", Content: "charlie"},
	}, answer.Citations)

	// 上下文块中同一文档复用编号。
	system := chat.lastMessages[0]
	assert.Equal(t, llm.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "[1] A.pdf\nalpha")
	assert.Contains(t, system.Content, "[2] B.pdf\nbravo")
	assert.Contains(t, system.Content, "[1] A.pdf\nalpha two")
	assert.Contains(t, system.Content, "[3] C.pdf\ncharlie")
	assert.Contains(t, system.Content, "\n\n---\n\n")
}

func TestSynthesizeSystemPromptGroundingRules(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	synthesizer := biz.NewSynthesizer(chat, nil)

	results := []store.SearchResult{resultFor("d", "D.md", "d:1", "ctx")}
	_, err := synthesizer.Synthesize(context.Background(), "q", nil, results)
	require.NoError(t, err)

	system := chat.lastMessages[0].Content
	assert.Contains(t, system, "ONLY the numbered context excerpts")
	assert.Contains(t, system, "Never invent facts")
	assert.Contains(t, system, "dates that are not stated in the context")
	assert.Contains(t, system, "point out the contradiction explicitly")
	assert.Contains(t, system, "say so instead of guessing")
}

func TestSynthesizeMessageLayout(t *testing.T) {
	chat := &fakeChat{reply: "fine"}
	synthesizer := biz.NewSynthesizer(chat, &biz.SynthesizerConfig{HistoryWindow: 10})

	history := []*model.Message{
		{Sender: model.SenderHuman, Content: "earlier question"},
		{Sender: model.SenderAI, Content: "earlier answer"},
	}
	results := []store.SearchResult{resultFor("d", "D.md", "d:1", "context text")}

	_, err := synthesizer.Synthesize(context.Background(), "current question", history, results)
	require.NoError(t, err)

	msgs := chat.lastMessages
	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, llm.RoleUser, msgs[1].Role)
	assert.Equal(t, "earlier question", msgs[1].Content)
	assert.Equal(t, llm.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "earlier answer", msgs[2].Content)
	assert.Equal(t, llm.RoleUser, msgs[3].Role)
	assert.Equal(t, "current question", msgs[3].Content)
}

func TestSynthesizeHistoryWindow(t *testing.T) {
	chat := &fakeChat{reply: "ok"}
	synthesizer := biz.NewSynthesizer(chat, &biz.SynthesizerConfig{HistoryWindow: 10})

	var history []*model.Message
	for i := 0; i < 25; i++ {
		history = append(history, &model.Message{
			Sender:  model.SenderHuman,
			Content: fmt.Sprintf("turn %d", i),
		})
	}
	results := []store.SearchResult{resultFor("d", "D.md", "d:1", "ctx")}

	_, err := synthesizer.Synthesize(context.Background(), "q", history, results)
	require.NoError(t, err)

	// system + 最近 10 条历史 + 当前问题。
	require.Len(t, chat.lastMessages, 12)
	assert.Equal(t, "turn 15", chat.lastMessages[1].Content)
	assert.Equal(t, "turn 24", chat.lastMessages[10].Content)
}

func TestSynthesizePropagatesModelError(t *testing.T) {
	chat := &fakeChat{chatErr: errors.New("model down")}
	synthesizer := biz.NewSynthesizer(chat, nil)

	results := []store.SearchResult{resultFor("d", "D.md", "d:1", "ctx")}
	_, err := synthesizer.Synthesize(context.Background(), "q", nil, results)
	assert.Error(t, err)
}

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		replyErr error
		want     string
	}{
		{"正常标题", "Project Overview", nil, "Project Overview"},
		{"去掉引号与空白", `  "Quarterly Report"  `, nil, "Quarterly Report"},
		{"空结果回退默认", "   ", nil, model.DefaultChatName},
		{"模型失败回退默认", "", errors.New("down"), model.DefaultChatName},
		{"超长截断", strings.Repeat("a", 60), nil, strings.Repeat("a", 47) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{title: tt.reply, titleErr: tt.replyErr}
			synthesizer := biz.NewSynthesizer(chat, nil)
			got := synthesizer.GenerateTitle(context.Background(), "first message")
			assert.Equal(t, tt.want, got)
		})
	}
}
