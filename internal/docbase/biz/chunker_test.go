package biz_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docbase/internal/docbase/biz"
)

// reconstruct 去掉每个后续片段的重叠前缀后拼接。
func reconstruct(chunks []string, overlap int) string {
	var sb strings.Builder
	for i, chunk := range chunks {
		runes := []rune(chunk)
		if i > 0 {
			runes = runes[overlap:]
		}
		sb.WriteString(string(runes))
	}
	return sb.String()
}

func TestChunkerSplit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
		want    int // 期望片段数，-1 表示不校验
	}{
		{"空文本", 1000, 200, "", 0},
		{"不超过窗口的文本返回单片段", 1000, 200, "short text", 1},
		{"恰好等于窗口", 10, 2, "0123456789", 1},
		{"超过窗口被切分", 10, 2, "01234 6789 1234 6789", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunker := biz.NewChunker(tt.size, tt.overlap)
			chunks := chunker.Split(tt.text)
			if tt.want >= 0 {
				assert.Len(t, chunks, tt.want)
			} else {
				assert.Greater(t, len(chunks), 1)
			}
			for _, chunk := range chunks {
				assert.LessOrEqual(t, len([]rune(chunk)), tt.size)
			}
		})
	}
}

func TestChunkerRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
	}{
		{"段落文本", 50, 10, strings.Repeat("first paragraph here.\n\nsecond paragraph follows.\n\n", 10)},
		{"无分隔符长文本", 40, 8, strings.Repeat("x", 500)},
		{"混合空格与换行", 30, 5, strings.Repeat("alpha beta gamma\ndelta epsilon ", 20)},
		{"多字节字符", 20, 4, strings.Repeat("知识库服务 文档检索 ", 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunker := biz.NewChunker(tt.size, tt.overlap)
			chunks := chunker.Split(tt.text)
			require.NotEmpty(t, chunks)
			assert.Equal(t, tt.text, reconstruct(chunks, chunker.Overlap()))
		})
	}
}

func TestChunkerDeterministic(t *testing.T) {
	text := strings.Repeat("some deterministic input with spaces\nand newlines\n\n", 40)
	chunker := biz.NewChunker(100, 20)

	first := chunker.Split(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, chunker.Split(text))
	}
}

func TestChunkerPrefersParagraphBoundary(t *testing.T) {
	// 窗口内同时有段落、换行和空格，应优先在段落边界切分。
	text := "aaaa bbbb\ncccc\n\ndddd eeee ffff gggg hhhh iiii jjjj kkkk llll"
	chunker := biz.NewChunker(20, 4)

	chunks := chunker.Split(text)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"), "first chunk should end at the paragraph break, got %q", chunks[0])
}

func TestChunkerHardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("a", 100)
	chunker := biz.NewChunker(30, 6)

	chunks := chunker.Split(text)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks[:len(chunks)-1] {
		assert.Len(t, chunk, 30)
	}
	assert.Equal(t, text, reconstruct(chunks, chunker.Overlap()))
}
