package biz

// 切分边界的分隔符，按优先级排列。都找不到时在窗口末尾硬切。
var chunkSeparators = []string{"\n\n", "\n", " "}

// Chunker 将长文本切分为带固定重叠的连续片段。
//
// 切分规则：
//   - 每个片段是原文的连续切片，长度不超过 size（按 rune 计）。
//   - 片段边界优先落在段落、换行、空格处，否则硬切。
//   - 相邻片段重叠恰好 overlap 个 rune，因此去掉每个后续片段的
//     前 overlap 个 rune 再拼接，可以精确还原原文。
type Chunker struct {
	size    int
	overlap int
}

// NewChunker 创建切分器。非法参数会被归一化为可用值。
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Overlap 返回相邻片段的重叠长度。
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split 切分文本。空文本返回 nil；不超过 size 的文本返回单个片段。
// 结果只取决于输入，不依赖任何外部状态。
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + c.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		cut := c.findCut(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		start = cut - c.overlap
	}
}

// findCut 在 (start+overlap, end] 内从后向前找最优切点。
// 切点下界保证 next start = cut - overlap 严格前进。
func (c *Chunker) findCut(runes []rune, start, end int) int {
	min := start + c.overlap + 1
	if min > end {
		return end
	}

	for _, sep := range chunkSeparators {
		sepLen := len([]rune(sep))
		for cut := end; cut >= min; cut-- {
			if cut-sepLen < start {
				break
			}
			if string(runes[cut-sepLen:cut]) == sep {
				return cut
			}
		}
	}
	return end
}
