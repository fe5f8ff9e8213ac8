package biz

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kart-io/docbase/internal/model"
)

// Unit 是抽取出的一段带页码的纯文本。
// PDF 每页一个 Unit；txt 与 md 整个文件一个 Unit，Page 为 0。
type Unit struct {
	Text string
	Page int
}

// Extractor 将上传的原始文件抽取为纯文本单元。
type Extractor struct{}

// NewExtractor 创建抽取器实例。
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract 按文件类型抽取文本。
// 不支持的类型返回 ErrUnsupportedFileType，解析失败返回 ErrExtractionFailed。
func (e *Extractor) Extract(data []byte, fileType string) ([]Unit, error) {
	switch fileType {
	case model.FileTypePDF:
		return e.extractPDF(data)
	case model.FileTypeText, model.FileTypeMarkdown:
		return []Unit{{Text: string(data), Page: 0}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, fileType)
	}
}

// extractPDF 逐页抽取 PDF 文本，跳过空页。
func (e *Extractor) extractPDF(data []byte) ([]Unit, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var units []Unit
	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrExtractionFailed, pageNum, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		units = append(units, Unit{Text: text, Page: pageNum})
	}

	return units, nil
}
