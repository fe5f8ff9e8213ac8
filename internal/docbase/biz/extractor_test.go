package biz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docbase/internal/docbase/biz"
	"github.com/kart-io/docbase/internal/model"
)

func TestExtractPlainText(t *testing.T) {
	tests := []struct {
		name     string
		fileType string
		data     string
	}{
		{"纯文本文件", model.FileTypeText, "hello world\nsecond line"},
		{"markdown 文件", model.FileTypeMarkdown, "# Title\n\nsome content"},
	}

	extractor := biz.NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := extractor.Extract([]byte(tt.data), tt.fileType)
			require.NoError(t, err)
			require.Len(t, units, 1)
			assert.Equal(t, tt.data, units[0].Text)
			assert.Equal(t, 0, units[0].Page)
		})
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	extractor := biz.NewExtractor()

	for _, fileType := range []string{"docx", "html", "", "exe"} {
		_, err := extractor.Extract([]byte("data"), fileType)
		assert.ErrorIs(t, err, biz.ErrUnsupportedFileType, "file type %q", fileType)
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	extractor := biz.NewExtractor()

	_, err := extractor.Extract([]byte("not a pdf at all"), model.FileTypePDF)
	assert.ErrorIs(t, err, biz.ErrExtractionFailed)
}
