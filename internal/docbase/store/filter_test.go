package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/docbase/internal/docbase/store"
)

func TestFilterExpr(t *testing.T) {
	tests := []struct {
		name   string
		filter store.Filter
		want   string
	}{
		{
			name:   "空过滤器",
			filter: store.Filter{},
			want:   "",
		},
		{
			name:   "单个等值条件",
			filter: store.Filter{store.Eq{Field: "project_id", Value: "p1"}},
			want:   `project_id == "p1"`,
		},
		{
			name: "等值与集合的合取",
			filter: store.Filter{
				store.Eq{Field: "project_id", Value: "p1"},
				store.In{Field: "document_id", Values: []string{"d1", "d2"}},
			},
			want: `project_id == "p1" and document_id in ["d1", "d2"]`,
		},
		{
			name:   "空集合",
			filter: store.Filter{store.In{Field: "document_id", Values: nil}},
			want:   `document_id in []`,
		},
		{
			name:   "值中的引号被转义",
			filter: store.Filter{store.Eq{Field: "document_name", Value: `a"b`}},
			want:   `document_name == "a\"b"`,
		},
		{
			name:   "值中的反斜杠被转义",
			filter: store.Filter{store.Eq{Field: "document_name", Value: `a\b`}},
			want:   `document_name == "a\\b"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Expr())
		})
	}
}
