package store

import "strings"

// Predicate 是过滤条件的单个原子项。
// 目前只有等值与集合成员两种，检索场景不需要更多。
type Predicate interface {
	expr() string
}

// Eq 要求字段等于给定值。
type Eq struct {
	Field string
	Value string
}

// In 要求字段取值属于给定集合。空集合匹配不到任何行。
type In struct {
	Field  string
	Values []string
}

// Filter 是若干 Predicate 的合取（AND）。空 Filter 匹配所有行。
type Filter []Predicate

func (e Eq) expr() string {
	return e.Field + ` == "` + escape(e.Value) + `"`
}

func (i In) expr() string {
	quoted := make([]string, 0, len(i.Values))
	for _, v := range i.Values {
		quoted = append(quoted, `"`+escape(v)+`"`)
	}
	return i.Field + " in [" + strings.Join(quoted, ", ") + "]"
}

// Expr 将过滤条件编译为 Milvus 布尔表达式。空 Filter 编译为空串。
func (f Filter) Expr() string {
	if len(f) == 0 {
		return ""
	}
	parts := make([]string, 0, len(f))
	for _, p := range f {
		parts = append(parts, p.expr())
	}
	return strings.Join(parts, " and ")
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
