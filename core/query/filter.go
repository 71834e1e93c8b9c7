package query

import (
	"strings"

	"cdstash/model"
)

// ParseFilter 支持的过滤类型
const (
	KindAll     = "all"
	KindOrigin  = "origin"
	KindGenre   = "genre"
	KindFormat  = "format"
	KindRelease = "release"
)

// Filter 解析后的 kind:value 过滤条件
type Filter struct {
	Kind  string
	Value string
}

// ParseFilter 按第一个冒号切分。"all"、空串、未知类型或空值都得到不过滤的 Filter
func ParseFilter(s string) Filter {
	s = strings.TrimSpace(s)
	kind, value, found := strings.Cut(s, ":")
	if !found {
		return Filter{Kind: KindAll}
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	value = strings.TrimSpace(value)
	switch kind {
	case KindOrigin, KindGenre, KindFormat, KindRelease:
		if value == "" {
			return Filter{Kind: KindAll}
		}
		return Filter{Kind: kind, Value: value}
	default:
		return Filter{Kind: KindAll}
	}
}

// Active 是否会过滤掉专辑
func (f Filter) Active() bool {
	return f.Kind != KindAll && f.Kind != "" && f.Value != ""
}

func (f Filter) String() string {
	if !f.Active() {
		return KindAll
	}
	return f.Kind + ":" + f.Value
}

// Match 不会失败；缺少目标字段的专辑不匹配生效中的过滤条件
func (f Filter) Match(a *model.Album) bool {
	if !f.Active() {
		return true
	}
	var target string
	switch f.Kind {
	case KindOrigin:
		target = a.CountryOfOrigin
	case KindGenre:
		target = a.Genre.Join(" ")
	case KindFormat:
		target = a.Format
	case KindRelease:
		target = a.ReleaseType
	}
	if strings.TrimSpace(target) == "" {
		return false
	}
	switch f.Kind {
	case KindFormat, KindRelease:
		return strings.EqualFold(strings.TrimSpace(target), f.Value)
	default:
		return containsFold(target, f.Value)
	}
}
