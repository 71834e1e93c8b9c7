// Package query 在专辑集合上派生搜索、过滤与排序后的视图
package query

import (
	"sort"
	"strings"

	"cdstash/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// 排序方式
const (
	SortYearAsc   = "year-asc"
	SortYearDesc  = "year-desc"
	SortAlphaAsc  = "alpha-asc"
	SortAlphaDesc = "alpha-desc"
)

// Query 三个互相独立的视图参数
type Query struct {
	Search string
	Filter string
	Sort   string
}

// Engine 按给定排序规则比较标题
type Engine struct {
	locale language.Tag
}

// NewEngine 按 BCP 47 语言标签创建排序规则，无法解析时退回英文
func NewEngine(locale string) *Engine {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	return &Engine{locale: tag}
}

var defaultEngine = NewEngine("en")

// Apply 使用默认的英文排序规则
func Apply(albums []model.Album, q Query) []model.Album {
	return defaultEngine.Apply(albums, q)
}

// Apply 返回同时满足搜索词和过滤条件、按排序方式排列的新切片，不修改输入
func (e *Engine) Apply(albums []model.Album, q Query) []model.Album {
	filter := ParseFilter(q.Filter)
	search := strings.TrimSpace(q.Search)

	out := make([]model.Album, 0, len(albums))
	for i := range albums {
		a := &albums[i]
		if matchSearch(a, search) && filter.Match(a) {
			out = append(out, a.Clone())
		}
	}
	e.sort(out, q.Sort)
	return out
}

func (e *Engine) sort(albums []model.Album, key string) {
	switch key {
	case SortYearAsc:
		sort.SliceStable(albums, func(i, j int) bool { return albums[i].Year < albums[j].Year })
	case SortYearDesc:
		sort.SliceStable(albums, func(i, j int) bool { return albums[i].Year > albums[j].Year })
	case SortAlphaAsc, SortAlphaDesc:
		// collator 内部有缓冲区，不能并发使用
		c := collate.New(e.locale)
		desc := key == SortAlphaDesc
		sort.SliceStable(albums, func(i, j int) bool {
			cmp := c.CompareString(albums[i].Title, albums[j].Title)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
}

// matchSearch 匹配标题、艺术家和流派
func matchSearch(a *model.Album, search string) bool {
	if search == "" {
		return true
	}
	return containsFold(a.Title, search) ||
		containsFold(a.Artist.Join(" "), search) ||
		containsFold(a.Genre.Join(" "), search)
}

func containsFold(s, substr string) bool {
	folder := cases.Fold()
	return strings.Contains(folder.String(s), folder.String(substr))
}
