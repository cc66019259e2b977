// Package query 列表查询：过滤 → 排序 → 分页，各实体共用一套实现，
// 通过 Spec 声明每个实体可过滤、可搜索、可排序的字段。
package query

import (
	"slices"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Filter 判断记录是否满足过滤值 want（want 已排除哨兵值）
type Filter[T any] func(item T, want string) bool

// Compare 返回 <0 / 0 / >0，按升序语义
type Compare[T any] func(a, b T) int

// Spec 实体的查询声明
type Spec[T any] struct {
	Filters map[string]Filter[T]
	Search  []func(T) string
	Sorts   map[string]Compare[T]
}

// Params 一次列表请求的查询参数
type Params struct {
	Filters   map[string]string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Result 分页结果；Total 为分页前的过滤总数
type Result[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// IsSentinel "All"/"all" 与空值表示不过滤
func IsSentinel(v string) bool {
	return v == "" || v == "All" || v == "all"
}

// Normalize 修正非法的分页参数
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.SortOrder != SortAsc {
		p.SortOrder = SortDesc
	}
	return p
}

// Run 过滤、排序并分页。纯函数，不修改入参切片。
func Run[T any](items []T, spec Spec[T], p Params) Result[T] {
	p = p.Normalize()
	selected := Select(items, spec, p)

	total := len(selected)
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}

	page := make([]T, 0, p.Limit)
	// 先比较页号再相乘，超大页号不会溢出
	if p.Page <= totalPages {
		start := (p.Page - 1) * p.Limit
		end := min(start+p.Limit, total)
		page = append(page, selected[start:end]...)
	}

	return Result[T]{
		Items:      page,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: totalPages,
	}
}

// Select 只做过滤和排序，不分页（导出报表用）
func Select[T any](items []T, spec Spec[T], p Params) []T {
	out := make([]T, 0, len(items))
	search := strings.ToLower(strings.TrimSpace(p.Search))
	for _, item := range items {
		if matchFilters(item, spec, p.Filters) && matchSearch(item, spec, search) {
			out = append(out, item)
		}
	}

	cmpFn, ok := spec.Sorts[p.SortBy]
	if !ok {
		return out
	}
	desc := p.SortOrder != SortAsc
	// 稳定排序：相等元素在两个方向上都保持输入顺序
	slices.SortStableFunc(out, func(a, b T) int {
		if desc {
			return cmpFn(b, a)
		}
		return cmpFn(a, b)
	})
	return out
}

func matchFilters[T any](item T, spec Spec[T], filters map[string]string) bool {
	for key, want := range filters {
		if IsSentinel(want) {
			continue
		}
		fn, ok := spec.Filters[key]
		if !ok {
			continue
		}
		if !fn(item, want) {
			return false
		}
	}
	return true
}

func matchSearch[T any](item T, spec Spec[T], search string) bool {
	if search == "" || len(spec.Search) == 0 {
		return true
	}
	for _, field := range spec.Search {
		if strings.Contains(strings.ToLower(field(item)), search) {
			return true
		}
	}
	return false
}
