package query

import (
	"cmp"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Equals 字段值与过滤值完全相等
func Equals[T any](field func(T) string) Filter[T] {
	return func(item T, want string) bool {
		return field(item) == want
	}
}

// EqualsFold 忽略大小写相等
func EqualsFold[T any](field func(T) string) Filter[T] {
	return func(item T, want string) bool {
		return strings.EqualFold(field(item), want)
	}
}

// Contains 集合字段包含过滤值（如 projectsInterested）
func Contains[T any](field func(T) []string) Filter[T] {
	return func(item T, want string) bool {
		for _, v := range field(item) {
			if v == want {
				return true
			}
		}
		return false
	}
}

// AtLeast 数值字段 >= 过滤值；过滤值不是数字时忽略
func AtLeast[T any](field func(T) float64) Filter[T] {
	return func(item T, want string) bool {
		n, err := strconv.ParseFloat(want, 64)
		if err != nil {
			return true
		}
		return field(item) >= n
	}
}

// AtMost 数值字段 <= 过滤值；过滤值不是数字时忽略
func AtMost[T any](field func(T) float64) Filter[T] {
	return func(item T, want string) bool {
		n, err := strconv.ParseFloat(want, 64)
		if err != nil {
			return true
		}
		return field(item) <= n
	}
}

// On 时间字段落在过滤值（YYYY-MM-DD）当天
func On[T any](field func(T) *time.Time) Filter[T] {
	return func(item T, want string) bool {
		day, err := time.Parse(time.DateOnly, want)
		if err != nil {
			return true
		}
		ts := field(item)
		if ts == nil {
			return false
		}
		return ts.Format(time.DateOnly) == day.Format(time.DateOnly)
	}
}

// ByString 按字符串自然顺序
func ByString[T any](field func(T) string) Compare[T] {
	return func(a, b T) int {
		return strings.Compare(field(a), field(b))
	}
}

// ByNumber 按数值大小
func ByNumber[T any, N cmp.Ordered](field func(T) N) Compare[T] {
	return func(a, b T) int {
		return cmp.Compare(field(a), field(b))
	}
}

// ByTime 按时间点比较，不比较字符串；nil 排在最前
func ByTime[T any](field func(T) *time.Time) Compare[T] {
	return func(a, b T) int {
		ta, tb := field(a), field(b)
		switch {
		case ta == nil && tb == nil:
			return 0
		case ta == nil:
			return -1
		case tb == nil:
			return 1
		}
		return ta.Compare(*tb)
	}
}

var reservedKeys = map[string]bool{
	"page":      true,
	"limit":     true,
	"sortBy":    true,
	"sortOrder": true,
	"search":    true,
	"token":     true,
}

// ParseParams 从 URL 参数构造查询参数，其余键全部作为过滤条件
func ParseParams(values url.Values) Params {
	p := Params{
		Filters:   make(map[string]string),
		Search:    values.Get("search"),
		SortBy:    values.Get("sortBy"),
		SortOrder: strings.ToLower(values.Get("sortOrder")),
	}
	if v, err := strconv.Atoi(values.Get("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(values.Get("limit")); err == nil {
		p.Limit = v
	}
	for key := range values {
		if reservedKeys[key] {
			continue
		}
		p.Filters[key] = values.Get(key)
	}
	return p.Normalize()
}
