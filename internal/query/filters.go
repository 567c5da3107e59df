// Package query собирает фильтры в канонические query-строки и ведет
// постраничную выборку задач.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rryowa/taskmarket/internal/models"
)

// No-op defaults: значения, совпадающие с серверным умолчанием,
// в query-строку не попадают, URL остается каноническим.
const (
	DefaultStatus = models.TaskStatusOpen
	DefaultSort   = "newest"
)

type Filters struct {
	Search   string
	Status   string
	Category string
	Location string
	MinPrice float64
	MaxPrice float64
	SortBy   string
	Tags     []string
}

// Values сериализует только отличающиеся от умолчаний фильтры.
// Пустые значения не попадают в результат вовсе.
func (f Filters) Values() url.Values {
	v := url.Values{}

	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Status != "" && f.Status != DefaultStatus {
		v.Set("status", f.Status)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Location != "" {
		v.Set("location", f.Location)
	}
	if f.MinPrice > 0 {
		v.Set("minPrice", formatPrice(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		v.Set("maxPrice", formatPrice(f.MaxPrice))
	}
	if f.SortBy != "" && f.SortBy != DefaultSort {
		v.Set("sortBy", f.SortBy)
	}
	if len(f.Tags) > 0 {
		v.Set("tags", strings.Join(f.Tags, ","))
	}

	return v
}

// Encode детерминирован: url.Values сортирует ключи, повторный вызов
// дает байт-в-байт ту же строку.
func (f Filters) Encode() string {
	return f.Values().Encode()
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// NextPageParam возвращает номер следующей страницы. false — страниц
// больше нет; ноль никогда не является валидным номером.
func NextPageParam(p models.Pagination) (int, bool) {
	if !p.HasNext() {
		return 0, false
	}
	return p.Page + 1, true
}
