package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rryowa/taskmarket/internal/models"
)

func TestEncodeIdempotent(t *testing.T) {
	f := Filters{
		Search:   "помощь с переездом",
		Status:   models.TaskStatusCompleted,
		Category: "moving",
		MinPrice: 10.5,
		MaxPrice: 200,
		SortBy:   "price_asc",
		Tags:     []string{"urgent", "weekend"},
	}

	first := f.Encode()
	second := f.Encode()
	require.Equal(t, first, second)
	require.NotEmpty(t, first)
}

func TestEncodeOmitsDefaults(t *testing.T) {
	require.Equal(t, "", Filters{}.Encode())
	require.Equal(t, "", Filters{Status: DefaultStatus}.Encode())
	require.Equal(t, "", Filters{SortBy: DefaultSort}.Encode())

	require.Equal(t, "status=completed", Filters{Status: models.TaskStatusCompleted}.Encode())
	require.Equal(t, "sortBy=price_asc", Filters{SortBy: "price_asc"}.Encode())
}

func TestEncodeOmitsZeroPrices(t *testing.T) {
	require.Equal(t, "", Filters{MinPrice: 0, MaxPrice: 0}.Encode())
	require.Equal(t, "maxPrice=150&minPrice=25", Filters{MinPrice: 25, MaxPrice: 150}.Encode())
}

func TestEncodeJoinsTags(t *testing.T) {
	f := Filters{Tags: []string{"urgent", "weekend"}}
	require.Equal(t, "tags=urgent%2Cweekend", f.Encode())
}

func TestNextPageParam(t *testing.T) {
	next, ok := NextPageParam(models.Pagination{Page: 2, TotalPages: 3})
	require.True(t, ok)
	require.Equal(t, 3, next)

	_, ok = NextPageParam(models.Pagination{Page: 3, TotalPages: 3})
	require.False(t, ok)

	_, ok = NextPageParam(models.Pagination{Page: 1, TotalPages: 0})
	require.False(t, ok)
}
