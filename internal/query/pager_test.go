package query

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rryowa/taskmarket/internal/models"
)

// pagedFixture отдает total задач страницами по limit штук.
func pagedFixture(total, limit int, failPage int) PageFunc {
	return func(_ context.Context, page int) (models.TaskPage, error) {
		if page == failPage {
			return models.TaskPage{}, errors.New("page fetch failed")
		}

		totalPages := (total + limit - 1) / limit
		start := (page - 1) * limit
		end := start + limit
		if end > total {
			end = total
		}

		var tasks []models.Task
		for i := start; i < end; i++ {
			tasks = append(tasks, models.Task{ID: fmt.Sprintf("t%d", i+1)})
		}

		return models.TaskPage{
			Tasks: tasks,
			Pagination: models.Pagination{
				Page:       page,
				Limit:      limit,
				Total:      total,
				TotalPages: totalPages,
			},
		}, nil
	}
}

func TestPagerAccumulatesInOrder(t *testing.T) {
	p := NewPager(pagedFixture(35, 15, 0))
	ctx := context.Background()

	first, err := p.FetchNext(ctx)
	require.NoError(t, err)
	require.Len(t, first, 15)
	require.True(t, p.HasMore())

	_, err = p.FetchNext(ctx)
	require.NoError(t, err)

	last, err := p.FetchNext(ctx)
	require.NoError(t, err)
	require.Len(t, last, 5)
	require.False(t, p.HasMore())

	items := p.Items()
	require.Len(t, items, 35)
	require.Equal(t, "t1", items[0].ID)
	require.Equal(t, "t16", items[15].ID)
	require.Equal(t, "t35", items[34].ID)
	require.Equal(t, 35, p.Total())
}

func TestPagerStopsPastLastPage(t *testing.T) {
	p := NewPager(pagedFixture(10, 15, 0))
	ctx := context.Background()

	_, err := p.FetchNext(ctx)
	require.NoError(t, err)
	require.False(t, p.HasMore())

	_, err = p.FetchNext(ctx)
	require.ErrorIs(t, err, ErrNoMorePages)
}

func TestPagerFailureKeepsAccumulated(t *testing.T) {
	p := NewPager(pagedFixture(30, 15, 2))
	ctx := context.Background()

	_, err := p.FetchNext(ctx)
	require.NoError(t, err)
	require.Len(t, p.Items(), 15)

	_, err = p.FetchNext(ctx)
	require.Error(t, err)
	require.Len(t, p.Items(), 15)
	require.True(t, p.HasMore())
}

func TestPagerRefreshRestartsFromFirstPage(t *testing.T) {
	p := NewPager(pagedFixture(35, 15, 0))
	ctx := context.Background()

	_, err := p.FetchNext(ctx)
	require.NoError(t, err)
	_, err = p.FetchNext(ctx)
	require.NoError(t, err)
	require.Len(t, p.Items(), 30)

	require.NoError(t, p.Refresh(ctx))
	items := p.Items()
	require.Len(t, items, 15)
	require.Equal(t, "t1", items[0].ID)
	require.True(t, p.HasMore())
}

func TestPagerRefreshFailureKeepsAccumulated(t *testing.T) {
	p := NewPager(pagedFixture(30, 15, 1))
	p.items = []models.Task{{ID: "old"}}
	p.last = &models.Pagination{Page: 1, Limit: 15, Total: 30, TotalPages: 2}

	require.Error(t, p.Refresh(context.Background()))
	require.Len(t, p.Items(), 1)
}
