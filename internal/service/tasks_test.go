package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/query"
	"github.com/rryowa/taskmarket/internal/util"
)

func testFilters() query.Filters {
	return query.Filters{Status: models.TaskStatusOpen}
}

func seedTasks(env *testEnv, n int) {
	for i := 0; i < n; i++ {
		env.srv.Tasks = append(env.srv.Tasks, models.Task{
			ID:     fmt.Sprintf("t%d", i+1),
			Title:  fmt.Sprintf("Task %d", i+1),
			Status: models.TaskStatusOpen,
			Budget: float64(10 * (i + 1)),
		})
	}
}

func TestListOmitsDefaultStatusFromQuery(t *testing.T) {
	env := newTestEnv(t)
	seedTasks(env, 3)

	// status "open" — серверное умолчание, в URL его быть не должно.
	_, err := env.tasks.List(context.Background(), testFilters(), 1)
	require.NoError(t, err)
	require.Equal(t, "limit=15&page=1", env.srv.RawQuery("GET", "/tasks"))
}

func TestListSerializesNonDefaultFilters(t *testing.T) {
	env := newTestEnv(t)
	seedTasks(env, 3)

	f := query.Filters{
		Search:   "garden",
		Status:   models.TaskStatusCompleted,
		MinPrice: 20,
	}
	_, err := env.tasks.List(context.Background(), f, 2)
	require.NoError(t, err)
	require.Equal(t,
		"limit=15&minPrice=20&page=2&search=garden&status=completed",
		env.srv.RawQuery("GET", "/tasks"),
	)
}

func TestTaskPagerFetchesAllPages(t *testing.T) {
	env := newTestEnv(t)
	seedTasks(env, 35)
	ctx := context.Background()

	pager := env.tasks.Pager(testFilters())
	for pager.HasMore() {
		_, err := pager.FetchNext(ctx)
		require.NoError(t, err)
	}

	require.Len(t, pager.Items(), 35)
	require.Equal(t, 35, pager.Total())
	require.Equal(t, 3, env.srv.CallCount("GET", "/tasks"))

	_, err := pager.FetchNext(ctx)
	require.ErrorIs(t, err, query.ErrNoMorePages)
}

func TestGetTask(t *testing.T) {
	env := newTestEnv(t)
	seedTasks(env, 2)

	detail, err := env.tasks.Get(context.Background(), "t2")
	require.NoError(t, err)
	require.Equal(t, "Task 2", detail.Title)

	_, err = env.tasks.Get(context.Background(), "missing")
	var respErr util.ResponseError
	require.True(t, errors.As(err, &respErr))
	require.Equal(t, 404, respErr.Status)
}

func TestCreateTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	task, err := env.tasks.Create(ctx, models.CreateTaskRequest{
		Title:  "Assemble furniture",
		Budget: 50,
	})
	require.NoError(t, err)
	require.NotNil(t, task)
	require.Equal(t, models.TaskStatusOpen, task.Status)

	_, err = env.tasks.Create(ctx, models.CreateTaskRequest{})
	var respErr util.ResponseError
	require.True(t, errors.As(err, &respErr))
	require.Contains(t, respErr.Fields, "title")
}

func TestMakeOffer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	offer, err := env.tasks.MakeOffer(ctx, "t1", models.OfferRequest{
		Price:         45,
		Description:   "can do today",
		EstimatedTime: "2h",
	})
	require.NoError(t, err)
	require.Equal(t, "t1", offer.TaskID)
	require.Equal(t, 45.0, offer.Price)
}

func TestRejectedResponseWithoutMessage(t *testing.T) {
	tasks := newStubEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	_, err := tasks.List(context.Background(), query.Filters{}, 1)
	require.Error(t, err)

	// 200 + success:false без message — ошибка не должна называться "OK".
	var respErr util.ResponseError
	require.True(t, errors.As(err, &respErr))
	require.Equal(t, "request failed", respErr.Msg)
	require.Equal(t, http.StatusOK, respErr.Status)
}

func TestMalformedResponseIsTypedError(t *testing.T) {
	tasks := newMalformedEnv(t)

	_, err := tasks.List(context.Background(), query.Filters{}, 1)
	require.ErrorIs(t, err, util.ErrMalformedResponse)
}
