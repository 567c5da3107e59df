package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/rryowa/taskmarket/internal/client"
	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/query"
)

type TaskService struct {
	client *client.Client
	log    *zap.SugaredLogger
	limit  int
}

func NewTaskService(c *client.Client, limit int, log *zap.SugaredLogger) *TaskService {
	return &TaskService{
		client: c,
		log:    log,
		limit:  limit,
	}
}

// List загружает одну страницу публичного списка задач.
func (s *TaskService) List(ctx context.Context, f query.Filters, page int) (models.TaskPage, error) {
	return s.fetchPage(ctx, "/tasks", f, page)
}

// MyTasks загружает одну страницу задач текущего пользователя.
func (s *TaskService) MyTasks(ctx context.Context, f query.Filters, page int) (models.TaskPage, error) {
	return s.fetchPage(ctx, "/tasks/my-tasks", f, page)
}

func (s *TaskService) fetchPage(
	ctx context.Context,
	basePath string,
	f query.Filters,
	page int,
) (models.TaskPage, error) {
	values := f.Values()
	values.Set("page", strconv.Itoa(page))
	values.Set("limit", strconv.Itoa(s.limit))

	resp, err := s.client.Request(ctx, basePath+"?"+values.Encode(), client.Options{})
	if err != nil {
		return models.TaskPage{}, err
	}

	data, err := unwrap(resp)
	if err != nil {
		return models.TaskPage{}, err
	}

	var tp models.TaskPage
	if err := decode(data, &tp); err != nil {
		return models.TaskPage{}, err
	}
	return tp, nil
}

// Pager привязывает слой пагинации к публичному списку.
func (s *TaskService) Pager(f query.Filters) *query.Pager {
	return query.NewPager(func(ctx context.Context, page int) (models.TaskPage, error) {
		return s.List(ctx, f, page)
	})
}

func (s *TaskService) MyTasksPager(f query.Filters) *query.Pager {
	return query.NewPager(func(ctx context.Context, page int) (models.TaskPage, error) {
		return s.MyTasks(ctx, f, page)
	})
}

func (s *TaskService) Get(ctx context.Context, id string) (*models.TaskDetail, error) {
	resp, err := s.client.Request(ctx, "/tasks/"+url.PathEscape(id), client.Options{})
	if err != nil {
		return nil, err
	}

	data, err := unwrap(resp)
	if err != nil {
		return nil, err
	}

	var detail models.TaskDetail
	if err := decode(data, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *TaskService) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	body, err := marshalBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Request(ctx, "/tasks", client.Options{
		Method: http.MethodPost,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	data, err := unwrap(resp)
	if err != nil {
		return nil, err
	}

	// Сервер может подтвердить создание без тела data.
	if len(data) == 0 {
		return nil, nil
	}

	var task models.Task
	if err := decode(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) MakeOffer(ctx context.Context, taskID string, req models.OfferRequest) (*models.Offer, error) {
	body, err := marshalBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Request(ctx, "/tasks/"+url.PathEscape(taskID)+"/offers", client.Options{
		Method: http.MethodPost,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	data, err := unwrap(resp)
	if err != nil {
		return nil, err
	}

	var offer models.Offer
	if err := decode(data, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}
