package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/rryowa/taskmarket/internal/client"
	"github.com/rryowa/taskmarket/internal/models"
)

type CategoryService struct {
	client *client.Client
	log    *zap.SugaredLogger
}

func NewCategoryService(c *client.Client, log *zap.SugaredLogger) *CategoryService {
	return &CategoryService{client: c, log: log}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	resp, err := s.client.Request(ctx, "/categories", client.Options{})
	if err != nil {
		return nil, err
	}

	data, err := unwrap(resp)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Categories []models.Category `json:"categories"`
	}
	if err := decode(data, &payload); err != nil {
		return nil, err
	}
	return payload.Categories, nil
}
