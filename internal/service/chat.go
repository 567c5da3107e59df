package service

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/rryowa/taskmarket/internal/client"
	"github.com/rryowa/taskmarket/internal/models"
)

type ChatService struct {
	client *client.Client
	log    *zap.SugaredLogger
}

func NewChatService(c *client.Client, log *zap.SugaredLogger) *ChatService {
	return &ChatService{client: c, log: log}
}

func (s *ChatService) Conversations(ctx context.Context) ([]models.Conversation, error) {
	resp, err := s.client.Request(ctx, "/chat/conversations", client.Options{})
	if err != nil {
		return nil, err
	}

	data, err := unwrap(resp)
	if err != nil {
		return nil, err
	}

	var conversations []models.Conversation
	if err := decode(data, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation открывает диалог с исполнителем по задаче
// и возвращает id созданного диалога.
func (s *ChatService) CreateConversation(ctx context.Context, taskID, taskerID string) (string, error) {
	body, err := marshalBody(models.CreateConversationRequest{TaskerID: taskerID})
	if err != nil {
		return "", err
	}

	endpoint := "/chat/tasks/" + url.PathEscape(taskID) + "/conversations"
	resp, err := s.client.Request(ctx, endpoint, client.Options{
		Method: http.MethodPost,
		Body:   body,
	})
	if err != nil {
		return "", err
	}

	data, err := unwrap(resp)
	if err != nil {
		return "", err
	}

	var created models.CreatedConversation
	if err := decode(data, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}
