package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/session"
	"github.com/rryowa/taskmarket/internal/store"
)

const refreshEndpoint = "/auth/refresh"

// ErrRefreshUnavailable покрывает все терминальные состояния процедуры
// обновления: нет refresh-токена, сетевая ошибка, отказ сервера,
// некорректное тело. Наружу из Request эта ошибка не выходит.
var ErrRefreshUnavailable = errors.New("token refresh not possible")

func (c *Client) refreshTokens(ctx context.Context) (*models.TokenPair, error) {
	v, err, shared := c.refresh.Do("refresh", func() (interface{}, error) {
		// Результат делят все ожидающие вызовы, поэтому отмена контекста
		// первого из них не должна ронять остальных.
		return c.doRefresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debugw("refresh shared with concurrent caller")
	}
	return v.(*models.TokenPair), nil
}

func (c *Client) doRefresh(ctx context.Context) (*models.TokenPair, error) {
	refreshToken, err := c.store.Token(ctx, store.KeyRefreshToken)
	if err != nil || refreshToken == "" {
		return nil, ErrRefreshUnavailable
	}

	payload, err := json.Marshal(models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request", ErrRefreshUnavailable)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+refreshEndpoint, bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create request", ErrRefreshUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Errorw("refresh request failed", "error", err)
		return nil, ErrRefreshUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Errorw("failed to read refresh response", "error", err)
		return nil, ErrRefreshUnavailable
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.log.Warnw("refresh rejected", "status", resp.StatusCode)
		return nil, ErrRefreshUnavailable
	}

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.log.Errorw("malformed refresh response", "error", err)
		return nil, ErrRefreshUnavailable
	}
	if !env.Success {
		c.log.Warnw("refresh reported failure", "message", env.Message)
		return nil, ErrRefreshUnavailable
	}

	var data models.AuthPayload
	if err := json.Unmarshal(env.Data, &data); err != nil {
		c.log.Errorw("malformed refresh payload", "error", err)
		return nil, ErrRefreshUnavailable
	}

	pair := data.Pair()
	if !pair.Valid() {
		c.log.Warnw("refresh returned incomplete token pair")
		return nil, ErrRefreshUnavailable
	}

	// Неудачная запись равна неудачному обновлению: иначе повтор ушел бы
	// с токеном, которого нет в хранилище.
	if err := c.store.SetPair(ctx, pair); err != nil {
		c.log.Errorw("failed to persist refreshed tokens", "error", err)
		return nil, ErrRefreshUnavailable
	}

	if c.session != nil {
		c.session.Notify(session.EventRefreshed)
	}

	return &pair, nil
}
