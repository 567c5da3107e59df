// Package client реализует аутентифицированный HTTP-клиент Taskmarket API:
// bearer-авторизация из хранилища, один повтор запроса после обновления
// токенов на 401.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rryowa/taskmarket/internal/session"
	"github.com/rryowa/taskmarket/internal/store"
	"github.com/rryowa/taskmarket/internal/util"
)

const expiryLeeway = 5 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
	store   store.Store
	session *session.Manager
	log     *zap.SugaredLogger

	// refresh коалесцирует одновременные обновления токенов:
	// все наблюдатели 401 разделяют один вызов /auth/refresh.
	refresh singleflight.Group
}

func New(cfg *util.APIConfig, st store.Store, sess *session.Manager, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		store:   st,
		session: sess,
		log:     log,
	}
}

// Options описывает один исходящий запрос. Method по умолчанию GET,
// Body сериализуется в JSON один раз и переиспользуется при повторе.
type Options struct {
	Method  string
	Headers http.Header
	Body    []byte
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Request выполняет запрос по контракту:
//  1. access-токен читается из хранилища на каждый вызов, не кэшируется;
//  2. при 401 и наличии токена — ровно одно обновление и ровно один повтор;
//  3. ответ повтора возвращается как есть, даже если это снова 401;
//  4. неудачное обновление возвращает исходный 401, не ошибку.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	token := c.currentAccessToken(ctx)

	// Заведомо истекший JWT обновляется до первой попытки. Попытка,
	// удачная или нет, расходует бюджет обновления вызова: больше одного
	// обращения к /auth/refresh на запрос не бывает.
	refreshAttempted := false
	if token != "" && accessTokenExpired(token) {
		refreshAttempted = true
		if pair, err := c.refreshTokens(ctx); err == nil {
			token = pair.AccessToken
		}
	}

	resp, err := c.do(ctx, method, endpoint, opts.Body, token, opts.Headers)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || token == "" || refreshAttempted {
		return resp, nil
	}

	pair, err := c.refreshTokens(ctx)
	if err != nil {
		c.log.Debugw("token refresh failed, returning original response",
			"endpoint", endpoint, "error", err)
		return resp, nil
	}

	return c.do(ctx, method, endpoint, opts.Body, pair.AccessToken, opts.Headers)
}

func (c *Client) do(
	ctx context.Context,
	method, endpoint string,
	payload []byte,
	token string,
	extra http.Header,
) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	// Заголовки вызывающего имеют приоритет.
	for key, values := range extra {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (c *Client) currentAccessToken(ctx context.Context) string {
	token, err := c.store.Token(ctx, store.KeyAccessToken)
	switch {
	case err == nil:
		return token
	case errors.Is(err, store.ErrNotFound):
		return ""
	default:
		c.log.Warnw("token store unavailable, proceeding unauthenticated", "error", err)
		return ""
	}
}

// accessTokenExpired распознает истекший JWT без проверки подписи.
// Непрозрачные токены и токены без exp считаются живыми — их судьбу
// решает сервер.
func accessTokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Now().Add(expiryLeeway).After(claims.ExpiresAt.Time)
}
