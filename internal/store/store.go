package store

import (
	"context"
	"errors"

	"github.com/rryowa/taskmarket/internal/models"
)

// ErrNotFound и ErrUnavailable различают "ключа нет" и "хранилище
// недоступно". Исходный клиент схлопывал оба случая в null.
var (
	ErrNotFound    = errors.New("store: key not found")
	ErrUnavailable = errors.New("store: unavailable")
)

const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"

	KeyUser       = "user"
	KeyOnboarding = "onboardingCompleted"
	KeyIsAuth     = "isAuth"
)

// TokenStore хранит учетные данные. Операции с парой токенов атомарны:
// после SetPair чтения видят либо старую пару целиком, либо новую.
type TokenStore interface {
	SetToken(ctx context.Context, key, value string) error
	Token(ctx context.Context, key string) (string, error)
	DeleteToken(ctx context.Context, key string) error

	SetPair(ctx context.Context, pair models.TokenPair) error
	Pair(ctx context.Context) (*models.TokenPair, error)
	DeletePair(ctx context.Context) error
}

// ItemStore хранит несекретные JSON-значения (профиль, флаги).
type ItemStore interface {
	SetItem(ctx context.Context, key string, value interface{}) error
	Item(ctx context.Context, key string, dst interface{}) error
	RemoveItem(ctx context.Context, key string) error
}

type Store interface {
	TokenStore
	ItemStore
}

// PairFromTokens собирает пару из независимых чтений обоих ключей.
// Отсутствие любого из токенов означает "не аутентифицирован".
func PairFromTokens(ctx context.Context, s TokenStore) (*models.TokenPair, error) {
	access, err := s.Token(ctx, KeyAccessToken)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	refresh, err := s.Token(ctx, KeyRefreshToken)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	pair := models.TokenPair{AccessToken: access, RefreshToken: refresh}
	if !pair.Valid() {
		return nil, ErrNotFound
	}
	return &pair, nil
}
