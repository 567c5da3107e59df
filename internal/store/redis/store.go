package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/store"
)

const (
	tokenKeyPrefix = "taskmarket:token:"
	itemKeyPrefix  = "taskmarket:item:"
)

// RedisStore — бэкенд для серверного использования SDK.
// Пара токенов пишется через TxPipeline, оба ключа попадают в Redis атомарно.
type RedisStore struct {
	client *redis.Client
}

func New(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SetToken(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, tokenKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set token: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Token(ctx context.Context, key string) (string, error) {
	result, err := s.client.Get(ctx, tokenKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", store.ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("%w: get token: %v", store.ErrUnavailable, err)
	}
	return result, nil
}

func (s *RedisStore) DeleteToken(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, tokenKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: delete token: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) SetPair(ctx context.Context, pair models.TokenPair) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, tokenKeyPrefix+store.KeyAccessToken, pair.AccessToken, 0)
	pipe.Set(ctx, tokenKeyPrefix+store.KeyRefreshToken, pair.RefreshToken, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: set pair: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Pair(ctx context.Context) (*models.TokenPair, error) {
	return store.PairFromTokens(ctx, s)
}

func (s *RedisStore) DeletePair(ctx context.Context) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, tokenKeyPrefix+store.KeyAccessToken)
	pipe.Del(ctx, tokenKeyPrefix+store.KeyRefreshToken)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: delete pair: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) SetItem(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal item %q: %w", key, err)
	}
	if err := s.client.Set(ctx, itemKeyPrefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: set item: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Item(ctx context.Context, key string, dst interface{}) error {
	raw, err := s.client.Get(ctx, itemKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return store.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("%w: get item: %v", store.ErrUnavailable, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal item %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, itemKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: remove item: %v", store.ErrUnavailable, err)
	}
	return nil
}
