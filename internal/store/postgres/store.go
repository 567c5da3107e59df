package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/store"
)

type PostgresStore struct {
	db *sql.DB
}

func New(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SetToken(ctx context.Context, key, value string) error {
	query := `INSERT INTO credentials (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%w: set token: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Token(ctx context.Context, key string) (string, error) {
	var value string
	query := `SELECT value FROM credentials WHERE key = $1`
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: get token: %v", store.ErrUnavailable, err)
	}
	return value, nil
}

func (s *PostgresStore) DeleteToken(ctx context.Context, key string) error {
	query := `DELETE FROM credentials WHERE key = $1`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("%w: delete token: %v", store.ErrUnavailable, err)
	}
	return nil
}

// SetPair записывает оба токена в одной транзакции.
func (s *PostgresStore) SetPair(ctx context.Context, pair models.TokenPair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", store.ErrUnavailable, err)
	}
	defer tx.Rollback()

	query := `INSERT INTO credentials (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := tx.ExecContext(ctx, query, store.KeyAccessToken, pair.AccessToken); err != nil {
		return fmt.Errorf("%w: set access token in tx: %v", store.ErrUnavailable, err)
	}
	if _, err := tx.ExecContext(ctx, query, store.KeyRefreshToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("%w: set refresh token in tx: %v", store.ErrUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Pair(ctx context.Context) (*models.TokenPair, error) {
	return store.PairFromTokens(ctx, s)
}

func (s *PostgresStore) DeletePair(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", store.ErrUnavailable, err)
	}
	defer tx.Rollback()

	query := `DELETE FROM credentials WHERE key IN ($1, $2)`
	if _, err := tx.ExecContext(ctx, query, store.KeyAccessToken, store.KeyRefreshToken); err != nil {
		return fmt.Errorf("%w: delete pair in tx: %v", store.ErrUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) SetItem(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal item %q: %w", key, err)
	}

	query := `INSERT INTO items (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, key, raw); err != nil {
		return fmt.Errorf("%w: set item: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Item(ctx context.Context, key string, dst interface{}) error {
	var raw []byte
	query := `SELECT value FROM items WHERE key = $1`
	err := s.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: get item: %v", store.ErrUnavailable, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal item %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) RemoveItem(ctx context.Context, key string) error {
	query := `DELETE FROM items WHERE key = $1`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("%w: remove item: %v", store.ErrUnavailable, err)
	}
	return nil
}
