// Package file реализует хранилище по умолчанию: токены лежат на диске
// в age-зашифрованном файле, items — в обычном JSON. Ключ X25519
// генерируется при первом запуске и хранится рядом с правами 0600.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"filippo.io/age"
	"go.uber.org/zap"

	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/store"
)

const (
	identityFileName = "identity.key"
	tokensFileName   = "tokens.age"
	itemsFileName    = "items.json"

	dirPerm  = 0o700
	filePerm = 0o600
)

type FileStore struct {
	mu       sync.Mutex
	dir      string
	identity *age.X25519Identity
	log      *zap.SugaredLogger
}

func New(dir string, log *zap.SugaredLogger) (*FileStore, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	identity, err := loadOrCreateIdentity(filepath.Join(dir, identityFileName))
	if err != nil {
		return nil, err
	}

	return &FileStore{
		dir:      dir,
		identity: identity,
		log:      log,
	}, nil
}

func loadOrCreateIdentity(path string) (*age.X25519Identity, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		identity, err := age.ParseX25519Identity(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("parse identity file: %w", err)
		}
		return identity, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read identity file: %w", err)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	if err := os.WriteFile(path, []byte(identity.String()+"\n"), filePerm); err != nil {
		return nil, fmt.Errorf("write identity file: %w", err)
	}
	return identity, nil
}

func (s *FileStore) SetToken(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readTokens()
	if err != nil {
		return err
	}
	tokens[key] = value
	return s.writeTokens(tokens)
}

func (s *FileStore) Token(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readTokens()
	if err != nil {
		return "", err
	}
	v, ok := tokens[key]
	if !ok || v == "" {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *FileStore) DeleteToken(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readTokens()
	if err != nil {
		return err
	}
	delete(tokens, key)
	return s.writeTokens(tokens)
}

// SetPair записывает пару одним файлом: временный файл + rename,
// частично обновленная пара на диске невозможна.
func (s *FileStore) SetPair(ctx context.Context, pair models.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readTokens()
	if err != nil {
		return err
	}
	tokens[store.KeyAccessToken] = pair.AccessToken
	tokens[store.KeyRefreshToken] = pair.RefreshToken
	return s.writeTokens(tokens)
}

func (s *FileStore) Pair(ctx context.Context) (*models.TokenPair, error) {
	return store.PairFromTokens(ctx, s)
}

func (s *FileStore) DeletePair(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readTokens()
	if err != nil {
		return err
	}
	delete(tokens, store.KeyAccessToken)
	delete(tokens, store.KeyRefreshToken)
	return s.writeTokens(tokens)
}

func (s *FileStore) readTokens() (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, tokensFileName))
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read tokens: %v", store.ErrUnavailable, err)
	}

	r, err := age.Decrypt(bytes.NewReader(raw), s.identity)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt tokens: %v", store.ErrUnavailable, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt tokens: %v", store.ErrUnavailable, err)
	}

	tokens := make(map[string]string)
	if err := json.Unmarshal(plain, &tokens); err != nil {
		return nil, fmt.Errorf("%w: parse tokens: %v", store.ErrUnavailable, err)
	}
	return tokens, nil
}

func (s *FileStore) writeTokens(tokens map[string]string) error {
	plain, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.identity.Recipient())
	if err != nil {
		return fmt.Errorf("%w: encrypt tokens: %v", store.ErrUnavailable, err)
	}
	if _, err := w.Write(plain); err != nil {
		return fmt.Errorf("%w: encrypt tokens: %v", store.ErrUnavailable, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: encrypt tokens: %v", store.ErrUnavailable, err)
	}

	return s.replaceFile(tokensFileName, buf.Bytes())
}

func (s *FileStore) SetItem(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal item %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readItems()
	if err != nil {
		return err
	}
	items[key] = raw
	return s.writeItems(items)
}

func (s *FileStore) Item(ctx context.Context, key string, dst interface{}) error {
	s.mu.Lock()
	items, err := s.readItems()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	raw, ok := items[key]
	if !ok {
		return store.ErrNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal item %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readItems()
	if err != nil {
		return err
	}
	delete(items, key)
	return s.writeItems(items)
}

func (s *FileStore) readItems() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, itemsFileName))
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read items: %v", store.ErrUnavailable, err)
	}

	items := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: parse items: %v", store.ErrUnavailable, err)
	}
	return items, nil
}

func (s *FileStore) writeItems(items map[string]json.RawMessage) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	return s.replaceFile(itemsFileName, raw)
}

func (s *FileStore) replaceFile(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("%w: write %s: %v", store.ErrUnavailable, name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			s.log.Debugw("failed to remove temp file", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("%w: replace %s: %v", store.ErrUnavailable, name, err)
	}
	return nil
}
