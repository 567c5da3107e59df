package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/store"
)

func newTestStore(t *testing.T, dir string) *FileStore {
	t.Helper()
	s, err := New(dir, zap.NewNop().Sugar())
	require.NoError(t, err)
	return s
}

func TestFileStorePairRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	ctx := context.Background()

	pair := models.TokenPair{AccessToken: "A1", RefreshToken: "R1"}
	require.NoError(t, s.SetPair(ctx, pair))

	got, err := s.Pair(ctx)
	require.NoError(t, err)
	require.Equal(t, pair, *got)

	access, err := s.Token(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "A1", access)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newTestStore(t, dir)
	require.NoError(t, s.SetPair(ctx, models.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))

	reopened := newTestStore(t, dir)
	got, err := reopened.Pair(ctx)
	require.NoError(t, err)
	require.Equal(t, "A1", got.AccessToken)
	require.Equal(t, "R1", got.RefreshToken)
}

func TestFileStoreMissingKey(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	ctx := context.Background()

	_, err := s.Token(ctx, store.KeyAccessToken)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Pair(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFileStoreDeletePair(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.SetPair(ctx, models.TokenPair{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, s.DeletePair(ctx))

	_, err := s.Pair(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFileStoreTokensEncryptedAtRest(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	ctx := context.Background()

	const secret = "very-secret-access-token"
	require.NoError(t, s.SetPair(ctx, models.TokenPair{AccessToken: secret, RefreshToken: "R1"}))

	raw, err := os.ReadFile(filepath.Join(dir, tokensFileName))
	require.NoError(t, err)
	require.NotContains(t, string(raw), secret)
}

func TestFileStoreItems(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	ctx := context.Background()

	type profile struct {
		Name string `json:"name"`
	}

	require.NoError(t, s.SetItem(ctx, store.KeyUser, profile{Name: "Alice"}))

	var got profile
	require.NoError(t, s.Item(ctx, store.KeyUser, &got))
	require.Equal(t, "Alice", got.Name)

	require.NoError(t, s.RemoveItem(ctx, store.KeyUser))
	require.ErrorIs(t, s.Item(ctx, store.KeyUser, &got), store.ErrNotFound)
}

func TestFileStoreIdentityFilePermissions(t *testing.T) {
	dir := t.TempDir()
	newTestStore(t, dir)

	info, err := os.Stat(filepath.Join(dir, identityFileName))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}
