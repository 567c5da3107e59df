package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/session"
	"github.com/rryowa/taskmarket/internal/store"
	"github.com/rryowa/taskmarket/internal/util"
)

func TestRegisterPersistsTokenPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	events := env.session.Subscribe()

	profile, err := env.auth.Register(ctx, models.RegisterRequest{
		Name:            "Alice",
		Email:           "alice@example.com",
		Password:        "secret",
		ConfirmPassword: "secret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, profile)

	access, err := env.store.Token(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "A1", access)

	refresh, err := env.store.Token(ctx, store.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "R1", refresh)

	require.True(t, env.auth.IsAuthenticated(ctx))
	require.Equal(t, session.EventSignedIn, <-events)
}

func TestRegisterValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), models.RegisterRequest{Name: "NoEmail"})
	require.Error(t, err)

	var respErr util.ResponseError
	require.True(t, errors.As(err, &respErr))
	require.Equal(t, 400, respErr.Status)
	require.Contains(t, respErr.Fields, "email")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := models.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "x", ConfirmPassword: "x"}
	_, err := env.auth.Register(ctx, req)
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, req)
	var respErr util.ResponseError
	require.True(t, errors.As(err, &respErr))
	require.Contains(t, respErr.Fields, "email")
}

func TestLoginThenMe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)

	profile, err := env.auth.Me(ctx)
	require.NoError(t, err)
	require.JSONEq(t, string(env.srv.Profile), string(profile))

	cached, err := env.auth.CachedProfile(ctx)
	require.NoError(t, err)
	require.JSONEq(t, string(profile), string(cached))
}

func TestLogoutClearsEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	require.True(t, env.auth.IsAuthenticated(ctx))

	events := env.session.Subscribe()
	require.NoError(t, env.auth.Logout(ctx))

	require.False(t, env.auth.IsAuthenticated(ctx))
	_, err = env.store.Pair(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.auth.CachedProfile(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, session.EventSignedOut, <-events)
}

func TestOnboardingFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.False(t, env.auth.OnboardingCompleted(ctx))
	require.NoError(t, env.auth.CompleteOnboarding(ctx))
	require.True(t, env.auth.OnboardingCompleted(ctx))
}

func TestExpiredSessionRefreshMidFlight(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Сессия началась с A1/R1, но access уже невалиден.
	require.NoError(t, env.store.SetPair(ctx, models.TokenPair{AccessToken: "expired", RefreshToken: "R1"}))

	page, err := env.tasks.MyTasks(ctx, testFilters(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, page.Pagination.Page)

	require.Equal(t, "Bearer A2", env.srv.AuthHeader("GET", "/tasks/my-tasks"))

	pair, err := env.store.Pair(ctx)
	require.NoError(t, err)
	require.Equal(t, "A2", pair.AccessToken)
	require.Equal(t, "R2", pair.RefreshToken)
}
