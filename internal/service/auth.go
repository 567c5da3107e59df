package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/rryowa/taskmarket/internal/client"
	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/session"
	"github.com/rryowa/taskmarket/internal/store"
)

type AuthService struct {
	client  *client.Client
	store   store.Store
	session *session.Manager
	log     *zap.SugaredLogger
}

func NewAuthService(c *client.Client, st store.Store, sess *session.Manager, log *zap.SugaredLogger) *AuthService {
	return &AuthService{
		client:  c,
		store:   st,
		session: sess,
		log:     log,
	}
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (models.UserProfile, error) {
	return s.signIn(ctx, "/auth/register", req)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (models.UserProfile, error) {
	return s.signIn(ctx, "/auth/login", models.LoginRequest{Email: email, Password: password})
}

func (s *AuthService) signIn(ctx context.Context, endpoint string, req interface{}) (models.UserProfile, error) {
	body, err := marshalBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Request(ctx, endpoint, client.Options{
		Method: http.MethodPost,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	data, err := unwrap(resp)
	if err != nil {
		return nil, err
	}

	var payload models.AuthPayload
	if err := decode(data, &payload); err != nil {
		return nil, err
	}

	pair := payload.Pair()
	if !pair.Valid() {
		return nil, fmt.Errorf("auth response missing token pair")
	}
	if err := s.store.SetPair(ctx, pair); err != nil {
		return nil, fmt.Errorf("persist token pair: %w", err)
	}

	s.persistProfile(ctx, payload.User)
	if err := s.store.SetItem(ctx, store.KeyIsAuth, true); err != nil {
		s.log.Warnw("failed to persist auth flag", "error", err)
	}

	s.session.Notify(session.EventSignedIn)
	return payload.User, nil
}

// Me запрашивает профиль с сервера и обновляет локальную копию.
func (s *AuthService) Me(ctx context.Context) (models.UserProfile, error) {
	resp, err := s.client.Request(ctx, "/auth/me", client.Options{})
	if err != nil {
		return nil, err
	}

	data, err := unwrap(resp)
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := decode(data, &profile); err != nil {
		return nil, err
	}

	s.persistProfile(ctx, profile)
	return profile, nil
}

// CachedProfile читает профиль, сохраненный при последнем входе.
func (s *AuthService) CachedProfile(ctx context.Context) (models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.store.Item(ctx, store.KeyUser, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Logout удаляет пару токенов и профиль целиком. Локальная операция:
// истекшая сессия не должна мешать выйти.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.DeletePair(ctx); err != nil {
		return fmt.Errorf("delete token pair: %w", err)
	}
	if err := s.store.RemoveItem(ctx, store.KeyUser); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Warnw("failed to remove cached profile", "error", err)
	}
	if err := s.store.SetItem(ctx, store.KeyIsAuth, false); err != nil {
		s.log.Warnw("failed to persist auth flag", "error", err)
	}

	s.session.Notify(session.EventSignedOut)
	return nil
}

func (s *AuthService) IsAuthenticated(ctx context.Context) bool {
	pair, err := s.store.Pair(ctx)
	return err == nil && pair.Valid()
}

func (s *AuthService) CompleteOnboarding(ctx context.Context) error {
	return s.store.SetItem(ctx, store.KeyOnboarding, true)
}

func (s *AuthService) OnboardingCompleted(ctx context.Context) bool {
	var done bool
	if err := s.store.Item(ctx, store.KeyOnboarding, &done); err != nil {
		return false
	}
	return done
}

func (s *AuthService) persistProfile(ctx context.Context, profile models.UserProfile) {
	if len(profile) == 0 {
		return
	}
	if err := s.store.SetItem(ctx, store.KeyUser, profile); err != nil {
		s.log.Warnw("failed to persist user profile", "error", err)
	}
}
