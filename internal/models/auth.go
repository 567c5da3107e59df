package models

import "encoding/json"

// TokenPair — пара access/refresh токенов. Пара всегда записывается и
// удаляется целиком, частичное обновление недопустимо.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Valid reports whether both credentials are present. Absence of either
// means "unauthenticated".
func (p TokenPair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// UserProfile is an opaque server payload. The client stores and forwards
// it without validating a schema.
type UserProfile = json.RawMessage

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthPayload — тело data в ответах login/register/refresh.
type AuthPayload struct {
	User         UserProfile `json:"user,omitempty"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func (p AuthPayload) Pair() TokenPair {
	return TokenPair{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
	}
}
