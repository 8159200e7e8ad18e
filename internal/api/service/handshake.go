package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/internal/api/provider"
	"github.com/devasign/devasign/internal/api/store"
	"github.com/devasign/devasign/pkg/cryptox"
	"github.com/devasign/devasign/pkg/idx"
	"github.com/devasign/devasign/pkg/slogx"
)

// HandshakeService runs the OAuth login with the identity provider. The
// state nonce it hands out in Begin travels to the browser in a cookie and
// must come back, unchanged, next to the authorization code.
type HandshakeService struct {
	Provider provider.IdentityProvider
	Store    store.Store
	Sessions *SessionService
	Now      Clock
}

// Begin returns a fresh state nonce and the provider URL carrying it.
func (h *HandshakeService) Begin() (state, redirectURL string, err error) {
	state, err = cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", "", err
	}
	return state, h.Provider.AuthCodeURL(state), nil
}

// Complete finishes the login.
//
// cookieState is the nonce the browser sent back; the caller is expected to
// have already cleared the cookie so the nonce cannot be replayed. Provider
// and store failures are logged and surface as ErrAuthenticationFailed, apart
// from server misconfiguration which surfaces as ErrConfiguration.
func (h *HandshakeService) Complete(ctx context.Context, code, state, cookieState string) (domain.Session, error) {
	log := slogx.FromContext(ctx)

	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Session{}, ErrMissingCode
	}
	if !cryptox.EqualTokens(state, cookieState) {
		log.Info("oauth state mismatch", slog.Bool("cookie_present", cookieState != ""))
		return domain.Session{}, ErrInvalidState
	}

	profile, err := h.Provider.FetchProfile(ctx, code)
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) {
			log.Error("identity provider not configured", slog.String("provider", h.Provider.Name()))
			return domain.Session{}, ErrConfiguration
		}
		log.Warn("identity provider exchange failed", slog.String("provider", h.Provider.Name()), slog.Any("error", err))
		return domain.Session{}, ErrAuthenticationFailed
	}
	if !profile.EmailVerified || profile.Email == "" {
		return domain.Session{}, ErrEmailNotVerified
	}

	now := h.Now.now()
	user, err := h.Store.Users().UpsertUser(ctx, domain.User{
		ID:          idx.NewString(),
		ProviderID:  profile.ProviderID,
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		AvatarURL:   profile.AvatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		log.Error("failed to upsert user", slog.String("provider_id", profile.ProviderID), slog.Any("error", err))
		return domain.Session{}, ErrAuthenticationFailed
	}

	pair, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		if errors.Is(err, ErrConfiguration) {
			log.Error("cannot issue session", slog.Any("error", err))
			return domain.Session{}, ErrConfiguration
		}
		log.Error("failed to issue session", slog.String("user_id", user.ID), slog.Any("error", err))
		return domain.Session{}, ErrAuthenticationFailed
	}

	log.Info("user logged in", slog.String("user_id", user.ID), slog.String("provider", h.Provider.Name()))
	return domain.Session{User: user, TokenPair: pair}, nil
}
