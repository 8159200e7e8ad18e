package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/internal/api/store"
	"github.com/devasign/devasign/pkg/cryptox"
	"github.com/devasign/devasign/pkg/idx"
	"github.com/devasign/devasign/pkg/jwtx"
	"github.com/devasign/devasign/pkg/slogx"
)

// SessionService mints, rotates and revokes token pairs.
type SessionService struct {
	Store      store.Store
	KeyManager *jwtx.KeyManager
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        Clock
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Issue starts a new refresh lineage for user and returns the first pair.
func (s *SessionService) Issue(ctx context.Context, user domain.User) (domain.TokenPair, error) {
	return s.mint(ctx, s.Store.RefreshTokens(), user, s.Now.now())
}

// Rotate trades a refresh token for a new pair. The presented token is
// consumed: it is deleted in the same transaction that stores its
// successor, and only the caller whose delete actually removed the row
// wins. A concurrent replay of the same token gets ErrInvalidRefreshToken.
func (s *SessionService) Rotate(ctx context.Context, raw string) (domain.TokenPair, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.TokenPair{}, ErrMissingRefreshToken
	}

	log := slogx.FromContext(ctx)
	now := s.Now.now()
	hash := cryptox.FingerprintToken(raw)

	rec, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, err
	}

	if rec.Expired(now) {
		if _, err := s.Store.RefreshTokens().DeleteRefreshTokenByHash(ctx, hash); err != nil {
			log.Warn("failed to delete expired refresh token", slog.String("token_id", rec.ID), slog.Any("error", err))
		}
		return domain.TokenPair{}, ErrRefreshTokenExpired
	}

	user, err := s.Store.Users().GetUserByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUserNotFound
		}
		return domain.TokenPair{}, err
	}

	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.RefreshTokens().DeleteRefreshTokenByHash(ctx, hash)
		if err != nil {
			return err
		}
		if n != 1 {
			log.Info("refresh token already consumed", slog.String("token_id", rec.ID))
			return ErrInvalidRefreshToken
		}

		pair, err = s.mint(ctx, tx.RefreshTokens(), user, now)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}

// Revoke deletes the refresh token. Unknown tokens are not an error.
func (s *SessionService) Revoke(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrMissingRefreshToken
	}
	_, err := s.Store.RefreshTokens().DeleteRefreshTokenByHash(ctx, cryptox.FingerprintToken(raw))
	return err
}

func (s *SessionService) mint(ctx context.Context, tokens store.RefreshTokens, user domain.User, now time.Time) (domain.TokenPair, error) {
	access, err := s.signAccess(user, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	raw, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return domain.TokenPair{}, err
	}

	rec := domain.RefreshToken{
		ID:        idx.NewString(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(raw),
		ExpiresAt: now.Add(s.refreshTTL()),
		CreatedAt: now,
	}
	if err := tokens.CreateRefreshToken(ctx, rec); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: raw}, nil
}

func (s *SessionService) signAccess(user domain.User, now time.Time) (string, error) {
	if s.KeyManager == nil {
		return "", fmt.Errorf("%w: %w", ErrConfiguration, jwtx.ErrNoSigningKey)
	}
	claims := jwtx.NewAccessClaims(user.ID, user.Username, s.Issuer, s.Audience, s.accessTTL(), now)
	token, err := s.KeyManager.Sign(claims)
	if err != nil {
		if errors.Is(err, jwtx.ErrNoSigningKey) {
			return "", fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}
