package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devasign/devasign/pkg/jwtx"
	"github.com/devasign/devasign/pkg/slogx"
)

// AuthnMiddleware requires a valid bearer access token and attaches the
// caller's Identity to the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r)
			if !ok {
				writeBearerError(w, ErrMissingAuthHeader)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				if errors.Is(err, jwtx.ErrNoVerificationKey) {
					log.Error("no verification key configured, rejecting request")
					WriteError(w, ErrConfiguration)
					return
				}
				log.Debug("jwt verify failed", slog.Any("error", err))
				writeBearerError(w, ErrInvalidToken)
				return
			}

			if err := claims.ValidateExpiry(); err != nil {
				writeBearerError(w, ErrTokenExpired)
				return
			}

			if claims.Subject == "" {
				writeBearerError(w, ErrInvalidTokenPayload)
				return
			}

			ctx = WithIdentity(ctx, Identity{ID: claims.Subject, Username: claims.Username})
			ctx = slogx.WithUserID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is matched case-insensitively per RFC 6750.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, e *Error) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+e.Message+`"`)
	WriteError(w, e)
}
