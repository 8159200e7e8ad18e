package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/devasign/devasign/pkg/slogx"
)

// OwnershipCheck decides whether a user may act on a resource. Implementations
// must answer false, not an error, for resources that do not exist.
type OwnershipCheck interface {
	Owns(ctx context.Context, userID, resourceID string) (bool, error)
}

// OwnershipCheckFunc adapts a plain function to OwnershipCheck.
type OwnershipCheckFunc func(ctx context.Context, userID, resourceID string) (bool, error)

func (f OwnershipCheckFunc) Owns(ctx context.Context, userID, resourceID string) (bool, error) {
	return f(ctx, userID, resourceID)
}

// RequireOwnership only lets the request through when check says the
// authenticated caller owns the resource named by the path value param.
// Must run after AuthnMiddleware.
func RequireOwnership(check OwnershipCheck, param, deniedMessage string) Middleware {
	denied := Forbidden(deniedMessage)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			id, ok := IdentityFromContext(ctx)
			if !ok {
				WriteError(w, ErrUnauthorized)
				return
			}

			resourceID := r.PathValue(param)
			if resourceID == "" {
				WriteError(w, ErrResourceIDMissing)
				return
			}

			owns, err := check.Owns(ctx, id.ID, resourceID)
			if err != nil {
				log.Error("ownership check failed", slog.String("resource_id", resourceID), slog.Any("error", err))
				WriteError(w, ErrInternal)
				return
			}
			if !owns {
				log.Info("ownership denied", "resource_id", resourceID)
				WriteError(w, denied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
