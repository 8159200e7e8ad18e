package service

import (
	"context"
	"errors"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/internal/api/store"
)

type UserService struct {
	Store store.Store
}

// Me loads the account behind an authenticated request. A valid token whose
// user has since disappeared answers ErrUserNotFound.
func (s *UserService) Me(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}
