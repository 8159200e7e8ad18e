package authsdk

import "context"

// Me returns the account behind the session and caches it for User.
func (s *Session) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.send(ctx, get("/api/me", &user)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}
