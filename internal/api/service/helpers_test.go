package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/internal/api/store/drivers/sqlite"
	"github.com/devasign/devasign/pkg/idx"
	"github.com/devasign/devasign/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "devasign-test"

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func newKeys(t *testing.T) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
	})
	require.NoError(t, err)
	return km
}

// testClock is a settable clock safe for use from several goroutines.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *testClock { return &testClock{t: time.Now().UTC()} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func seedUser(t *testing.T, st *sqlite.Store, login string) domain.User {
	t.Helper()
	ts := time.Now().UTC().Truncate(time.Millisecond)
	u, err := st.Users().UpsertUser(context.Background(), domain.User{
		ID:         idx.NewString(),
		ProviderID: "gh-" + login,
		Username:   login,
		Email:      login + "@example.com",
		CreatedAt:  ts,
		UpdatedAt:  ts,
	})
	require.NoError(t, err)
	return u
}

func seedBounty(t *testing.T, st *sqlite.Store, creator string, assignee *string) domain.Bounty {
	t.Helper()
	ts := time.Now().UTC().Truncate(time.Millisecond)
	status := domain.BountyOpen
	if assignee != nil {
		status = domain.BountyAssigned
	}
	b := domain.Bounty{
		ID:         idx.NewString(),
		Title:      "Port the scheduler",
		AmountUSDC: 250,
		TechTags:   []string{"go", "sqlite"},
		Difficulty: domain.DifficultyIntermediate,
		Status:     status,
		CreatorID:  creator,
		AssigneeID: assignee,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	require.NoError(t, st.Bounties().CreateBounty(context.Background(), b))
	return b
}

// fakeProvider is an IdentityProvider answering from memory.
type fakeProvider struct {
	profile domain.Profile
	err     error
	codes   []string
}

func (f *fakeProvider) Name() string { return "github" }

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://github.example/login/oauth/authorize?state=" + state
}

func (f *fakeProvider) FetchProfile(_ context.Context, code string) (domain.Profile, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return domain.Profile{}, f.err
	}
	return f.profile, nil
}

var errUpstream = errors.New("github: exchange code: bad_verification_code")

func newSessions(st *sqlite.Store, km *jwtx.KeyManager) *service.SessionService {
	return &service.SessionService{
		Store:      st,
		KeyManager: km,
		Issuer:     testIssuer,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
