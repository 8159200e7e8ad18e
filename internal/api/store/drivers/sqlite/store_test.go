package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/devasign/devasign/internal/api/domain"
	"github.com/devasign/devasign/internal/api/store"
	"github.com/devasign/devasign/internal/api/store/drivers/sqlite"
	"github.com/devasign/devasign/pkg/idx"
	"github.com/devasign/devasign/pkg/pagex"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func seedUser(t *testing.T, st store.Store, login string) domain.User {
	t.Helper()
	ts := now()
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

func seedBounty(t *testing.T, st store.Store, creator string, mutate func(*domain.Bounty)) domain.Bounty {
	t.Helper()
	ts := now()
	b := domain.Bounty{
		ID:         idx.NewString(),
		Title:      "Fix the flux capacitor",
		AmountUSDC: 100,
		TechTags:   []string{"go"},
		Difficulty: domain.DifficultyBeginner,
		Status:     domain.BountyOpen,
		CreatorID:  creator,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if mutate != nil {
		mutate(&b)
	}
	require.NoError(t, st.Bounties().CreateBounty(context.Background(), b))
	return b
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(context.Background()))
}

func TestUpsertUser(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	first := seedUser(t, st, "octocat")
	require.Equal(t, "octocat", first.Username)

	// Same provider account logs in again with a new login and avatar.
	later := now().Add(time.Second)
	second, err := st.Users().UpsertUser(ctx, domain.User{
		ID:         idx.NewString(), // ignored on conflict
		ProviderID: "gh-octocat",
		Username:   "octocat-renamed",
		Email:      "octocat@example.com",
		AvatarURL:  "https://avatars.example.com/1",
		CreatedAt:  later,
		UpdatedAt:  later,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "octocat-renamed", second.Username)
	require.Equal(t, "https://avatars.example.com/1", second.AvatarURL)
	require.True(t, first.CreatedAt.Equal(second.CreatedAt), "created_at must survive an update")
	require.True(t, later.Equal(second.UpdatedAt))

	got, err := st.Users().GetUserByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, second.Username, got.Username)

	_, err = st.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertUser_EmailTakenByAnotherAccount(t *testing.T) {
	st := newStore(t)
	seedUser(t, st, "octocat")

	ts := now()
	_, err := st.Users().UpsertUser(context.Background(), domain.User{
		ID:         idx.NewString(),
		ProviderID: "gh-someone-else",
		Username:   "impostor",
		Email:      "octocat@example.com",
		CreatedAt:  ts,
		UpdatedAt:  ts,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	u := seedUser(t, st, "octocat")

	ts := now()
	live := domain.RefreshToken{ID: idx.NewString(), UserID: u.ID, TokenHash: "live", ExpiresAt: ts.Add(time.Hour), CreatedAt: ts}
	dead := domain.RefreshToken{ID: idx.NewString(), UserID: u.ID, TokenHash: "dead", ExpiresAt: ts.Add(-time.Hour), CreatedAt: ts}
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, live))
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, dead))

	got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, live.ID, got.ID)
	require.True(t, live.ExpiresAt.Equal(got.ExpiresAt))

	err = st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID: idx.NewString(), UserID: u.ID, TokenHash: "live", ExpiresAt: ts, CreatedAt: ts,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	n, err := st.RefreshTokens().DeleteExpiredRefreshTokens(ctx, ts)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = st.RefreshTokens().DeleteRefreshTokenByHash(ctx, "live")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	// Second delete of the same hash is the replay loser.
	n, err = st.RefreshTokens().DeleteRefreshTokenByHash(ctx, "live")
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "live")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	u := seedUser(t, st, "octocat")

	ts := now()
	boom := fmt.Errorf("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID: idx.NewString(), UserID: u.ID, TokenHash: "h", ExpiresAt: ts.Add(time.Hour), CreatedAt: ts,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "h")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	u := seedUser(t, st, "octocat")

	ts := now()
	require.PanicsWithValue(t, "kaboom", func() {
		_ = st.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
				ID: idx.NewString(), UserID: u.ID, TokenHash: "p", ExpiresAt: ts.Add(time.Hour), CreatedAt: ts,
			}))
			panic("kaboom")
		})
	})

	_, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "p")
	require.ErrorIs(t, err, store.ErrNotFound)

	// The single pooled connection was released.
	require.NoError(t, st.Ping(ctx))
}

func TestWithTx_NoNesting(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	err := st.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Tx(ctx)
		require.Error(t, err)
		require.Error(t, tx.WithTx(ctx, func(store.Tx) error { return nil }))
		return nil
	})
	require.NoError(t, err)
}

func TestOwnership(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	carol := seedUser(t, st, "carol")

	b := seedBounty(t, st, alice.ID, func(b *domain.Bounty) { b.AssigneeID = &bob.ID })
	unassigned := seedBounty(t, st, alice.ID, nil)

	ts := now()
	app := domain.Application{ID: idx.NewString(), BountyID: b.ID, ApplicantID: carol.ID, Status: "pending", CreatedAt: ts}
	sub := domain.Submission{ID: idx.NewString(), BountyID: b.ID, DeveloperID: bob.ID, PRURL: "https://github.com/x/y/pull/1", Status: "pending", CreatedAt: ts}
	ext := domain.ExtensionRequest{ID: idx.NewString(), BountyID: b.ID, DeveloperID: bob.ID, RequestedDeadline: ts.Add(48 * time.Hour), Status: "pending", CreatedAt: ts}
	require.NoError(t, st.Applications().CreateApplication(ctx, app))
	require.NoError(t, st.Submissions().CreateSubmission(ctx, sub))
	require.NoError(t, st.ExtensionRequests().CreateExtensionRequest(ctx, ext))

	o := st.Ownership()
	check := func(ok bool, err error) bool {
		t.Helper()
		require.NoError(t, err)
		return ok
	}

	require.True(t, check(o.IsBountyCreator(ctx, alice.ID, b.ID)))
	require.False(t, check(o.IsBountyCreator(ctx, bob.ID, b.ID)))
	require.False(t, check(o.IsBountyCreator(ctx, alice.ID, "missing")))

	require.True(t, check(o.IsBountyAssignee(ctx, bob.ID, b.ID)))
	require.False(t, check(o.IsBountyAssignee(ctx, alice.ID, b.ID)))
	require.False(t, check(o.IsBountyAssignee(ctx, bob.ID, unassigned.ID)))

	// Participant: creator or assignee, nobody else.
	require.True(t, check(o.IsBountyParticipant(ctx, alice.ID, b.ID)))
	require.True(t, check(o.IsBountyParticipant(ctx, bob.ID, b.ID)))
	require.False(t, check(o.IsBountyParticipant(ctx, carol.ID, b.ID)))
	require.False(t, check(o.IsBountyParticipant(ctx, bob.ID, unassigned.ID)))
	require.False(t, check(o.IsBountyParticipant(ctx, alice.ID, "missing")))

	require.True(t, check(o.IsApplicationOwner(ctx, carol.ID, app.ID)))
	require.False(t, check(o.IsApplicationOwner(ctx, alice.ID, app.ID)))

	require.True(t, check(o.IsSubmissionOwner(ctx, bob.ID, sub.ID)))
	require.False(t, check(o.IsSubmissionOwner(ctx, carol.ID, sub.ID)))

	require.True(t, check(o.IsExtensionRequestOwner(ctx, bob.ID, ext.ID)))
	require.False(t, check(o.IsExtensionRequestOwner(ctx, alice.ID, ext.ID)))
}

func TestListBounties_Filters(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")

	goBounty := seedBounty(t, st, alice.ID, func(b *domain.Bounty) {
		b.TechTags = []string{"Go", "sqlite"}
		b.AmountUSDC = 50
	})
	reactBounty := seedBounty(t, st, alice.ID, func(b *domain.Bounty) {
		b.TechTags = []string{"react"}
		b.Difficulty = domain.DifficultyAdvanced
		b.AmountUSDC = 500
		b.AssigneeID = &bob.ID
		b.Status = domain.BountyAssigned
	})

	list := func(f domain.BountyFilter) []string {
		t.Helper()
		got, err := st.Bounties().ListBounties(ctx, f, nil, 10)
		require.NoError(t, err)
		ids := make([]string, len(got))
		for i, b := range got {
			ids[i] = b.ID
		}
		return ids
	}

	require.ElementsMatch(t, []string{goBounty.ID, reactBounty.ID}, list(domain.BountyFilter{}))
	require.Equal(t, []string{goBounty.ID}, list(domain.BountyFilter{TechStack: []string{"go"}}))
	require.ElementsMatch(t, []string{goBounty.ID, reactBounty.ID}, list(domain.BountyFilter{TechStack: []string{"react", "SQLITE"}}))
	require.Equal(t, []string{reactBounty.ID}, list(domain.BountyFilter{Difficulty: domain.DifficultyAdvanced}))
	require.Equal(t, []string{reactBounty.ID}, list(domain.BountyFilter{Status: domain.BountyAssigned}))
	require.Equal(t, []string{reactBounty.ID}, list(domain.BountyFilter{AssigneeID: bob.ID}))

	minAmount, maxAmount := 100.0, 100.0
	require.Equal(t, []string{reactBounty.ID}, list(domain.BountyFilter{AmountMin: &minAmount}))
	require.Equal(t, []string{goBounty.ID}, list(domain.BountyFilter{AmountMax: &maxAmount}))
	require.Empty(t, list(domain.BountyFilter{CreatorID: bob.ID}))

	got, err := st.Bounties().GetBountyByID(ctx, goBounty.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"Go", "sqlite"}, got.TechTags)
}

func TestListBounties_KeysetWalk(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	alice := seedUser(t, st, "alice")

	// Groups of bounties share a created_at so the id tie-breaker matters.
	base := now()
	want := map[string]bool{}
	for i := range 23 {
		b := seedBounty(t, st, alice.ID, func(b *domain.Bounty) {
			b.CreatedAt = base.Add(time.Duration(i/4) * time.Millisecond)
			b.UpdatedAt = b.CreatedAt
		})
		want[b.ID] = true
	}

	const limit = 5
	seen := map[string]bool{}
	var after *pagex.Cursor
	var prev *domain.Bounty

	for {
		rows, err := st.Bounties().ListBounties(ctx, domain.BountyFilter{}, after, limit+1)
		require.NoError(t, err)

		page := pagex.NewPage(rows, limit, func(b domain.Bounty) pagex.Cursor {
			return pagex.Cursor{OrderingKey: b.CreatedAt, ID: b.ID}
		})
		for i := range page.Data {
			b := page.Data[i]
			require.False(t, seen[b.ID], "duplicate %s", b.ID)
			seen[b.ID] = true
			if prev != nil {
				// Strictly descending by (created_at, id).
				require.True(t, b.CreatedAt.Before(prev.CreatedAt) ||
					(b.CreatedAt.Equal(prev.CreatedAt) && b.ID < prev.ID))
			}
			prev = &b
		}

		if !page.HasMore {
			break
		}
		c, err := pagex.Decode(*page.NextCursor)
		require.NoError(t, err)
		after = &c
	}

	require.Equal(t, want, seen)
}

func TestBountyUpdates(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	alice := seedUser(t, st, "alice")
	b := seedBounty(t, st, alice.ID, nil)

	title := "A better title"
	tags := []string{"rust"}
	later := now().Add(time.Minute)
	require.NoError(t, st.Bounties().UpdateBounty(ctx, b.ID, domain.BountyUpdate{Title: &title, TechTags: &tags}, later))

	got, err := st.Bounties().GetBountyByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, title, got.Title)
	require.Equal(t, tags, got.TechTags)
	require.Equal(t, b.Description, got.Description)
	require.True(t, later.Equal(got.UpdatedAt))

	require.NoError(t, st.Bounties().SetBountyStatus(ctx, b.ID, domain.BountyInReview, later))
	got, err = st.Bounties().GetBountyByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BountyInReview, got.Status)

	require.ErrorIs(t, st.Bounties().SetBountyStatus(ctx, "missing", domain.BountyInReview, later), store.ErrNotFound)
	_, err = st.Bounties().GetBountyByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMessagesAndWorkflow(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	b := seedBounty(t, st, alice.ID, func(b *domain.Bounty) { b.AssigneeID = &bob.ID })

	base := now()
	for i := range 3 {
		require.NoError(t, st.Messages().CreateMessage(ctx, domain.Message{
			ID:          idx.NewString(),
			BountyID:    b.ID,
			SenderID:    alice.ID,
			RecipientID: bob.ID,
			Content:     fmt.Sprintf("ping %d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	msgs, err := st.Messages().ListMessages(ctx, b.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "ping 2", msgs[0].Content)

	after := pagex.Cursor{OrderingKey: msgs[1].CreatedAt, ID: msgs[1].ID}
	rest, err := st.Messages().ListMessages(ctx, b.ID, &after, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, "ping 0", rest[0].Content)
	require.Nil(t, rest[0].ReadAt)

	sub := domain.Submission{ID: idx.NewString(), BountyID: b.ID, DeveloperID: bob.ID, PRURL: "https://github.com/a/b/pull/1", Status: "pending", CreatedAt: base}
	require.NoError(t, st.Submissions().CreateSubmission(ctx, sub))

	notes := "rebased on main"
	updated, err := st.Submissions().UpdateSubmission(ctx, sub.ID, domain.SubmissionUpdate{Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, notes, updated.Notes)
	require.Equal(t, sub.PRURL, updated.PRURL)

	_, err = st.Submissions().UpdateSubmission(ctx, "missing", domain.SubmissionUpdate{Notes: &notes})
	require.ErrorIs(t, err, store.ErrNotFound)

	app := domain.Application{ID: idx.NewString(), BountyID: b.ID, ApplicantID: bob.ID, Status: "pending", CreatedAt: base}
	require.NoError(t, st.Applications().CreateApplication(ctx, app))
	require.NoError(t, st.Applications().DeleteApplication(ctx, app.ID))
	require.ErrorIs(t, st.Applications().DeleteApplication(ctx, app.ID), store.ErrNotFound)

	ext := domain.ExtensionRequest{ID: idx.NewString(), BountyID: b.ID, DeveloperID: bob.ID, RequestedDeadline: base.Add(time.Hour), Status: "pending", CreatedAt: base}
	require.NoError(t, st.ExtensionRequests().CreateExtensionRequest(ctx, ext))
	require.NoError(t, st.ExtensionRequests().DeleteExtensionRequest(ctx, ext.ID))
	require.ErrorIs(t, st.ExtensionRequests().DeleteExtensionRequest(ctx, ext.ID), store.ErrNotFound)
}
