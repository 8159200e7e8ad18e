package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/devasign/devasign/internal/api/domain"
	apihttp "github.com/devasign/devasign/internal/api/http"
	"github.com/devasign/devasign/internal/api/service"
	"github.com/devasign/devasign/internal/api/store/drivers/sqlite"
	"github.com/devasign/devasign/pkg/authsdk"
	"github.com/devasign/devasign/pkg/idx"
	"github.com/devasign/devasign/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "devasign-test"

type fakeProvider struct {
	profile domain.Profile
}

func (f *fakeProvider) Name() string { return "github" }

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://github.example/login/oauth/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) FetchProfile(context.Context, string) (domain.Profile, error) {
	return f.profile, nil
}

type testAPI struct {
	router *apihttp.Router
	store  *sqlite.Store
	keys   *jwtx.KeyManager
}

func newTestAPI(t *testing.T, keys *jwtx.KeyManager) *testAPI {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	if keys == nil {
		keys, err = jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
			Algorithm: jwtx.AlgorithmES256,
			Issuer:    testIssuer,
		})
		require.NoError(t, err)
	}

	sessions := &service.SessionService{Store: st, KeyManager: keys, Issuer: testIssuer}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := apihttp.NewRouter(apihttp.RouterConfig{
		Keys:    keys,
		Store:   st,
		Logger:  logger,
		Version: "test",
		Services: apihttp.Services{
			Handshake: &service.HandshakeService{
				Provider: &fakeProvider{profile: domain.Profile{
					ProviderID:    "583231",
					Username:      "octocat",
					Email:         "octocat@github.com",
					EmailVerified: true,
				}},
				Store:    st,
				Sessions: sessions,
			},
			Sessions: sessions,
			Users:    &service.UserService{Store: st},
			Bounties: &service.BountyService{Store: st},
			Messages: &service.MessageService{Store: st},
			Workflow: &service.WorkflowService{Store: st},
		},
	})

	return &testAPI{router: r, store: st, keys: keys}
}

func (a *testAPI) do(t *testing.T, method, target, token string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, target, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// login runs the full handshake and returns the session.
func (a *testAPI) login(t *testing.T) authsdk.LoginResponse {
	t.Helper()

	begin := a.do(t, http.MethodGet, "/auth/github", "", nil)
	require.Equal(t, http.StatusFound, begin.Code)
	cookie := stateCookie(t, begin)

	rec := a.do(t, http.MethodGet, "/auth/github/callback?code=abc&state="+url.QueryEscape(cookie.Value), "", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out authsdk.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// token mints an access token for an arbitrary stored user.
func (a *testAPI) token(t *testing.T, u domain.User) string {
	t.Helper()
	tok, err := a.keys.Sign(jwtx.NewAccessClaims(u.ID, u.Username, testIssuer, nil, time.Minute, time.Now()))
	require.NoError(t, err)
	return tok
}

func (a *testAPI) seedUser(t *testing.T, login string) domain.User {
	t.Helper()
	ts := time.Now().UTC().Truncate(time.Millisecond)
	u, err := a.store.Users().UpsertUser(context.Background(), domain.User{
		ID: idx.NewString(), ProviderID: "gh-" + login, Username: login,
		Email: login + "@example.com", CreatedAt: ts, UpdatedAt: ts,
	})
	require.NoError(t, err)
	return u
}

func stateCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == apihttp.StateCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", apihttp.StateCookieName)
	return nil
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestBegin_SetsStateCookie(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/auth/github", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)

	c := stateCookie(t, rec)
	require.Len(t, c.Value, 43)
	require.True(t, c.HttpOnly)
	require.Equal(t, "/auth/github/callback", c.Path)
	require.Equal(t, 600, c.MaxAge)
	require.Equal(t, http.SameSiteLaxMode, c.SameSite)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, c.Value, loc.Query().Get("state"))
}

func TestBegin_UnknownProvider(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/auth/gitlab", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Unknown provider", errorMessage(t, rec))
}

func TestCallback(t *testing.T) {
	t.Run("success clears the cookie", func(t *testing.T) {
		api := newTestAPI(t, nil)
		begin := api.do(t, http.MethodGet, "/auth/github", "", nil)
		cookie := stateCookie(t, begin)

		rec := api.do(t, http.MethodGet, "/auth/github/callback?code=abc&state="+cookie.Value, "", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		cleared := stateCookie(t, rec)
		require.Empty(t, cleared.Value)
		require.Less(t, cleared.MaxAge, 0)
		require.Equal(t, "/auth/github/callback", cleared.Path)

		var out authsdk.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Equal(t, "octocat", out.User.Username)
		require.NotEmpty(t, out.Token)
		require.NotEmpty(t, out.RefreshToken)
	})

	cases := []struct {
		name   string
		query  string
		cookie string
		want   string
	}{
		{"missing code", "?state=s1", "s1", "Authorization code missing"},
		{"state mismatch", "?code=abc&state=s1", "s2", "Invalid state"},
		{"no cookie", "?code=abc&state=s1", "", "Invalid state"},
		{"no state", "?code=abc", "s1", "Invalid state"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			var cookies []*http.Cookie
			if tc.cookie != "" {
				cookies = append(cookies, &http.Cookie{Name: apihttp.StateCookieName, Value: tc.cookie})
			}

			rec := api.do(t, http.MethodGet, "/auth/github/callback"+tc.query, "", nil, cookies...)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, tc.want, errorMessage(t, rec))
			require.Less(t, stateCookie(t, rec).MaxAge, 0, "cookie is cleared on failure too")
		})
	}
}

func TestRefreshAndLogout(t *testing.T) {
	api := newTestAPI(t, nil)
	first := api.login(t)

	// A1/R1 -> A2/R2
	rec := api.do(t, http.MethodPost, "/auth/refresh", "", authsdk.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var second authsdk.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	me := api.do(t, http.MethodGet, "/api/me", second.Token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	var user authsdk.User
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &user))
	require.Equal(t, first.User.ID, user.ID)

	// R1 is spent.
	rec = api.do(t, http.MethodPost, "/auth/refresh", "", authsdk.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid refresh token", errorMessage(t, rec))

	rec = api.do(t, http.MethodPost, "/auth/refresh", "", authsdk.RefreshTokenRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Refresh token is required", errorMessage(t, rec))

	rec = api.do(t, http.MethodPost, "/auth/refresh", "", "not an object")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid request body", errorMessage(t, rec))

	// Logout is idempotent.
	for range 2 {
		rec = api.do(t, http.MethodPost, "/auth/logout", "", authsdk.RefreshTokenRequest{RefreshToken: second.RefreshToken})
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"success":true}`, rec.Body.String())
	}

	rec = api.do(t, http.MethodPost, "/auth/logout", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Refresh token is required", errorMessage(t, rec))

	rec = api.do(t, http.MethodPost, "/auth/refresh", "", authsdk.RefreshTokenRequest{RefreshToken: second.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatedRoutes(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/bounties", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Missing or invalid Authorization header", errorMessage(t, rec))

	other, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmES256, Issuer: testIssuer})
	require.NoError(t, err)
	forged, err := other.Sign(jwtx.NewAccessClaims("someone", "", testIssuer, nil, time.Minute, time.Now()))
	require.NoError(t, err)

	rec = api.do(t, http.MethodGet, "/api/bounties", forged, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid or expired token", errorMessage(t, rec))

	// A valid token for a user that no longer exists.
	ghost := api.token(t, domain.User{ID: idx.NewString(), Username: "ghost"})
	rec = api.do(t, http.MethodGet, "/api/me", ghost, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "User not found", errorMessage(t, rec))
}

func TestBountyRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := api.seedUser(t, "alice")
	bob := api.seedUser(t, "bob")
	carol := api.seedUser(t, "carol")
	aliceTok, bobTok, carolTok := api.token(t, alice), api.token(t, bob), api.token(t, carol)

	// Create three bounties as alice.
	var ids []string
	for i := range 3 {
		rec := api.do(t, http.MethodPost, "/api/bounties", aliceTok, authsdk.CreateBountyRequest{
			Title:      "bounty " + string(rune('A'+i)),
			AmountUSDC: 50,
			TechTags:   []string{"go"},
			Difficulty: "beginner",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var b authsdk.Bounty
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
		require.Equal(t, alice.ID, b.CreatorID)
		ids = append(ids, b.ID)
	}

	// Page through two at a time.
	rec := api.do(t, http.MethodGet, "/api/bounties?limit=2", carolTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page authsdk.Page[authsdk.Bounty]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 2)
	require.True(t, page.Meta.HasMore)
	require.Equal(t, 2, page.Meta.Count)
	require.NotNil(t, page.Meta.NextCursor)

	rec = api.do(t, http.MethodGet, "/api/bounties?limit=2&cursor="+url.QueryEscape(*page.Meta.NextCursor), carolTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var last authsdk.Page[authsdk.Bounty]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &last))
	require.Len(t, last.Data, 1)
	require.False(t, last.Meta.HasMore)
	require.Nil(t, last.Meta.NextCursor)
	require.Contains(t, rec.Body.String(), `"next_cursor":null`)

	rec = api.do(t, http.MethodGet, "/api/bounties?cursor=garbage", carolTok, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid cursor", errorMessage(t, rec))

	rec = api.do(t, http.MethodGet, "/api/bounties?difficulty=legendary", carolTok, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/bounties/"+idx.NewString(), carolTok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Bounty not found", errorMessage(t, rec))

	// Only the creator may edit.
	title := "renamed"
	rec = api.do(t, http.MethodPatch, "/api/bounties/"+ids[0], bobTok, authsdk.UpdateBountyRequest{Title: &title})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Forbidden: You must be the bounty creator", errorMessage(t, rec))

	rec = api.do(t, http.MethodPatch, "/api/bounties/"+ids[0], aliceTok, authsdk.UpdateBountyRequest{Title: &title})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"message":"Bounty updated"}`, rec.Body.String())

	// A missing bounty looks exactly like someone else's.
	rec = api.do(t, http.MethodPatch, "/api/bounties/"+idx.NewString(), aliceTok, authsdk.UpdateBountyRequest{Title: &title})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// An assigned bounty: only bob can complete and only alice or bob can chat.
	ts := time.Now().UTC().Truncate(time.Millisecond)
	assigned := domain.Bounty{
		ID: idx.NewString(), Title: "assigned", AmountUSDC: 10, TechTags: []string{},
		Difficulty: domain.DifficultyBeginner, Status: domain.BountyAssigned,
		CreatorID: alice.ID, AssigneeID: &bob.ID, CreatedAt: ts, UpdatedAt: ts,
	}
	require.NoError(t, api.store.Bounties().CreateBounty(context.Background(), assigned))
	ids[0] = assigned.ID

	rec = api.do(t, http.MethodPost, "/api/bounties/"+ids[0]+"/complete", aliceTok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Forbidden: You must be the assigned developer", errorMessage(t, rec))

	rec = api.do(t, http.MethodPost, "/api/bounties/"+ids[0]+"/complete", bobTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"message":"Bounty submitted for review"}`, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/bounties/"+ids[0]+"/messages", carolTok, authsdk.PostMessageRequest{Content: "hi"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Forbidden: You must be a bounty participant", errorMessage(t, rec))

	rec = api.do(t, http.MethodPost, "/api/bounties/"+ids[0]+"/messages", bobTok, authsdk.PostMessageRequest{Content: "PR is up"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/bounties/"+ids[0]+"/messages", aliceTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs authsdk.Page[authsdk.Message]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs.Data, 1)
	require.Equal(t, alice.ID, msgs.Data[0].RecipientID)
}

func TestWorkflowRoutes(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t, nil)
	alice := api.seedUser(t, "alice")
	bob := api.seedUser(t, "bob")
	ts := time.Now().UTC().Truncate(time.Millisecond)

	b := domain.Bounty{
		ID: idx.NewString(), Title: "t", AmountUSDC: 1, TechTags: []string{},
		Difficulty: domain.DifficultyBeginner, Status: domain.BountyAssigned,
		CreatorID: alice.ID, AssigneeID: &bob.ID, CreatedAt: ts, UpdatedAt: ts,
	}
	require.NoError(t, api.store.Bounties().CreateBounty(ctx, b))

	app := domain.Application{ID: idx.NewString(), BountyID: b.ID, ApplicantID: bob.ID, Status: "pending", CreatedAt: ts}
	sub := domain.Submission{ID: idx.NewString(), BountyID: b.ID, DeveloperID: bob.ID, PRURL: "https://github.com/a/b/pull/1", Status: "pending", CreatedAt: ts}
	ext := domain.ExtensionRequest{ID: idx.NewString(), BountyID: b.ID, DeveloperID: bob.ID, RequestedDeadline: ts.Add(time.Hour), Status: "pending", CreatedAt: ts}
	require.NoError(t, api.store.Applications().CreateApplication(ctx, app))
	require.NoError(t, api.store.Submissions().CreateSubmission(ctx, sub))
	require.NoError(t, api.store.ExtensionRequests().CreateExtensionRequest(ctx, ext))

	aliceTok, bobTok := api.token(t, alice), api.token(t, bob)

	rec := api.do(t, http.MethodDelete, "/api/applications/"+app.ID, aliceTok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Forbidden: You must be the application owner", errorMessage(t, rec))
	rec = api.do(t, http.MethodDelete, "/api/applications/"+app.ID, bobTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"message":"Application withdrawn"}`, rec.Body.String())

	notes := "addressed review"
	rec = api.do(t, http.MethodPatch, "/api/submissions/"+sub.ID, aliceTok, authsdk.UpdateSubmissionRequest{Notes: &notes})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Forbidden: You must be the submission owner", errorMessage(t, rec))
	rec = api.do(t, http.MethodPatch, "/api/submissions/"+sub.ID, bobTok, authsdk.UpdateSubmissionRequest{Notes: &notes})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated authsdk.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, notes, updated.Notes)

	rec = api.do(t, http.MethodDelete, "/api/extension-requests/"+ext.ID, aliceTok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Forbidden: You must be the extension request owner", errorMessage(t, rec))
	rec = api.do(t, http.MethodDelete, "/api/extension-requests/"+ext.ID, bobTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"message":"Extension request cancelled"}`, rec.Body.String())
}

func TestSystemRoutes(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/.well-known/jwks.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var jwks authsdk.JWKSResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jwks))
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "ES256", jwks.Keys[0].Alg)
	require.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
}

func TestKeylessInstance(t *testing.T) {
	keyless, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmRS256, Issuer: testIssuer})
	require.NoError(t, err)
	api := newTestAPI(t, keyless)

	rec := api.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var health authsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "degraded", health.Status)
	require.Contains(t, health.Checks.Signer, "error")

	// Misconfiguration is a 500, never a 401.
	rec = api.do(t, http.MethodGet, "/api/me", "some.jwt.token", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal server configuration error", errorMessage(t, rec))

	begin := api.do(t, http.MethodGet, "/auth/github", "", nil)
	cookie := stateCookie(t, begin)
	rec = api.do(t, http.MethodGet, "/auth/github/callback?code=abc&state="+cookie.Value, "", nil, cookie)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal server configuration error", errorMessage(t, rec))
}
