package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/devasign/devasign/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for the API end-to-end tests.
 * The API runs in a container; GitHub is faked by a server on the host
 * which the container reaches through testcontainers' host port forwarding.
 */

const (
	testImageName = "devasign-api-test:latest"
	testIssuer    = "devasign-api"
)

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building API Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up API Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/api/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// fakeGitHub answers the OAuth token exchange and the two profile calls.
// Every code is accepted; the code picks which account logs in.
type fakeGitHub struct {
	mu    sync.Mutex
	users map[string]githubUser // by code
}

type githubUser struct {
	ID    int64
	Login string
	Email string
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{users: map[string]githubUser{}}
}

// register makes code log in as u.
func (f *fakeGitHub) register(code string, u githubUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[code] = u
}

func (f *fakeGitHub) lookup(key string) (githubUser, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[key]
	return u, ok
}

func (f *fakeGitHub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		code := r.PostForm.Get("code")
		if _, ok := f.lookup(code); !ok {
			writeJSON(w, http.StatusOK, map[string]string{"error": "bad_verification_code"})
			return
		}
		// The access token is the code, so /user knows who is asking.
		writeJSON(w, http.StatusOK, map[string]string{"access_token": code, "token_type": "bearer"})
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		u, ok := f.lookup(bearer(r))
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "login": u.Login, "name": u.Login})
	})
	mux.HandleFunc("GET /user/emails", func(w http.ResponseWriter, r *http.Request) {
		u, ok := f.lookup(bearer(r))
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"email": u.Email, "primary": true, "verified": true}})
	})
	return mux
}

func bearer(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) {
		return h[len(prefix):]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// apiEnv is the container environment shared by every test.
func apiEnv(githubURL string) map[string]string {
	return map[string]string{
		"AUTH_ISSUER":          testIssuer,
		"AUTH_ALGORITHM":       "EdDSA",
		"AUTH_KEY_MODE":        "ephemeral",
		"GITHUB_CLIENT_ID":     "e2e-client",
		"GITHUB_CLIENT_SECRET": "e2e-secret",
		"GITHUB_CALLBACK_URL":  "http://localhost:8080/auth/github/callback",
		"GITHUB_OAUTH_URL":     githubURL,
		"GITHUB_API_URL":       githubURL,
		"ENV":                  "test",
		"LOG_LEVEL":            "info",
		"LOG_FORMAT":           "json",
		// Tests make many rapid requests which would otherwise hit the strict production limits
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
}

// setupAPIContainer starts a fake GitHub on the host and the API in a
// container wired to it. It returns the API base URL and the fake.
func setupAPIContainer(t *testing.T) (string, *fakeGitHub) {
	t.Helper()
	return setupAPIContainerWithEnv(t, nil)
}

func setupAPIContainerWithEnv(t *testing.T, overrides map[string]string) (string, *fakeGitHub) {
	t.Helper()
	ctx := context.Background()

	gh := newFakeGitHub()
	ghServer := httptest.NewServer(gh.handler())
	t.Cleanup(ghServer.Close)

	_, portStr, err := net.SplitHostPort(ghServer.Listener.Addr().String())
	require.NoError(t, err)
	ghPort, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	env := apiEnv(fmt.Sprintf("http://%s:%d", testcontainers.HostInternal, ghPort))
	for k, v := range overrides {
		if v == "" {
			delete(env, k)
			continue
		}
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:           testImageName,
		ExposedPorts:    []string{"8080/tcp"},
		HostAccessPorts: []int{ghPort},
		Env:             env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port()), gh
}

// performLogin runs the GitHub handshake for u and returns the session.
func performLogin(t *testing.T, client *authsdk.SDKClient, gh *fakeGitHub, u githubUser) *authsdk.Session {
	t.Helper()
	ctx := context.Background()

	code := "code-" + u.Login
	gh.register(code, u)

	redirect, err := client.BeginLogin(ctx, "github")
	require.NoError(t, err, "BeginLogin should succeed")

	session, err := client.CompleteLogin(ctx, "github", code, redirect.State)
	require.NoError(t, err, "Login should succeed")
	require.NotNil(t, session, "Session should not be nil")

	return session
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

var (
	octocat = githubUser{ID: 583231, Login: "octocat", Email: "octocat@github.com"}
	hubot   = githubUser{ID: 480938, Login: "hubot", Email: "hubot@github.com"}
)
