package slogx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warning"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
	require.Equal(t, slog.LevelWarn, parseLevel(" warn "))
}

func TestNew_RedactsCredentials(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := New(Config{Service: "devasign-api", Version: "test", Env: "prod", Level: "info", Output: &buf})
	require.Same(t, logger, slog.Default())

	logger.Info("token issued", "refresh_token", "secret-value", "Code", "gh-code", "user_id", "u1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, Redacted, line["refresh_token"])
	require.Equal(t, Redacted, line["Code"])
	require.Equal(t, "u1", line["user_id"])
	require.Equal(t, "devasign-api", line["service"])
	require.Equal(t, "prod", line["env"])
	require.NotContains(t, buf.String(), "secret-value")
}

func TestNew_TextFormatAndLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := New(Config{Service: "svc", Format: "TEXT", Level: "error", Output: &buf})

	logger.Warn("dropped")
	require.Empty(t, buf.String())

	logger.Error("kept", "state", "xyz")
	require.Contains(t, buf.String(), "msg=kept")
	require.Contains(t, buf.String(), "state="+Redacted)
}

func TestAccessLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, accessLevel("/livez", http.StatusOK))
	require.Equal(t, slog.LevelInfo, accessLevel("/api/me", http.StatusOK))
	require.Equal(t, slog.LevelInfo, accessLevel("/api/me", http.StatusForbidden))
	require.Equal(t, slog.LevelWarn, accessLevel("/auth/refresh", http.StatusTooManyRequests))
	require.Equal(t, slog.LevelError, accessLevel("/readyz", http.StatusServiceUnavailable))
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	require.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestWithUserID(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), newBufferLogger(&buf))
	ctx = WithUserID(ctx, "01J0000000000000000000000")

	FromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "01J0000000000000000000000", line["user_id"])
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := newBufferLogger(&buf)

	h := HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The request logger must be reachable from handlers.
		FromContext(r.Context()).Debug("inside handler")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	t.Run("generates a request id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

		require.Equal(t, http.StatusTeapot, rec.Code)
		require.NotEmpty(t, rec.Header().Get(RequestIDHeader))

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 2)

		var access map[string]any
		require.NoError(t, json.Unmarshal(lines[1], &access))
		require.Equal(t, "http_request", access["msg"])
		require.EqualValues(t, http.StatusTeapot, access["status"])
		require.EqualValues(t, len("short and stout"), access["bytes"])
		require.Equal(t, "/livez", access["path"])
		require.Equal(t, rec.Header().Get(RequestIDHeader), access["req_id"])
	})

	t.Run("keeps the caller's request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
		require.Contains(t, buf.String(), `"req_id":"abc-123"`)
	})
}
