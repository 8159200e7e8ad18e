package app

import (
	"testing"
	"time"

	"github.com/devasign/devasign/internal/api/provider"
	"github.com/devasign/devasign/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, "devasign-api", cfg.Issuer)
	require.Empty(t, cfg.Audience)
	require.Equal(t, jwtx.AlgorithmRS256, cfg.Algorithm)
	require.Equal(t, KeyModeStatic, cfg.KeyMode)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 720*time.Hour, cfg.RefreshTTL)
	require.Equal(t, provider.DefaultGitHubScopes, cfg.GitHubScopes)
	require.Equal(t, "devasign.db", cfg.DatabaseFile)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.False(t, cfg.Production())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("AUTH_ISSUER", "https://api.devasign.test")
	t.Setenv("AUTH_AUDIENCE", "web, mobile,")
	t.Setenv("AUTH_ALGORITHM", "EdDSA")
	t.Setenv("AUTH_ACCESS_TTL", "5m")
	t.Setenv("AUTH_REFRESH_TTL", "90") // bare minutes
	t.Setenv("GITHUB_SCOPES", "read:user")
	t.Setenv("PORT", "not-a-number")
	t.Setenv("ENV", "prod")

	cfg := LoadConfig()

	require.Equal(t, "https://api.devasign.test", cfg.Issuer)
	require.Equal(t, []string{"web", "mobile"}, cfg.Audience)
	require.Equal(t, jwtx.AlgorithmEdDSA, cfg.Algorithm)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.Equal(t, 90*time.Minute, cfg.RefreshTTL)
	require.Equal(t, []string{"read:user"}, cfg.GitHubScopes)
	require.Equal(t, 8080, cfg.Port, "unparsable values fall back to the default")
	require.True(t, cfg.Production())
}
