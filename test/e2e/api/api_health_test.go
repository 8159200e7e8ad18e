package api_test

import (
	"testing"

	"github.com/devasign/devasign/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	baseURL, _ := setupAPIContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)

	health, err = client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.Equal(t, "ok", health.Checks.Database)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "EdDSA", jwks.Keys[0].Alg)
}

// TestKeylessInstance verifies a deployment without keys boots, reports
// degraded and answers token operations with 500.
func TestKeylessInstance(t *testing.T) {
	baseURL, gh := setupAPIContainerWithEnv(t, map[string]string{"AUTH_KEY_MODE": "static"})
	client := authsdk.NewSDKClient(baseURL)

	health, err := client.GetReadiness(t.Context())
	require.True(t, authsdk.IsStatus(err, 503), "readyz should be 503, got %v", err)
	require.Equal(t, "degraded", health.Status)

	gh.register("code-octocat", octocat)
	redirect, err := client.BeginLogin(t.Context(), "github")
	require.NoError(t, err)

	_, err = client.CompleteLogin(t.Context(), "github", "code-octocat", redirect.State)
	require.True(t, authsdk.IsStatus(err, 500), "expected a configuration error, got %v", err)
}
