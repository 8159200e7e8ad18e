/*
Package authsdk provides a client SDK for the Devasign API.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: public endpoints, the login handshake and token rotation
  - Session: authenticated calls with automatic token rotation

Create an SDKClient to talk to public endpoints:

	client := authsdk.NewSDKClient("https://api.devasign.com")

	health, err := client.GetReadiness(ctx)
	jwks, err := client.GetJWKS(ctx)

# Logging In

Logins go through GitHub. A browser follows the redirects on its own; a CLI
or a test drives the two legs itself:

	redirect, err := client.BeginLogin(ctx, "github")
	// send the user to redirect.URL, receive ?code=...&state=... back
	session, err := client.CompleteLogin(ctx, "github", code, redirect.State)

A session can also be rebuilt from stored tokens:

	session := client.NewSessionFromTokens(accessToken, refreshToken)

# Token Rotation

Access tokens live for minutes. Before every call the Session reads the
exp claim of its access token and, when it is within RefreshSkew of
expiring, spends the refresh token at /auth/refresh for a new pair.

Refresh tokens are single use. After any call that may have rotated the
pair, persist Session.RefreshToken(); the previous one is dead. Two
processes sharing one refresh token will race and one of them gets a 401.

# Error Handling

Non-2xx answers come back as *APIError carrying the status code and the
server's message:

	_, err := session.GetBounty(ctx, id)
	switch {
	case authsdk.IsUnauthorized(err):
		// log in again
	case authsdk.IsForbidden(err):
		// not the creator, assignee or owner
	}

# Thread Safety

Sessions are safe for concurrent use. Rotation happens under a write lock,
so concurrent callers never spend the same refresh token twice.
*/
package authsdk
