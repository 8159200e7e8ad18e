package authsdk

import (
	"context"

	"github.com/devasign/devasign/pkg/jwtx"
)

// GetJWKS fetches the keys that verify access tokens.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	var jwks JWKSResponse
	if err := c.send(ctx, get("/.well-known/jwks.json", &jwks)); err != nil {
		return nil, err
	}
	return &jwks, nil
}

// NewVerifier fetches the published keys and returns a verifier for access
// tokens from this API, for services that only consume them.
func (c *SDKClient) NewVerifier(ctx context.Context, alg, issuer string, aud []string) (jwtx.Verifier, error) {
	jwks, err := c.GetJWKS(ctx)
	if err != nil {
		return nil, err
	}

	keys := jwtx.NewKeySet()
	if err := keys.ResetFromJWKS(jwtx.JWKS(*jwks)); err != nil {
		return nil, err
	}
	return jwtx.NewVerifier(keys, alg, issuer, aud), nil
}
