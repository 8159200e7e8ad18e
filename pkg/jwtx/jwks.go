package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/devasign/devasign/pkg/cryptox"
)

// JWK represents a public key in JSON Web Key format (RFC 7517).
type JWK struct {
	Kty string `json:"kty"`           // "RSA", "EC" or "OKP"
	Use string `json:"use,omitempty"` // always "sig" for us
	Alg string `json:"alg,omitempty"` // "RS256", "ES256" or "EdDSA"
	Kid string `json:"kid,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// EC / OKP
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// JWKS is a JSON Web Key Set (RFC 7517).
type JWKS struct {
	Keys []JWK `json:"keys"`
}

var errUnsupportedJWK = errors.New("jwtx: unsupported key")

// NewJWK builds the public JWK for pub. When kid is empty the RFC 7638
// thumbprint is used, which is what lets a verifier in another process
// agree on the kid without sharing anything but the public key.
func NewJWK(kid, alg string, pub crypto.PublicKey) (JWK, error) {
	var j JWK
	switch k := pub.(type) {
	case *rsa.PublicKey:
		j = JWK{
			Kty: "RSA",
			N:   b64(k.N.Bytes()),
			E:   b64(big.NewInt(int64(k.E)).Bytes()),
		}
	case *ecdsa.PublicKey:
		if k.Curve.Params().Name != "P-256" {
			return JWK{}, fmt.Errorf("%w: EC curve %s", errUnsupportedJWK, k.Curve.Params().Name)
		}
		// P-256 coordinates are fixed 32 byte big-endian values.
		x := make([]byte, 32)
		y := make([]byte, 32)
		k.X.FillBytes(x)
		k.Y.FillBytes(y)
		j = JWK{Kty: "EC", Crv: "P-256", X: b64(x), Y: b64(y)}
	case ed25519.PublicKey:
		j = JWK{Kty: "OKP", Crv: "Ed25519", X: b64(k)}
	default:
		return JWK{}, fmt.Errorf("%w: %T", errUnsupportedJWK, pub)
	}

	j.Use = "sig"
	j.Alg = alg
	j.Kid = kid
	if j.Kid == "" {
		tp, err := j.Thumbprint()
		if err != nil {
			return JWK{}, err
		}
		j.Kid = tp
	}
	return j, nil
}

// Thumbprint computes the RFC 7638 SHA-256 thumbprint of the key: the
// required members in lexicographic order, no whitespace, then hashed.
func (j JWK) Thumbprint() (string, error) {
	var canonical string
	switch j.Kty {
	case "RSA":
		canonical = fmt.Sprintf(`{"e":%q,"kty":"RSA","n":%q}`, j.E, j.N)
	case "EC":
		canonical = fmt.Sprintf(`{"crv":%q,"kty":"EC","x":%q,"y":%q}`, j.Crv, j.X, j.Y)
	case "OKP":
		canonical = fmt.Sprintf(`{"crv":%q,"kty":"OKP","x":%q}`, j.Crv, j.X)
	default:
		return "", fmt.Errorf("%w: kty %q", errUnsupportedJWK, j.Kty)
	}
	sum := sha256.Sum256([]byte(canonical))
	return b64(sum[:]), nil
}

// PublicKey converts the JWK back into a crypto public key.
func (j JWK) PublicKey() (crypto.PublicKey, error) {
	switch j.Kty {
	case "RSA":
		nb, err := base64.RawURLEncoding.DecodeString(j.N)
		if err != nil {
			return nil, err
		}
		eb, err := base64.RawURLEncoding.DecodeString(j.E)
		if err != nil {
			return nil, err
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(nb),
			E: int(new(big.Int).SetBytes(eb).Int64()),
		}, nil

	case "OKP":
		if j.Crv != "Ed25519" {
			return nil, fmt.Errorf("%w: OKP curve %s", errUnsupportedJWK, j.Crv)
		}
		xb, err := base64.RawURLEncoding.DecodeString(j.X)
		if err != nil {
			return nil, err
		}
		if len(xb) != ed25519.PublicKeySize {
			return nil, errors.New("jwtx: invalid Ed25519 public key size")
		}
		return ed25519.PublicKey(xb), nil

	case "EC":
		if j.Crv != "P-256" {
			return nil, fmt.Errorf("%w: EC curve %s", errUnsupportedJWK, j.Crv)
		}
		xb, err := base64.RawURLEncoding.DecodeString(j.X)
		if err != nil {
			return nil, err
		}
		yb, err := base64.RawURLEncoding.DecodeString(j.Y)
		if err != nil {
			return nil, err
		}
		return &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(xb),
			Y:     new(big.Int).SetBytes(yb),
		}, nil

	default:
		return nil, fmt.Errorf("%w: kty %q", errUnsupportedJWK, j.Kty)
	}
}

// PEM converts the JWK to a PKIX PEM block, handy for pasting into jwt.io
// or into AUTH_PUBLIC_KEY of a downstream service.
func (j JWK) PEM() (string, error) {
	pub, err := j.PublicKey()
	if err != nil {
		return "", err
	}
	out, err := cryptox.MarshalPublicKeyPEM(pub)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// MarshalJSON ensures stable encoding for JWKS output.
func (j JWK) MarshalJSON() ([]byte, error) {
	type alias JWK
	return json.Marshal(alias(j))
}

func b64(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }
