package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"

	"github.com/devasign/devasign/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Supported JWT signing algorithms. All asymmetric: the API signs with the
// private half and anything holding the public half can verify.
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
	Public() crypto.PublicKey
}

// keySigner signs with any crypto.Signer whose type matches the algorithm.
type keySigner struct {
	alg    string
	method jwt.SigningMethod
	key    crypto.Signer
	jwk    JWK
}

// NewSigner loads a private key from PEM bytes (PKCS8, PKCS1 or SEC1) and
// returns a signer for alg. The kid is the key's JWK thumbprint.
func NewSigner(alg string, pemKey []byte) (Signer, error) {
	key, err := cryptox.ParsePrivateKeyPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load signing key: %w", err)
	}
	return NewSignerFromKey(alg, key)
}

// NewSignerFromKey wraps an already parsed private key.
func NewSignerFromKey(alg string, key crypto.Signer) (Signer, error) {
	method, err := signingMethod(alg)
	if err != nil {
		return nil, err
	}
	if err := checkKeyType(alg, key); err != nil {
		return nil, err
	}

	jwk, err := NewJWK("", alg, key.Public())
	if err != nil {
		return nil, err
	}

	return &keySigner{alg: alg, method: method, key: key, jwk: jwk}, nil
}

func (s *keySigner) Alg() string              { return s.alg }
func (s *keySigner) KID() string              { return s.jwk.Kid }
func (s *keySigner) PublicJWK() JWK           { return s.jwk }
func (s *keySigner) Public() crypto.PublicKey { return s.key.Public() }

// Sign turns the claims into a compact JWS with the kid in the header.
func (s *keySigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	t.Header["kid"] = s.jwk.Kid
	return t.SignedString(s.key)
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case AlgorithmRS256:
		return jwt.SigningMethodRS256, nil
	case AlgorithmES256:
		return jwt.SigningMethodES256, nil
	case AlgorithmEdDSA:
		return jwt.SigningMethodEdDSA, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: RS256, ES256, EdDSA)", ErrUnsupportedAlg, alg)
	}
}

// checkKeyType rejects e.g. an Ed25519 key configured with AUTH_ALGORITHM=RS256
// at startup rather than on the first login.
func checkKeyType(alg string, key crypto.Signer) error {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		if alg == AlgorithmRS256 {
			return nil
		}
	case *ecdsa.PrivateKey:
		if alg == AlgorithmES256 && k.Curve.Params().Name == "P-256" {
			return nil
		}
	case ed25519.PrivateKey:
		if alg == AlgorithmEdDSA {
			return nil
		}
	}
	return fmt.Errorf("%w: %T cannot sign %s", ErrAlgMismatch, key, alg)
}
