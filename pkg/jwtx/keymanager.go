package jwtx

import (
	"fmt"
	"time"

	"github.com/devasign/devasign/pkg/cryptox"
)

// KeyManager manages the JWT signing and verification keys for an instance.
//
// Either half of the key pair may be missing. An instance holding only the
// public key can verify tokens but not mint them; an instance with neither
// starts fine and reports the gap per request, so a misconfigured deployment
// shows up as 500s rather than as every user being "unauthenticated".
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	signer    Signer
	algorithm string
}

// KeyManagerOptions configures the KeyManager.
type KeyManagerOptions struct {
	// Algorithm specifies which signing algorithm to use.
	// Supported values: "RS256", "ES256", "EdDSA"
	Algorithm string

	// Issuer is the issuer claim (iss) stamped on and required of tokens.
	Issuer string

	// Audience is the list of audience values (aud). Empty means the tokens
	// carry no audience and none is checked.
	Audience []string

	// PrivateKeyPEM and PublicKeyPEM hold the configured key material. When
	// only the private key is given the public half is derived from it.
	PrivateKeyPEM []byte
	PublicKeyPEM  []byte

	// RSABits is the key size for ephemeral RS256 keys. Defaults to 2048.
	RSABits int

	// Leeway tolerates clock skew on exp/nbf.
	Leeway time.Duration
}

// NewKeyManager builds a KeyManager from configured PEM material.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}
	if _, err := signingMethod(opts.Algorithm); err != nil {
		return nil, err
	}

	keyset := NewKeySet()
	km := &KeyManager{KeySet: keyset, algorithm: opts.Algorithm}

	if len(opts.PrivateKeyPEM) > 0 {
		signer, err := NewSigner(opts.Algorithm, opts.PrivateKeyPEM)
		if err != nil {
			return nil, err
		}
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
		}
		km.signer = signer
	}

	if len(opts.PublicKeyPEM) > 0 {
		pub, err := cryptox.ParsePublicKeyPEM(opts.PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("jwtx: load verification key: %w", err)
		}
		if km.signer != nil {
			priv, err := cryptox.ParsePrivateKeyPEM(opts.PrivateKeyPEM)
			if err != nil {
				return nil, err
			}
			if err := cryptox.MatchKeyPair(priv, pub); err != nil {
				return nil, fmt.Errorf("jwtx: %w", err)
			}
		}
		if _, err := keyset.AddPublicKey(opts.Algorithm, pub); err != nil {
			return nil, fmt.Errorf("jwtx: load verification key: %w", err)
		}
	}

	km.Verifier = NewVerifier(keyset, opts.Algorithm, opts.Issuer, opts.Audience).WithLeeway(opts.Leeway)
	return km, nil
}

// NewEphemeralKeyManager creates a KeyManager around a freshly generated key
// pair. The keys only exist in memory, so every token becomes invalid when
// the process restarts. Meant for local development and tests.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	var (
		pemBytes []byte
		err      error
	)

	switch opts.Algorithm {
	case AlgorithmRS256:
		bits := opts.RSABits
		if bits == 0 {
			bits = cryptox.MinRSABits
		}
		pemBytes, err = cryptox.GenerateRSAKey(bits)
	case AlgorithmES256:
		pemBytes, err = cryptox.GenerateES256Key()
	case AlgorithmEdDSA:
		pemBytes, err = cryptox.GenerateEd25519Key()
	default:
		_, err = signingMethod(opts.Algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("jwtx: failed to generate %s key: %w", opts.Algorithm, err)
	}

	opts.PrivateKeyPEM = pemBytes
	opts.PublicKeyPEM = nil
	return NewKeyManager(opts)
}

// Signer returns the configured signer, or ErrNoSigningKey.
func (km *KeyManager) Signer() (Signer, error) {
	if km.signer == nil {
		return nil, ErrNoSigningKey
	}
	return km.signer, nil
}

// Sign signs claims with the configured private key.
func (km *KeyManager) Sign(claims Claims) (string, error) {
	s, err := km.Signer()
	if err != nil {
		return "", err
	}
	return s.Sign(claims)
}

// CanSign reports whether a private key is loaded.
func (km *KeyManager) CanSign() bool { return km.signer != nil }

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string {
	return km.algorithm
}

// IsReady returns true if at least one verification key is loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}
