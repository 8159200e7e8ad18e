package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	// ErrNoSigningKey means no private key is configured. This is a server
	// configuration problem and must never be reported as a bad credential.
	ErrNoSigningKey = errors.New("jwtx: no signing key configured")

	// ErrNoVerificationKey means no public key is configured.
	ErrNoVerificationKey = errors.New("jwtx: no verification key configured")

	ErrNoKey          = errors.New("jwtx: key not found")
	ErrUnsupportedAlg = errors.New("jwtx: unsupported algorithm")
	ErrMalformed      = errors.New("jwtx: malformed token")
	ErrAlgMismatch    = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID     = errors.New("jwtx: unknown kid")
	ErrInvalidSig     = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// KeySetVerifier verifies tokens of a single algorithm against the keys in a
// KeySet, selected by the kid header.
type KeySetVerifier struct {
	keys   *KeySet
	alg    string
	issuer string
	aud    []string
	leeway time.Duration
}

// NewVerifier creates a verifier. Empty issuer or audience mean "don't care".
func NewVerifier(keys *KeySet, alg, issuer string, aud []string) *KeySetVerifier {
	return &KeySetVerifier{keys: keys, alg: alg, issuer: issuer, aud: aud}
}

// WithLeeway allows clock skew when validating exp/nbf.
func (v *KeySetVerifier) WithLeeway(d time.Duration) *KeySetVerifier {
	v.leeway = d
	return v
}

// Verify validates the JWT string and returns its parsed Claims.
//
// ErrNoVerificationKey is returned before any parsing when the KeySet is
// empty. All other failures wrap one of the jwtx sentinel errors.
func (v *KeySetVerifier) Verify(tokenStr string) (Claims, error) {
	if v.keys == nil || !v.keys.IsReady() {
		return Claims{}, ErrNoVerificationKey
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{v.alg}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}
		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.aud); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryAt(time.Now().UTC(), v.leeway); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// classify folds the jwt library's error zoo into our sentinels while
// keeping the original for logs.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKID):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %v", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrAlgMismatch, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
