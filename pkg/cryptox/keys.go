package cryptox

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// MinRSABits is the smallest RSA modulus we are willing to sign with.
const MinRSABits = 2048

var (
	ErrInvalidPEM      = errors.New("cryptox: invalid PEM")
	ErrUnsupportedKey  = errors.New("cryptox: unsupported key type")
	ErrRSAKeyTooSmall  = fmt.Errorf("cryptox: RSA key size must be at least %d bits", MinRSABits)
	ErrNotAPrivateKey  = errors.New("cryptox: PEM block is not a private key")
	ErrNotAPublicKey   = errors.New("cryptox: PEM block is not a public key")
	ErrKeyPairMismatch = errors.New("cryptox: public key does not match private key")
)

// GenerateRSAKey generates an RSA private key and returns it PKCS8 PEM encoded.
func GenerateRSAKey(bits int) ([]byte, error) {
	if bits < MinRSABits {
		return nil, ErrRSAKeyTooSmall
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate RSA key: %w", err)
	}
	return encodePKCS8(key)
}

// GenerateES256Key generates an ECDSA P-256 private key (PKCS8 PEM).
func GenerateES256Key() ([]byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate ECDSA key: %w", err)
	}
	return encodePKCS8(key)
}

// GenerateEd25519Key generates an Ed25519 private key (PKCS8 PEM).
func GenerateEd25519Key() ([]byte, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate Ed25519 key: %w", err)
	}
	return encodePKCS8(key)
}

func encodePKCS8(key any) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// NormalizePEM tidies PEM material that came through an environment
// variable. Most deploy tooling can't hold a multi-line value, so keys are
// commonly pasted with literal "\n" sequences instead of newlines.
func NormalizePEM(s string) []byte {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.Trim(s, `"'`)
	if s == "" {
		return nil
	}
	return []byte(s + "\n")
}

// ParsePrivateKeyPEM accepts PKCS8 ("PRIVATE KEY"), PKCS1 ("RSA PRIVATE
// KEY") and SEC1 ("EC PRIVATE KEY") blocks.
func ParsePrivateKeyPEM(data []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEM
	}

	var (
		key any
		err error
	)
	switch block.Type {
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: %q", ErrNotAPrivateKey, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("cryptox: parse private key: %w", err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, ErrUnsupportedKey
	}
	if rk, ok := signer.(*rsa.PrivateKey); ok && rk.N.BitLen() < MinRSABits {
		return nil, ErrRSAKeyTooSmall
	}
	return signer, nil
}

// ParsePublicKeyPEM accepts PKIX ("PUBLIC KEY") and PKCS1 ("RSA PUBLIC KEY")
// blocks. A certificate is accepted too, its public key is returned.
func ParsePublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEM
	}

	switch block.Type {
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("cryptox: parse public key: %w", err)
		}
		return pub, nil
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("cryptox: parse public key: %w", err)
		}
		return pub, nil
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("cryptox: parse certificate: %w", err)
		}
		return cert.PublicKey, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrNotAPublicKey, block.Type)
	}
}

// MarshalPublicKeyPEM encodes a public key as a PKIX "PUBLIC KEY" block.
func MarshalPublicKeyPEM(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("cryptox: marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// MatchKeyPair reports ErrKeyPairMismatch when pub is not the public half of
// priv. Catches the classic "rotated one env var but not the other" deploy.
func MatchKeyPair(priv crypto.Signer, pub crypto.PublicKey) error {
	type equaler interface {
		Equal(crypto.PublicKey) bool
	}
	e, ok := priv.Public().(equaler)
	if !ok {
		return ErrUnsupportedKey
	}
	if !e.Equal(pub) {
		return ErrKeyPairMismatch
	}
	return nil
}
