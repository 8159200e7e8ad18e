package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/devasign/devasign/pkg/cryptox"
	"github.com/devasign/devasign/pkg/jwtx"
)

const (
	KeyModeStatic    = "static"
	KeyModeEphemeral = "ephemeral"
)

// InitAuthKeys builds the KeyManager for the configured algorithm and key mode.
//
// Key modes:
//   - "static": keys come from AUTH_PRIVATE_KEY / AUTH_PUBLIC_KEY or the
//     matching *_FILE variables. Missing keys are not fatal: the instance
//     boots, /readyz reports degraded and every token operation answers 500.
//   - "ephemeral": a key pair is generated on startup and lives only in
//     memory. Every session dies with the process. Local development only.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		Audience:  cfg.Audience,
	}

	switch cfg.KeyMode {
	case KeyModeEphemeral:
		km, err := jwtx.NewEphemeralKeyManager(opts)
		if err != nil {
			return nil, err
		}
		logger.Warn("using ephemeral signing keys, sessions will not survive a restart",
			"algorithm", cfg.Algorithm)
		return km, nil

	case KeyModeStatic, "":
		priv, err := loadPEM(cfg.PrivateKey, cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("private key: %w", err)
		}
		pub, err := loadPEM(cfg.PublicKey, cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("public key: %w", err)
		}
		opts.PrivateKeyPEM = priv
		opts.PublicKeyPEM = pub

		km, err := jwtx.NewKeyManager(opts)
		if err != nil {
			return nil, err
		}

		switch {
		case !km.IsReady():
			logger.Error("no JWT keys configured, authentication is unavailable",
				"hint", "set AUTH_PRIVATE_KEY or AUTH_PRIVATE_KEY_FILE")
		case !km.CanSign():
			logger.Warn("no JWT private key configured, this instance can verify but not issue tokens")
		default:
			logger.Info("JWT keys loaded", "algorithm", km.Algorithm())
		}
		return km, nil

	default:
		return nil, fmt.Errorf("unknown AUTH_KEY_MODE %q (want %s or %s)", cfg.KeyMode, KeyModeStatic, KeyModeEphemeral)
	}
}

// loadPEM prefers the inline value and falls back to the file.
func loadPEM(inline, path string) ([]byte, error) {
	if b := cryptox.NormalizePEM(inline); b != nil {
		return b, nil
	}
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return cryptox.NormalizePEM(string(raw)), nil
}
