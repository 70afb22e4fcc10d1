// Package config loads the sealing key configuration of the secretseal
// command from environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/rbaliyan/secretstore"
)

// Config holds the key-encryption key settings. Exactly one of Key or
// Passphrase must be set; Passphrase requires Salt.
type Config struct {
	// KeyID is written into every sealed secret and selects the key when opening.
	KeyID string `env:"SECRETSEAL_KEY_ID" envDefault:"key-1"`

	// Key is the hex-encoded 32-byte key.
	Key string `env:"SECRETSEAL_KEY"`

	// Passphrase is stretched with Argon2id when Key is unset.
	Passphrase string `env:"SECRETSEAL_PASSPHRASE"`

	// Salt is the hex-encoded Argon2id salt, at least 16 bytes.
	Salt string `env:"SECRETSEAL_SALT"`

	// LogLevel is a zerolog level name.
	LogLevel string `env:"SECRETSEAL_LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from environ. A nil map reads the process
// environment.
func Load(environ map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}
	return &cfg, nil
}

// KeyProvider builds a provider holding the configured key. Intermediate
// key bytes are wiped once the provider has its own copy.
func (c *Config) KeyProvider() (*secretstore.StaticKeyProvider, error) {
	key, err := c.keyBytes()
	if err != nil {
		return nil, err
	}
	defer secretstore.Wipe(key)
	return secretstore.NewStaticKeyProvider(key, c.KeyID)
}

func (c *Config) keyBytes() ([]byte, error) {
	switch {
	case c.Key != "" && c.Passphrase != "":
		return nil, errors.New("config: set either SECRETSEAL_KEY or SECRETSEAL_PASSPHRASE, not both")
	case c.Key != "":
		key, err := hex.DecodeString(c.Key)
		if err != nil {
			return nil, fmt.Errorf("config: SECRETSEAL_KEY is not hex: %w", err)
		}
		return key, nil
	case c.Passphrase != "":
		salt, err := hex.DecodeString(c.Salt)
		if err != nil {
			return nil, fmt.Errorf("config: SECRETSEAL_SALT is not hex: %w", err)
		}
		return secretstore.DeriveKey([]byte(c.Passphrase), salt)
	default:
		return nil, errors.New("config: SECRETSEAL_KEY or SECRETSEAL_PASSPHRASE is required")
	}
}
