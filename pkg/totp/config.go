package totp

import (
	"sync"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

var (
	cfg  Config
	once sync.Once
)

type Config struct {
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY,required"` // Encryption key for TOTP secrets at rest
}

// LoadConfig loads the configuration from environment variables, once per
// process. Returns ErrEncryptionKeyNotSet when the key is missing.
func LoadConfig() (Config, error) {
	var err error
	once.Do(func() {
		var c Config
		if err = env.Parse(&c); err != nil {
			return
		}
		if c.EncryptionKey == "" {
			err = ErrEncryptionKeyNotSet
			return
		}
		cfg = c
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
