package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

// Config carries environment-driven settings for the authentication service.
type Config struct {
	TokenSecret      string        `env:"AUTH_TOKEN_SECRET,required"`               // TokenSecret signs session handles.
	MaxLoginAttempts int           `env:"AUTH_MAX_LOGIN_ATTEMPTS" envDefault:"5"`   // MaxLoginAttempts is the failed-password threshold before lockout.
	LockoutDuration  time.Duration `env:"AUTH_LOCKOUT_DURATION" envDefault:"30m"`   // LockoutDuration is how long a locked account refuses attempts.
	ChallengeTTL     time.Duration `env:"AUTH_CHALLENGE_TTL" envDefault:"5m"`       // ChallengeTTL bounds the pending second-factor window.
	SessionTTL       time.Duration `env:"AUTH_SESSION_TTL" envDefault:"24h"`        // SessionTTL bounds issued session handles.
	Issuer           string        `env:"AUTH_TOTP_ISSUER" envDefault:"AuthGuard"`  // Issuer is shown in authenticator apps.
	BackupCodeCount  int           `env:"AUTH_BACKUP_CODE_COUNT" envDefault:"10"`   // BackupCodeCount is the size of generated backup-code sets.
	TOTPSkew         int           `env:"AUTH_TOTP_SKEW" envDefault:"1"`            // TOTPSkew is the accepted drift in 30s steps; widen deliberately.
	RejectTOTPReplay bool          `env:"AUTH_REJECT_TOTP_REPLAY" envDefault:"false"` // RejectTOTPReplay refuses an accepted code within the same step.
}

// LoadConfig parses the configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Options converts the config into service options, so hosts can combine
// env-driven settings with programmatic ones.
func (c Config) Options() []Option {
	opts := []Option{
		WithLockoutPolicy(LockoutPolicy{
			MaxAttempts:     c.MaxLoginAttempts,
			LockoutDuration: c.LockoutDuration,
		}),
		WithChallengeTTL(c.ChallengeTTL),
		WithSessionTTL(c.SessionTTL),
		WithIssuer(c.Issuer),
		WithBackupCodeCount(c.BackupCodeCount),
		WithTOTPSkew(c.TOTPSkew),
	}
	if c.RejectTOTPReplay {
		opts = append(opts, WithReplayProtection())
	}
	return opts
}

// NewServiceFromConfig creates the service from env-driven configuration.
func NewServiceFromConfig(accounts AccountStore, challenges ChallengeStore, cfg Config, opts ...Option) Service {
	return NewService(accounts, challenges, cfg.TokenSecret, append(cfg.Options(), opts...)...)
}
