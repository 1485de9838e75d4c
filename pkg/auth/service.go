package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authguard/pkg/logger"
	"github.com/dmitrymomot/authguard/pkg/token"
	"github.com/dmitrymomot/authguard/pkg/totp"
)

// SubjectSession is the subject claim embedded in session tokens.
const SubjectSession = "session"

// Protocol defaults.
const (
	DefaultChallengeTTL    = 5 * time.Minute
	DefaultSessionTTL      = 24 * time.Hour
	DefaultBackupCodeCount = totp.DefaultRecoveryCodeCount
	DefaultIssuer          = "AuthGuard"
)

// SessionTokenPayload is the signed content of an issued session handle.
type SessionTokenPayload struct {
	AccountID string `json:"aid"`
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpireAt  int64  `json:"exp"`
}

// AuthResult is the outcome of a successful protocol step. Either a session
// was issued, or a pending second-factor challenge was created and
// SecondFactorRequired is set.
type AuthResult struct {
	AccountID uuid.UUID

	SessionToken     string
	SessionExpiresAt time.Time

	SecondFactorRequired bool
	ChallengeID          uuid.UUID
	ChallengeExpiresAt   time.Time
}

// TOTPProvisioning is returned by ProvisionTOTP for display to the user.
// The plain secret appears here exactly once; only its (optionally encrypted)
// form is persisted.
type TOTPProvisioning struct {
	Secret          string
	ProvisioningURI string
	QRCode          string // data-URI PNG of the provisioning URI
}

// Authenticator drives the two-step login protocol.
type Authenticator interface {
	// Authenticate resolves the account, applies the lockout policy to the
	// password attempt, and either issues a session or opens a pending
	// second-factor challenge.
	Authenticate(ctx context.Context, identifier, password string, now time.Time) (*AuthResult, error)

	// CompleteSecondFactor verifies a TOTP code or a single-use backup code
	// against a pending challenge and issues the session on success.
	CompleteSecondFactor(ctx context.Context, challengeID uuid.UUID, code string, now time.Time) (*AuthResult, error)

	// VerifySession validates a previously issued session handle and returns
	// the account it is bound to.
	VerifySession(sessionToken string, now time.Time) (uuid.UUID, error)
}

// TwoFactorManager provisions and manages the TOTP second factor.
type TwoFactorManager interface {
	ProvisionTOTP(ctx context.Context, accountID uuid.UUID) (*TOTPProvisioning, error)
	EnableTOTP(ctx context.Context, accountID uuid.UUID, code string, now time.Time) ([]string, error)
	DisableTOTP(ctx context.Context, accountID uuid.UUID, code string, now time.Time) error
	RegenerateBackupCodes(ctx context.Context, accountID uuid.UUID) ([]string, error)
}

// Service combines the login protocol with second-factor management.
type Service interface {
	Authenticator
	TwoFactorManager
}

type service struct {
	accounts    AccountStore
	challenges  ChallengeStore
	tokenSecret string

	policy          LockoutPolicy
	verify          PasswordVerifier
	challengeTTL    time.Duration
	sessionTTL      time.Duration
	issuer          string
	backupCodeCount int
	totpSkew        int
	rejectReplay    bool
	encryptionKey   []byte
	logger          *slog.Logger
}

// Option configures the service during construction.
type Option func(*service)

// WithLogger sets a custom logger for the service.
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		s.logger = log
	}
}

// WithLockoutPolicy overrides the default 5-attempts / 30-minute policy.
func WithLockoutPolicy(policy LockoutPolicy) Option {
	return func(s *service) {
		s.policy = policy.withDefaults()
	}
}

// WithPasswordVerifier replaces the bcrypt-based default verifier.
func WithPasswordVerifier(verify PasswordVerifier) Option {
	return func(s *service) {
		s.verify = verify
	}
}

// WithChallengeTTL sets the lifetime of pending second-factor challenges.
func WithChallengeTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.challengeTTL = ttl
	}
}

// WithSessionTTL sets the lifetime of issued session tokens.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.sessionTTL = ttl
	}
}

// WithIssuer sets the issuer name shown in authenticator apps.
func WithIssuer(issuer string) Option {
	return func(s *service) {
		s.issuer = issuer
	}
}

// WithBackupCodeCount sets the size of generated backup-code sets.
func WithBackupCodeCount(count int) Option {
	return func(s *service) {
		s.backupCodeCount = count
	}
}

// WithTOTPSkew widens the accepted TOTP window to ±skew time steps.
// The default of one step is the standard drift tolerance; anything larger
// trades security for usability and must be an explicit decision.
func WithTOTPSkew(skew int) Option {
	return func(s *service) {
		s.totpSkew = skew
	}
}

// WithReplayProtection rejects a TOTP code at or below the last accepted time
// step, closing the window where an observed code could be replayed within
// the same 30-second step. Off by default.
func WithReplayProtection() Option {
	return func(s *service) {
		s.rejectReplay = true
	}
}

// WithEncryptionKey enables AES-256-GCM encryption of stored TOTP secrets.
// The key must be 32 bytes; see totp.LoadEncryptionKey.
func WithEncryptionKey(key []byte) Option {
	return func(s *service) {
		s.encryptionKey = key
	}
}

// NewService creates the authentication service.
func NewService(accounts AccountStore, challenges ChallengeStore, tokenSecret string, opts ...Option) Service {
	s := &service{
		accounts:        accounts,
		challenges:      challenges,
		tokenSecret:     tokenSecret,
		policy:          DefaultLockoutPolicy(),
		verify:          BcryptVerifier,
		challengeTTL:    DefaultChallengeTTL,
		sessionTTL:      DefaultSessionTTL,
		issuer:          DefaultIssuer,
		backupCodeCount: DefaultBackupCodeCount,
		totpSkew:        totp.DefaultSkew,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Authenticate performs the password step of the login protocol.
//
// An unknown identifier returns ErrInvalidCredentials with the same shape as
// a wrong-password failure to prevent account enumeration. Lockout state is
// reported as a *LockedError carrying the unlock timestamp.
func (s *service) Authenticate(ctx context.Context, identifier, password string, now time.Time) (*AuthResult, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))

	acc, err := s.accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	var result AttemptResult
	acc, err = s.accounts.UpdateAtomic(ctx, acc.ID, func(a *Account) error {
		r, evalErr := s.policy.Evaluate(a, password, s.verify, now)
		if evalErr != nil {
			return evalErr
		}
		result = r
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAccountInactive) {
			return nil, ErrAccountInactive
		}
		return nil, fmt.Errorf("failed to record password attempt: %w", err)
	}

	switch result.Outcome {
	case AttemptLocked:
		s.logger.Info("login rejected, account locked",
			logger.AccountID(acc.ID.String()),
			slog.Time("locked_until", result.LockedUntil),
			logger.Component("auth"),
		)
		return nil, &LockedError{Until: result.LockedUntil}
	case AttemptFailure:
		return nil, ErrInvalidCredentials
	}

	if !acc.TOTPEnabled {
		return s.issueSession(acc.ID, now)
	}

	ch := Challenge{
		ID:        uuid.New(),
		AccountID: acc.ID,
		ExpiresAt: now.Add(s.challengeTTL),
	}
	if err := s.challenges.Create(ctx, ch); err != nil {
		return nil, fmt.Errorf("failed to create second-factor challenge: %w", err)
	}

	return &AuthResult{
		AccountID:            acc.ID,
		SecondFactorRequired: true,
		ChallengeID:          ch.ID,
		ChallengeExpiresAt:   ch.ExpiresAt,
	}, nil
}

// CompleteSecondFactor finishes the login protocol for a pending challenge.
//
// The TOTP engine is tried first, then the backup-code set; the first success
// wins. Both failing returns ErrInvalidSecondFactor without revealing which
// mechanism was attempted. A consumed or unknown challenge fails closed with
// ErrChallengeExpired. Second-factor failures never count toward lockout.
func (s *service) CompleteSecondFactor(ctx context.Context, challengeID uuid.UUID, code string, now time.Time) (*AuthResult, error) {
	ch, err := s.challenges.Get(ctx, challengeID)
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) {
			return nil, ErrChallengeExpired
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	if !now.Before(ch.ExpiresAt) {
		_, _ = s.challenges.Consume(ctx, ch.ID)
		return nil, ErrChallengeExpired
	}

	code = strings.TrimSpace(code)

	_, err = s.accounts.UpdateAtomic(ctx, ch.AccountID, func(a *Account) error {
		return s.verifySecondFactor(a, code, now)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSecondFactor), errors.Is(err, ErrAccountInactive):
			return nil, err
		case errors.Is(err, ErrAccountNotFound):
			return nil, ErrChallengeExpired
		default:
			return nil, fmt.Errorf("failed to verify second factor: %w", err)
		}
	}

	// Winner-takes-all: only the caller that consumes the challenge gets a session.
	if _, err := s.challenges.Consume(ctx, ch.ID); err != nil {
		return nil, ErrChallengeExpired
	}

	s.logger.Info("second factor verified",
		logger.AccountID(ch.AccountID.String()),
		logger.ChallengeID(ch.ID.String()),
		logger.Component("auth"),
	)

	return s.issueSession(ch.AccountID, now)
}

// verifySecondFactor mutates the account inside an atomic update: it bumps the
// replay watermark on a TOTP match or removes exactly one backup code.
func (s *service) verifySecondFactor(a *Account, code string, now time.Time) error {
	if !a.IsActive {
		return ErrAccountInactive
	}
	if !a.TOTPEnabled || a.TOTPSecret == "" {
		return ErrInvalidSecondFactor
	}

	secret, err := s.secretFor(a)
	if err != nil {
		return err
	}

	// TOTP first; format errors just mean the code is not a TOTP candidate
	step, ok, err := totp.MatchingStep(secret, code, now, s.totpSkew)
	if err == nil && ok {
		if s.rejectReplay && step <= a.LastTOTPStep {
			return ErrInvalidSecondFactor
		}
		if step > a.LastTOTPStep {
			a.LastTOTPStep = step
		}
		return nil
	}

	// Fall back to the single-use backup codes
	for i, hashed := range a.BackupCodes {
		if totp.VerifyRecoveryCode(code, hashed) {
			a.BackupCodes = append(a.BackupCodes[:i], a.BackupCodes[i+1:]...)
			return nil
		}
	}

	return ErrInvalidSecondFactor
}

// VerifySession validates a session handle and returns the bound account ID.
func (s *service) VerifySession(sessionToken string, now time.Time) (uuid.UUID, error) {
	payload, err := token.ParseToken[SessionTokenPayload](sessionToken, s.tokenSecret)
	if err != nil {
		return uuid.Nil, ErrSessionInvalid
	}

	if payload.Subject != SubjectSession {
		return uuid.Nil, ErrSessionInvalid
	}

	if now.Unix() > payload.ExpireAt {
		return uuid.Nil, ErrSessionExpired
	}

	accountID, err := uuid.Parse(payload.AccountID)
	if err != nil {
		return uuid.Nil, ErrSessionInvalid
	}

	return accountID, nil
}

func (s *service) issueSession(accountID uuid.UUID, now time.Time) (*AuthResult, error) {
	expiresAt := now.Add(s.sessionTTL)
	payload := SessionTokenPayload{
		AccountID: accountID.String(),
		Subject:   SubjectSession,
		IssuedAt:  now.Unix(),
		ExpireAt:  expiresAt.Unix(),
	}

	sessionToken, err := token.GenerateToken(payload, s.tokenSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &AuthResult{
		AccountID:        accountID,
		SessionToken:     sessionToken,
		SessionExpiresAt: expiresAt,
	}, nil
}

// secretFor returns the plain TOTP secret, decrypting when an encryption key
// is configured.
func (s *service) secretFor(a *Account) (string, error) {
	if len(s.encryptionKey) == 0 {
		return a.TOTPSecret, nil
	}
	secret, err := totp.DecryptSecret(a.TOTPSecret, s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt TOTP secret: %w", err)
	}
	return secret, nil
}

// Compile-time interface assertion
var _ Service = (*service)(nil)
