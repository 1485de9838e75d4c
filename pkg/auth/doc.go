// Package auth implements the authentication security core: the failed-login
// lockout policy, the two-step login protocol with a TOTP second factor,
// single-use backup codes, and session handle issuance.
//
// The package deliberately owns no transport and no persistence engine. Hosts
// mount the Service behind HTTP (or anything else) and supply an AccountStore
// for the user rows plus a ChallengeStore for the ephemeral pending
// second-factor tokens. In-memory implementations of both ship here; a
// Postgres AccountStore (pgx, SELECT ... FOR UPDATE) and a Redis
// ChallengeStore (GETDEL) cover production deployments.
//
// # Login protocol
//
// Authenticate resolves the account by username or email (case-insensitive),
// then applies the LockoutPolicy to the password attempt inside an atomic
// read-modify-write: inactive accounts fail fast, an active lockout window
// rejects the attempt unchanged, a wrong password increments the failure
// counter (locking the account at the threshold, default 5 failures for 30
// minutes), and a correct password resets counter and lock. Unknown
// identifiers return the same ErrInvalidCredentials as wrong passwords so
// callers cannot enumerate accounts.
//
// With the second factor disabled, password success issues the session
// immediately. With it enabled, a pending Challenge (default TTL 5 minutes)
// is stored and the caller must finish with CompleteSecondFactor, which
// accepts either a TOTP code (±1 time step by default) or one of the
// single-use backup codes. The challenge is consumed winner-takes-all; a
// replayed or timed-out challenge fails closed with ErrChallengeExpired.
// Failed second-factor attempts never count toward the password lockout.
//
// # Sessions
//
// Issued session handles are compact HMAC-signed tokens (pkg/token) carrying
// the account ID and expiry; VerifySession validates them statelessly.
//
// # Second-factor management
//
// ProvisionTOTP generates the shared secret (optionally AES-256-GCM encrypted
// at rest via WithEncryptionKey) and returns the otpauth:// URI together with
// a QR data-URI for enrollment. EnableTOTP confirms the first code, switches
// the factor on and mints the initial backup codes; DisableTOTP clears secret
// and codes after verification; RegenerateBackupCodes replaces the whole set.
// Backup codes are stored as SHA-256 hashes and shown in plain form exactly
// once.
//
// # Usage
//
//	accounts := auth.NewMemoryAccountStore()
//	challenges := auth.NewMemoryChallengeStore()
//	svc := auth.NewService(accounts, challenges, tokenSecret,
//	    auth.WithIssuer("Acme"),
//	)
//
//	res, err := svc.Authenticate(ctx, "alice@example.com", password, time.Now())
//	switch {
//	case err != nil:
//	    // ErrInvalidCredentials, ErrAccountInactive, or *LockedError
//	case res.SecondFactorRequired:
//	    // prompt for a code, then:
//	    res, err = svc.CompleteSecondFactor(ctx, res.ChallengeID, code, time.Now())
//	}
//
// # Error Handling
//
// Failures surface as package-level sentinels (ErrInvalidCredentials,
// ErrAccountInactive, ErrInvalidSecondFactor, ErrChallengeExpired, ...)
// comparable with errors.Is. Lockout is the one typed error: *LockedError
// matches ErrAccountLocked and carries the unlock timestamp for user
// messaging. Secrets, passwords, and codes never appear in errors or logs.
package auth
