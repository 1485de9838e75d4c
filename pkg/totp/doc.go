// Package totp provides a high-level API for generating, encrypting, validating, and managing
// Time-based One-Time Passwords (TOTP) and related recovery codes.
//
// This package bundles together everything an application needs to implement the second
// factor of a two-step login based on RFC 6238: secret key creation, URI generation
// compatible with authenticator applications, one-time-password generation/validation with
// an explicit reference time, AES-256 encryption helpers for safely persisting secrets, and
// secure single-use recovery-code utilities.
//
// By keeping functionality self-contained the package eliminates direct dependencies on
// third-party TOTP libraries and allows services to remain framework-agnostic.
//
// # Architecture
//
// Internally the package is divided into three cohesive layers.
//
//   • crypto   – helpers in aes256.go and keys.go implement symmetric encryption/decryption
//     of the secret key with AES-256-GCM and random key generation utilities.
//
//   • totp     – functions in otp.go provide secret key generation (GenerateSecretKey),
//     HOTP/TOTP code calculation (GenerateTOTPAt/ValidateTOTPAt/GenerateHOTP) and URI
//     construction (GetTOTPURI) for onboarding to Google Authenticator, 1Password and
//     compatible apps. Validation accepts the previous and next 30-second windows by
//     default; a wider window requires the explicit skew variant.
//
//   • recovery – helpers in recovery.go create, hash and verify single-use recovery codes
//     offered to users in case they permanently lose access to their authenticator device.
//
// Configuration such as the encryption key is loaded once per process via the env tag aware
// loader in config.go. The required environment variable name is TOTP_ENCRYPTION_KEY and it
// must contain a Base64 encoded 32-byte key suitable for AES-256.
//
// # Usage
//
// The minimal happy path for enrolling a user looks like this:
//
//	package main
//
//	import (
//	    "fmt"
//	    "time"
//
//	    "github.com/dmitrymomot/authguard/pkg/totp"
//	)
//
//	func main() {
//	    // 1. Create a brand-new secret
//	    secret, _ := totp.GenerateSecretKey()
//
//	    // 2. Persist the secret encrypted in your datastore
//	    key, _ := totp.LoadEncryptionKey()
//	    encSecret, _ := totp.EncryptSecret(secret, key)
//	    _ = encSecret
//
//	    // 3. Display the bootstrap URI/QR code to the user
//	    uri, _ := totp.GetTOTPURI(totp.TOTPParams{
//	        Secret:      secret,
//	        AccountName: "alice@example.com",
//	        Issuer:      "Acme",
//	    })
//	    fmt.Println(uri)
//
//	    // 4. Later – validate an OTP provided by the user
//	    ok, _ := totp.ValidateTOTPAt(secret, "123456", time.Now())
//	    fmt.Println(ok)
//	}
//
// # Error Handling
//
// Every exported operation returns a descriptive error that may be wrapped using errors.Join.
// Inspect errors with errors.Is against package level sentinels such as ErrInvalidSecret,
// ErrFailedToEncryptSecret, ErrInvalidOTP etc.
//
// # See Also
//
//   • RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   • RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
package totp
