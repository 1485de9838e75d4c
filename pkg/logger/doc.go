// Package logger provides slog attribute constructors shared across the
// authentication services so log fields stay consistently named.
//
// The helpers return empty attributes for nil values, which slog drops,
// so call sites never need nil checks. Secrets (passwords, TOTP secrets,
// backup codes) must never be passed to any of these helpers.
//
// # Usage
//
//	import (
//	    "log/slog"
//
//	    "github.com/dmitrymomot/authguard/pkg/logger"
//	)
//
//	log.Info("second factor verified",
//	    logger.AccountID(acc.ID.String()),
//	    logger.Component("auth"),
//	)
package logger
