// Package pg provides helpers for connecting to PostgreSQL with pgx.
//
// It wraps pgxpool with retrying connection establishment, env-driven
// configuration, health-check helpers, and error classification utilities
// used by the Postgres-backed account store.
//
// # Usage
//
//	import "github.com/dmitrymomot/authguard/pkg/pg"
//
//	cfg := pg.Config{ConnectionString: "postgres://localhost:5432/app"}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    // handle error, probably terminate the application
//	}
//	defer pool.Close()
//
// Configuration fields carry env tags so most applications populate Config
// with github.com/caarlos0/env.
package pg
