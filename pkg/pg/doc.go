// Package pg provides helpers for PostgreSQL on the pgx/v5 driver:
// connection pooling with retries, goose migrations from an fs.FS, health
// checks and error classification.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//	    return err
//	}
//
// Config is populated from environment variables via
// github.com/caarlos0/env. Errors are sentinel values joined with the
// driver error, so errors.Is works on both.
package pg
