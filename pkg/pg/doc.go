// Package pg connects the audit log to PostgreSQL through pgx/v5 and applies its schema
// with goose.
//
// Connect builds a pgxpool.Pool from Config (AUDIT_PG_* variables) and retries until the
// server answers a ping. Migrate runs goose migrations from an fs.FS, typically
// audit.PostgresMigrations(), so the binary carries its own schema.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, audit.PostgresMigrations(), cfg, log); err != nil {
//		return err
//	}
//	sink := audit.NewPostgresSink(pool)
package pg
