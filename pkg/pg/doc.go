// Package pg bootstraps the PostgreSQL layer: a retrying pgx connection pool,
// goose migrations read from an embedded filesystem, a database/sql bridge for
// code that works on *sql.DB, a transaction helper and error classifiers.
//
// Typical startup:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations.FS, log); err != nil {
//		return err
//	}
//	db := pg.OpenDB(pool)
package pg
