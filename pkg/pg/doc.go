// Package pg connects to PostgreSQL with pgx/v5 and applies goose migrations.
//
//	var cfg pg.Config
//	_ = env.Parse(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
// IsDuplicateKeyError and IsNotFoundError classify driver errors so adapters
// can map them to repository error kinds.
package pg
