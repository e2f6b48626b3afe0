// Package mongo connects to MongoDB with the official v2 driver.
//
//	var cfg mongo.Config
//	_ = env.Parse(&cfg)
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	trail := mongotrail.New(db.Collection(mongotrail.DefaultCollection))
//
// New retries the initial ping with a linear backoff. IsNotFoundError and
// IsDuplicateKeyError classify driver errors for adapters.
package mongo
