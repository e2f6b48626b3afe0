// Package redis connects to Redis with go-redis/v9.
//
// Connect retries the initial ping with a linear backoff bounded by
// ConnectTimeout. Healthcheck adapts the client to a readiness probe.
// Config is populated from the environment with caarlos0/env:
//
//	var cfg redis.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	features := redisstore.NewFeatureStorage(client, cfg.KeyPrefix)
//
// IsNil classifies the reply go-redis returns for absent keys and fields.
package redis
