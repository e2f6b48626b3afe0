// Package config loads typed configuration from environment variables with
// github.com/caarlos0/env/v11, reading .env files through github.com/joho/godotenv.
//
// Every flagkit component declares its own struct (pg.Config, redis.Config,
// snapshot.S3Config and so on); the binary loads each of them once:
//
//	var pgCfg pg.Config
//	if err := config.Load(&pgCfg); err != nil {
//		return err
//	}
//
// Parsed structs are cached per type. Tests that change the environment call
// ResetCache or ForceReloadConfig.
package config
