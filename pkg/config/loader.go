package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cache holds one parsed copy per configuration type.
type cache struct {
	mu     sync.RWMutex
	values map[reflect.Type]any
}

var (
	global = &cache{values: make(map[reflect.Type]any)}

	defaultEnvLoaded sync.Once
)

// Load parses the process environment into v. Each configuration type is
// parsed once; later calls for the same type return the cached copy.
// The .env file of the working directory, if any, is loaded on first use.
//
//	type ServerConfig struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	defaultEnvLoaded.Do(func() {
		// A missing .env file is fine.
		_ = godotenv.Load()
	})

	key := typeKey[T]()

	global.mu.RLock()
	cached, ok := global.values[key]
	global.mu.RUnlock()
	if ok {
		*v = cached.(T)
		return nil
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	// Another goroutine may have parsed it while we waited.
	if cached, ok := global.values[key]; ok {
		*v = cached.(T)
		return nil
	}
	return parseLocked(key, v)
}

// MustLoad is Load that panics on failure.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// ForceReloadConfig parses v again and replaces the cached copy.
func ForceReloadConfig[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	return parseLocked(typeKey[T](), v)
}

// LoadEnv loads .env files into the process environment. Later files
// override earlier ones. Cached configurations are dropped so the next
// Load sees the new values.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	if err := godotenv.Overload(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	ResetCache()
	return nil
}

// MustLoadEnv is LoadEnv that panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// ResetCache forgets every parsed configuration.
func ResetCache() {
	global.mu.Lock()
	clear(global.values)
	global.mu.Unlock()
}

func parseLocked[T any](key reflect.Type, v *T) error {
	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	global.values[key] = parsed
	*v = parsed
	return nil
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}
