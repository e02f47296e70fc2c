// Package config loads typed configuration from the environment.
//
// It combines github.com/joho/godotenv (reading .env files) with
// github.com/caarlos0/env/v11 (struct tag parsing). Every configuration type
// is parsed once and cached for the lifetime of the process, so packages can
// call Load for the same struct without re-reading the environment.
//
//	type SessionConfig struct {
//	    Timeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"1h"`
//	}
//
//	var cfg SessionConfig
//	config.MustLoad(&cfg)
//
// Nested structs are parsed recursively, which lets an application config
// embed the Config structs exported by stockroom packages (idlesession,
// httpserver, redis, pg) and load them in one call.
//
// Errors wrap ErrParsingConfig or ErrLoadingEnvFile and can be matched with
// errors.Is. ResetCache exists for tests that change the environment
// between loads.
package config
