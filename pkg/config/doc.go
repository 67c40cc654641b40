// Package config loads typed configuration structs from the process
// environment.
//
// Values are read with github.com/caarlos0/env/v11 using `env` and
// `envDefault` struct tags. A `.env` file in the working directory, when
// present, is applied once through github.com/joho/godotenv before the first
// parse. Each configuration type is parsed at most once per process and the
// parsed copy is returned on subsequent calls:
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// ResetCache drops every cached value and is meant for tests that mutate the
// environment between loads.
package config
