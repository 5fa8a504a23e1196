package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Store driver names accepted by CSNS_STORE.
const (
	DriverCSV    = "csv"
	DriverSQLite = "sqlite"
)

// Config is the whole server configuration, read from CSNS_* environment
// variables. It replaces the per-device hardcoded addresses the app builds
// used to carry.
type Config struct {
	Addr        string `env:"CSNS_ADDR" envDefault:":4000"`
	StoreDriver string `env:"CSNS_STORE" envDefault:"csv"`
	CSVPath     string `env:"CSNS_CSV_PATH" envDefault:"./data/cognito_sense_master.csv"`
	SQLitePath  string `env:"CSNS_SQLITE_PATH" envDefault:"./data/cognito_sense.db"`
	Commit      string `env:"CSNS_COMMIT"`
	BuildTime   string `env:"CSNS_BUILD_TIME"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.StoreDriver != DriverCSV && cfg.StoreDriver != DriverSQLite {
		return nil, fmt.Errorf("unknown CSNS_STORE %q (want %q or %q)", cfg.StoreDriver, DriverCSV, DriverSQLite)
	}
	return cfg, nil
}
