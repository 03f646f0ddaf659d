package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Store drivers understood by StoreDriver.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds process settings read from the environment.
type Config struct {
	Port    int    `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`

	StoreDriver       string `env:"STORE_DRIVER" envDefault:"sqlite"`
	SQLitePath        string `env:"SQLITE_PATH" envDefault:"consultsim.db"`
	MongoURI          string `env:"MONGO_URI" envDefault:"mongodb://127.0.0.1:27017"`
	MongoDB           string `env:"MONGO_DB" envDefault:"consultsim"`
	MongoTransactions bool   `env:"MONGO_TRANSACTIONS" envDefault:"false"`

	JWTKey           string `env:"JWT_KEY" envDefault:"your-secret-key"`
	OperatorUsername string `env:"OPERATOR_USERNAME" envDefault:"operator"`
	OperatorPassword string `env:"OPERATOR_PASSWORD" envDefault:"operator123"`

	ParamsFile      string `env:"PARAMS_FILE"`
	Seed            int64  `env:"SIM_SEED" envDefault:"0"`
	StartYear       int    `env:"SIM_START_YEAR" envDefault:"2015"`
	EndYear         int    `env:"SIM_END_YEAR" envDefault:"2016"`
	SlotCount       int    `env:"SIM_SLOT_COUNT" envDefault:"100"`
	GenerateOnStart bool   `env:"GENERATE_ON_START" envDefault:"false"`
}

// Debug reports whether the server runs in gin debug mode.
func (c *Config) Debug() bool {
	return c.GinMode == "debug"
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case DriverSQLite, DriverMongo:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.EndYear < cfg.StartYear {
		return nil, fmt.Errorf("SIM_END_YEAR %d is before SIM_START_YEAR %d", cfg.EndYear, cfg.StartYear)
	}
	return &cfg, nil
}
