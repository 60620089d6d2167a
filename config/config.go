package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"hermannm.dev/wrap"
)

type Config struct {
	BaseConfig
	ClickHouse    ClickHouse
	Elasticsearch Elasticsearch
}

type BaseConfig struct {
	IsProduction bool        `env:"PRODUCTION"`
	DB           SupportedDB `env:"DATABASE"`
	LogLevel     slog.Level  `env:"LOG_LEVEL" envDefault:"INFO"`
	API          API
	Pivot        Pivot
}

type API struct {
	Port string `env:"API_PORT"`
}

type Pivot struct {
	AllowDrillDown bool   `env:"PIVOT_ALLOW_DRILL_DOWN" envDefault:"true"`
	LegacyPathKeys bool   `env:"PIVOT_LEGACY_PATH_KEYS" envDefault:"false"`
	LayoutFile     string `env:"PIVOT_LAYOUT_FILE" envDefault:""`
	MaxRows        int    `env:"PIVOT_MAX_ROWS" envDefault:"100000"`
}

type ClickHouse struct {
	Address      string `env:"CLICKHOUSE_ADDRESS"`
	DatabaseName string `env:"CLICKHOUSE_DB_NAME"`
	Username     string `env:"CLICKHOUSE_USERNAME"`
	Password     string `env:"CLICKHOUSE_PASSWORD"`
	Debug        bool   `env:"CLICKHOUSE_DEBUG_ENABLED"`
}

type Elasticsearch struct {
	Address string `env:"ELASTICSEARCH_ADDRESS"`
	Debug   bool   `env:"ELASTICSEARCH_DEBUG_ENABLED"`
}

type SupportedDB string

const (
	DBClickHouse    SupportedDB = "clickhouse"
	DBElasticsearch SupportedDB = "elasticsearch"
)

// ReadFromEnv loads variables from a .env file if there is one, then parses the config from the
// environment. Only the settings of the selected database are required.
func ReadFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, wrap.Error(err, "failed to load .env file")
	}

	parseOptions := env.Options{RequiredIfNoDef: true}

	var config Config

	if err := env.ParseWithOptions(&config.BaseConfig, parseOptions); err != nil {
		return Config{}, err
	}

	switch config.DB {
	case DBClickHouse:
		if err := env.ParseWithOptions(&config.ClickHouse, parseOptions); err != nil {
			return Config{}, err
		}
	case DBElasticsearch:
		if err := env.ParseWithOptions(&config.Elasticsearch, parseOptions); err != nil {
			return Config{}, err
		}
	default:
		err := fmt.Errorf("must be one of: '%s', '%s'", DBClickHouse, DBElasticsearch)
		return Config{}, wrap.Errorf(err, "unsupported value '%s' for DATABASE in env", config.DB)
	}

	if config.Pivot.MaxRows < 0 {
		return Config{}, fmt.Errorf("PIVOT_MAX_ROWS must not be negative, got %d", config.Pivot.MaxRows)
	}

	return config, nil
}
