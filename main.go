package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"hermannm.dev/devlog"
	"hermannm.dev/devlog/log"
	"hermannm.dev/pivot/api"
	"hermannm.dev/pivot/config"
	"hermannm.dev/pivot/db"
	"hermannm.dev/pivot/db/clickhouse"
	"hermannm.dev/pivot/db/elasticsearch"
	"hermannm.dev/pivot/layout"
)

func main() {
	conf, err := config.ReadFromEnv()
	if err != nil {
		log.ErrorCause(err, "failed to read config from env")
		os.Exit(1)
	}

	logHandler := devlog.NewHandler(os.Stdout, &devlog.Options{Level: conf.LogLevel})
	slog.SetDefault(slog.New(logHandler))

	log.Infof("connecting to %s...", conf.DB)
	database, err := initializeDatabase(conf)
	if err != nil {
		log.ErrorCause(err, "failed to initialize database")
		os.Exit(1)
	}

	defaultLayout, err := readDefaultLayout(conf)
	if err != nil {
		log.ErrorCause(err, "failed to read default pivot layout")
		os.Exit(1)
	}

	pivotAPI := api.NewPivotAPI(database, http.NewServeMux(), conf, defaultLayout)

	log.Infof("listening on port %s...", conf.API.Port)
	if err := pivotAPI.ListenAndServe(); err != nil {
		log.ErrorCause(err, "server stopped")
		os.Exit(1)
	}
}

func initializeDatabase(conf config.Config) (db.AnalysisDB, error) {
	switch conf.DB {
	case config.DBClickHouse:
		return clickhouse.NewClickHouseDB(conf)
	case config.DBElasticsearch:
		return elasticsearch.NewElasticsearchDB(conf)
	default:
		return nil, fmt.Errorf("unsupported database '%s'", conf.DB)
	}
}

// Returns nil if no layout file is configured.
func readDefaultLayout(conf config.Config) (*layout.Layout, error) {
	if conf.Pivot.LayoutFile == "" {
		return nil, nil
	}

	defaultLayout, err := layout.ReadFile(conf.Pivot.LayoutFile)
	if err != nil {
		return nil, err
	}

	log.Infof("using default pivot layout from '%s'", conf.Pivot.LayoutFile)
	return &defaultLayout, nil
}
