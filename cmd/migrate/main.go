package main

import (
	"database/sql"
	"flag"
	"os"

	_ "github.com/ClickHouse/clickhouse-go/v2" // ClickHouse driver
	"github.com/pressly/goose/v3"

	"github.com/navid-fn/pricefeed/configs"
	"github.com/navid-fn/pricefeed/internal/crawler"
	"github.com/navid-fn/pricefeed/internal/migrations"
)

func main() {
	down := flag.Bool("down", false, "Roll back the most recent migration")
	flag.Parse()

	cfg := configs.AppLoad()
	logger := crawler.NewLogger(cfg.LogLevel)

	// Connect using native ClickHouse driver
	db, err := sql.Open("clickhouse", cfg.DBDSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// Verify connection
	if err := db.Ping(); err != nil {
		logger.Errorf("Failed to ping database: %v", err)
		os.Exit(1)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("clickhouse"); err != nil {
		logger.Errorf("Goose: failed to set dialect: %v", err)
		os.Exit(1)
	}

	if *down {
		logger.Info("Rolling back last migration...")
		err = goose.Down(db, ".")
	} else {
		logger.Info("Running database migrations...")
		err = goose.Up(db, ".")
	}
	if err != nil {
		logger.Errorf("Goose migration failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Migrations completed successfully")
}
