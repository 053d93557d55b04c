package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"sokofresh/config"
	"sokofresh/internal/pkg/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Warning: .env file not found or failed to read. Loading configs from system environment only: %v", err)
	}

	cfg := config.LoadConfig()
	flag.Parse()

	// Connect to the configured database
	var (
		db      *sql.DB
		dialect string
		err     error
	)
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err = database.NewPostgresDB(cfg.DatabaseURL, database.DefaultPoolConfig())
		dialect = "postgres"
	case config.DriverSQLite:
		db, err = database.NewSQLiteDB(cfg.SQLitePath)
		dialect = "sqlite3"
	default:
		log.Fatalf("goose: STORAGE_DRIVER=%q has no schema to migrate", cfg.StorageDriver)
	}
	if err != nil {
		log.Fatalf("goose: failed to connect to DB: %v\n", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("goose: failed to close DB: %v\n", err)
		}
	}()

	goose.SetBaseFS(database.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		log.Fatalf("goose: %v", err)
	}

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"} // Default to 'up' if no command is provided
	}

	command := arguments[0]
	var args []string
	if len(arguments) > 1 {
		args = arguments[1:]
	}

	if err := goose.Run(command, db, database.MigrationsDir, args...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}

	fmt.Printf("goose %s success\n", command)
}
