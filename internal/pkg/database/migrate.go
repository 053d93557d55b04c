package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Migrations contém os arquivos SQL versionados do goose.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir é o diretório dentro de Migrations.
const MigrationsDir = "migrations"

// RunMigrations aplica todas as migrações pendentes ("up") no banco.
// dialect segue os nomes do goose: "sqlite3" ou "postgres".
func RunMigrations(ctx context.Context, db *sql.DB, dialect string) error {
	goose.SetBaseFS(Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose: dialeto inválido %q: %w", dialect, err)
	}

	if err := goose.UpContext(ctx, db, MigrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
