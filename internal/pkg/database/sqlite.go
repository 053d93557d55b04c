package database

import (
	"database/sql"
	"fmt"

	// Driver SQLite puro Go (sem cgo), registrado como "sqlite".
	_ "modernc.org/sqlite"
)

// NewSQLiteDB abre o arquivo SQLite local usado como escopo de longa duração.
// path pode ser ":memory:" nos testes.
func NewSQLiteDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir o SQLite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao realizar o ping inicial no SQLite: %w", err)
	}

	// SQLite aceita um único escritor; uma conexão evita "database is locked"
	// e mantém o banco ":memory:" vivo entre os comandos.
	db.SetMaxOpenConns(1)

	return db, nil
}
