// Package postgres wires the gate to engine state kept in PostgreSQL.
//
// It uses the pgx stdlib driver, so callers only need a DSN; the driver
// import is taken care of here.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/petrijr/flowgate"
	"github.com/petrijr/flowgate/pkg/engine"
)

// Open opens a PostgreSQL database handle via the pgx stdlib driver and
// verifies connectivity before returning it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}
	return db, nil
}

// NewGateway initializes the PostgreSQL-backed read stores on db and combines
// them with the given runtime and bus.
func NewGateway(db *sql.DB, runtime engine.Runtime, bus engine.Bus) (engine.Gateway, error) {
	return flowgate.NewPostgresGateway(db, runtime, bus)
}
