// Package db implements the Postgres release store.
package db

import (
	"database/sql"

	// postgres driver for database/sql
	_ "github.com/lib/pq"
)

// Connect to the database using the given driver and connection URL.
func Connect(driver string, connectionURL string) (*sql.DB, error) {
	conn, err := sql.Open(driver, connectionURL)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}
	return conn, nil
}
