// File: internal/core/connection.go
package core

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Driver is the database/sql driver name of the embedded engine.
const Driver = "sqlite3"

// Connect opens a handle on the embedded engine limited to a single
// connection.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(Driver, dsn)
	if err != nil {
		return nil, Engine("open", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func Close(db *sqlx.DB) error {
	return Engine("close", db.Close())
}
