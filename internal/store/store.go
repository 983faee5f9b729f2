package store

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a query matches no rows.
var ErrNotFound = errors.New("record not found")

// Store wraps the Postgres connection with the queries the simulation needs.
// All engine and handler database access goes through here.
type Store struct {
	db *sql.DB
}

// NewStore creates a store backed by the given connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}
