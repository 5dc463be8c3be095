package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // registers the postgres driver
)

// Database wraps the PostgreSQL connection and pins the schema namespace
// (hcl or hcl_test) that all repositories address.
type Database struct {
	conn   *sql.DB
	schema string
}

// NewDatabase opens a connection pool and verifies connectivity.
// schema is the namespace every table reference is qualified with.
func NewDatabase(dsn, schema string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{conn: db, schema: schema}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries
func (db *Database) DB() *sql.DB {
	return db.conn
}

// Schema returns the schema namespace this connection addresses.
func (db *Database) Schema() string {
	return db.schema
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}

// IntegrityError wraps a database constraint violation. Key invariants are
// enforced by the schema; a violation that survives the upsert logic means
// the data is broken upstream and the run must abort.
type IntegrityError struct {
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("integrity violation on %s: %v", e.Constraint, e.Err)
	}
	return fmt.Sprintf("integrity violation: %v", e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// ClassifyError converts lib/pq integrity-class errors (SQLSTATE 23xxx)
// into *IntegrityError and returns other errors unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && len(pqErr.Code) >= 2 && pqErr.Code[:2] == "23" {
		return &IntegrityError{Constraint: pqErr.Constraint, Err: err}
	}
	return err
}
