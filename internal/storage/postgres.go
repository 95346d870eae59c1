// Package storage persists tracked items and the cached credential in PostgreSQL.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections.
	// A run only ever holds one.
	DefaultMaxOpenConns = 2

	// DefaultMaxIdleConns is the default maximum number of idle connections
	DefaultMaxIdleConns = 1

	// DefaultConnMaxLifetime is the default maximum lifetime of a connection
	DefaultConnMaxLifetime = 5 * time.Minute

	// DefaultPingTimeout is the default timeout for pinging the database
	DefaultPingTimeout = 5 * time.Second
)

// DB is the connection pool runs acquire their connection from.
type DB struct {
	db *sqlx.DB
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	return &DB{db: db}, nil
}

// NewDB wraps an existing pool.
func NewDB(db *sqlx.DB) *DB {
	return &DB{db: db}
}

// Acquire checks out one dedicated connection. The caller must Release the session.
func (d *DB) Acquire(ctx context.Context) (*Session, error) {
	conn, err := d.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Session{Repository: NewRepository(conn), conn: conn}, nil
}

// Close closes the pool.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Session is a Repository bound to one connection for the length of a run.
type Session struct {
	*Repository
	conn *sqlx.Conn
}

// Release returns the connection to the pool.
func (s *Session) Release() error {
	return s.conn.Close()
}
