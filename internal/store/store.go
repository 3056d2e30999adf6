// Package store persists users and posts in SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store wraps the database handle. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the database named by dsn. A postgres:// or
// postgresql:// URL selects PostgreSQL, anything else is a SQLite path.
func Open(dsn string) (*Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		return &Store{db: db, dialect: dialectPostgres}, nil
	}

	db, err := sql.Open("sqlite3", sqliteDSN(dsn))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	return &Store{db: db, dialect: dialectSQLite}, nil
}

// sqliteDSN turns on foreign keys and makes transactions take the write
// lock up front so check-then-insert cannot interleave.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they don't exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if s.dialect == dialectPostgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate")
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $N for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// withTx runs fn inside a transaction, committing when fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}
