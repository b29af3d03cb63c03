// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists normalized paper records: connection handling,
// schema ownership, and the idempotent batched upsert engine.
//
// Two backends share one code path: a postgres:// DSN opens PostgreSQL via
// lib/pq, anything else is treated as a SQLite file path. The SQL is
// written once with ? placeholders and rebound for PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// rebind translates ? placeholders to the $N form PostgreSQL expects.
// SQLite queries pass through unchanged.
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
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

// Store is the papers database handle. It is acquired once per pipeline
// run and must not be shared across concurrent runs: the existence-check-
// then-insert pattern in the upsert engine assumes a single writer.
type Store struct {
	db *sql.DB
	d  dialect
}

// Open connects to the database selected by the DSN, verifies the
// connection with a version probe, and logs the server version.
func Open(ctx context.Context, cfg types.StoreConfig, w io.Writer) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("empty database DSN")
	}

	driver, d := "sqlite3", dialectSQLite
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		driver, d = "postgres", dialectPostgres
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, d: d}

	version, err := s.serverVersion(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("testing database connection: %w", err)
	}
	fmt.Fprintf(w, "connected to %s (%s)\n", driver, version)

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for read-only consumers such as the
// quality checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) serverVersion(ctx context.Context) (string, error) {
	query := `SELECT sqlite_version()`
	if s.d == dialectPostgres {
		query = `SELECT version()`
	}
	var version string
	if err := s.db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}
