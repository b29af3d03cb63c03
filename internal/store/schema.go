// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"io"
)

// createTableSQL uses only column types both backends accept.
const createTableSQL = `CREATE TABLE IF NOT EXISTS papers (
	id VARCHAR(255) PRIMARY KEY,
	doi VARCHAR(500) UNIQUE,
	title TEXT NOT NULL,
	display_name TEXT,

	publication_year INTEGER,
	publication_date DATE,
	created_date DATE,
	updated_date TIMESTAMP,

	language VARCHAR(10),
	paper_type VARCHAR(50),
	type_crossref VARCHAR(100),

	is_open_access BOOLEAN,
	oa_status VARCHAR(50),
	oa_url TEXT,

	cited_by_count INTEGER DEFAULT 0,
	referenced_works_count INTEGER DEFAULT 0,
	authors_count INTEGER DEFAULT 0,
	countries_distinct_count INTEGER DEFAULT 0,
	institutions_distinct_count INTEGER DEFAULT 0,

	citation_normalized_percentile DECIMAL(5,4),
	is_in_top_1_percent BOOLEAN DEFAULT FALSE,
	is_in_top_10_percent BOOLEAN DEFAULT FALSE,

	journal_name TEXT,
	journal_issn VARCHAR(20),
	journal_is_oa BOOLEAN,
	journal_is_indexed_scopus BOOLEAN,
	journal_is_core BOOLEAN,
	journal_host_organization TEXT,

	primary_topic_name TEXT,
	primary_topic_score DECIMAL(6,4),
	primary_subfield_name TEXT,
	primary_field_name TEXT,
	primary_domain_name TEXT,

	is_retracted BOOLEAN DEFAULT FALSE,
	is_paratext BOOLEAN DEFAULT FALSE,
	has_fulltext BOOLEAN DEFAULT FALSE,

	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

var createIndexSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_papers_publication_year ON papers(publication_year)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_cited_by_count ON papers(cited_by_count)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_is_open_access ON papers(is_open_access)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_primary_domain ON papers(primary_domain_name)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_journal ON papers(journal_name)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_created_at ON papers(created_at)`,
}

// TableExists reports whether the papers table is present.
func (s *Store) TableExists(ctx context.Context) (bool, error) {
	query := `SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers'`
	if s.d == dialectPostgres {
		query = `SELECT count(*) FROM information_schema.tables
			WHERE table_schema='public' AND table_name='papers'`
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return false, fmt.Errorf("checking papers table: %w", err)
	}
	return n > 0, nil
}

// CreateSchema creates the papers table and its indexes. Safe to call when
// the schema already exists.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("creating papers table: %w", err)
	}
	for _, stmt := range createIndexSQL {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// DropSchema removes the papers table. Used by forced recreation only.
func (s *Store) DropSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS papers`); err != nil {
		return fmt.Errorf("dropping papers table: %w", err)
	}
	return nil
}

// EnsureSchema makes the papers table available, recreating it from
// scratch when force is set.
func (s *Store) EnsureSchema(ctx context.Context, force bool, w io.Writer) error {
	exists, err := s.TableExists(ctx)
	if err != nil {
		return err
	}

	if exists && !force {
		fmt.Fprintln(w, "papers table already exists")
		return nil
	}
	if exists && force {
		fmt.Fprintln(w, "dropping papers table (forced recreation)")
		if err := s.DropSchema(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "creating papers table")
	return s.CreateSchema(ctx)
}

// Column describes one papers column, in table order.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// DescribeSchema returns the ordered column descriptors of the papers table.
func (s *Store) DescribeSchema(ctx context.Context) ([]Column, error) {
	if s.d == dialectPostgres {
		return s.describePostgres(ctx)
	}
	return s.describeSQLite(ctx)
}

func (s *Store) describePostgres(ctx context.Context) ([]Column, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, data_type, is_nullable
		 FROM information_schema.columns
		 WHERE table_schema='public' AND table_name='papers'
		 ORDER BY ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("describing papers table: %w", err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		var nullable string
		if err := rows.Scan(&c.Name, &c.Type, &nullable); err != nil {
			return nil, fmt.Errorf("scanning column descriptor: %w", err)
		}
		c.Nullable = nullable == "YES"
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (s *Store) describeSQLite(ctx context.Context) ([]Column, error) {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(papers)`)
	if err != nil {
		return nil, fmt.Errorf("describing papers table: %w", err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			c                Column
			dflt             any
		)
		if err := rows.Scan(&cid, &c.Name, &c.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning column descriptor: %w", err)
		}
		c.Nullable = notNull == 0 && pk == 0
		cols = append(cols, c)
	}
	return cols, rows.Err()
}
