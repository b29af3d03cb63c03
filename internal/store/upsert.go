// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

// Outcome classifies what the upsert engine did with one record.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeSkipped
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "error"
	}
}

// BatchStats aggregates upsert outcomes for one batch or one whole run.
type BatchStats struct {
	Total    int
	Inserted int
	Skipped  int
	Errors   int
}

// SuccessRate is the fraction of records either inserted or already
// present, as a percentage.
func (s BatchStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Inserted+s.Skipped) / float64(s.Total) * 100
}

func (s *BatchStats) add(o BatchStats) {
	s.Total += o.Total
	s.Inserted += o.Inserted
	s.Skipped += o.Skipped
	s.Errors += o.Errors
}

// insertSQL writes all columns. The conflict branch updates only the
// volatile subset (titles, temporal fields, citation-driven counts and
// flags) plus the modification timestamp; provenance fields (doi, journal
// metadata, topic classification, OA fields) keep their first-written
// values.
const insertSQL = `INSERT INTO papers (
	id, doi, title, display_name,
	publication_year, publication_date, created_date, updated_date,
	language, paper_type, type_crossref,
	is_open_access, oa_status, oa_url,
	cited_by_count, referenced_works_count, authors_count,
	countries_distinct_count, institutions_distinct_count,
	citation_normalized_percentile, is_in_top_1_percent, is_in_top_10_percent,
	journal_name, journal_issn, journal_is_oa, journal_is_indexed_scopus,
	journal_is_core, journal_host_organization,
	primary_topic_name, primary_topic_score, primary_subfield_name,
	primary_field_name, primary_domain_name,
	is_retracted, is_paratext, has_fulltext
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	updated_at = CURRENT_TIMESTAMP,
	title = excluded.title,
	display_name = excluded.display_name,
	publication_year = excluded.publication_year,
	publication_date = excluded.publication_date,
	cited_by_count = excluded.cited_by_count,
	referenced_works_count = excluded.referenced_works_count,
	authors_count = excluded.authors_count,
	countries_distinct_count = excluded.countries_distinct_count,
	institutions_distinct_count = excluded.institutions_distinct_count,
	citation_normalized_percentile = excluded.citation_normalized_percentile,
	is_in_top_1_percent = excluded.is_in_top_1_percent,
	is_in_top_10_percent = excluded.is_in_top_10_percent`

func recordArgs(r *types.PaperRecord) []any {
	return []any{
		r.ID, r.DOI, r.Title, r.DisplayName,
		r.PublicationYear, r.PublicationDate, r.CreatedDate, r.UpdatedDate,
		r.Language, r.PaperType, r.TypeCrossref,
		r.IsOpenAccess, r.OAStatus, r.OAURL,
		r.CitedByCount, r.ReferencedWorksCount, r.AuthorsCount,
		r.CountriesDistinctCount, r.InstitutionsDistinctCount,
		r.CitationNormalizedPercentile, r.IsInTop1Percent, r.IsInTop10Percent,
		r.JournalName, r.JournalISSN, r.JournalIsOA, r.JournalIsIndexedScopus,
		r.JournalIsCore, r.JournalHostOrganization,
		r.PrimaryTopicName, r.PrimaryTopicScore, r.PrimarySubfieldName,
		r.PrimaryFieldName, r.PrimaryDomainName,
		r.IsRetracted, r.IsParatext, r.HasFulltext,
	}
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) existsIn(ctx context.Context, q dbtx, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, s.d.rebind(`SELECT 1 FROM papers WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking existence of %s: %w", id, err)
	}
	return true, nil
}

func (s *Store) insertIn(ctx context.Context, q dbtx, rec *types.PaperRecord) error {
	if _, err := q.ExecContext(ctx, s.d.rebind(insertSQL), recordArgs(rec)...); err != nil {
		return fmt.Errorf("inserting %s: %w", rec.ID, err)
	}
	return nil
}

// Upsert writes one record outside any batch: skipped when the id already
// exists, inserted otherwise. The existence probe runs before the insert,
// so the operation is insert-if-absent under the single-writer assumption,
// not an atomic upsert.
func (s *Store) Upsert(ctx context.Context, rec *types.PaperRecord) (Outcome, error) {
	exists, err := s.existsIn(ctx, s.db, rec.ID)
	if err != nil {
		return OutcomeError, err
	}
	if exists {
		return OutcomeSkipped, nil
	}
	if err := s.insertIn(ctx, s.db, rec); err != nil {
		return OutcomeError, err
	}
	return OutcomeInserted, nil
}

// Reupsert force-writes one record through the conflict branch regardless
// of existence, refreshing the volatile field subset. Used when volatile
// metrics should be updated for records already present.
func (s *Store) Reupsert(ctx context.Context, rec *types.PaperRecord) error {
	return s.insertIn(ctx, s.db, rec)
}

// UpsertBatch writes one group of records inside a single transaction.
// Each record is wrapped in a savepoint so an individual failure is rolled
// back, counted, and logged without aborting the rest of the group; this
// also keeps PostgreSQL transactions usable after a statement error. A
// commit failure discards the whole group and reports every record in it
// as an error.
//
// The returned error is non-nil only when the transaction could not be
// started; callers should treat that as a connectivity failure.
func (s *Store) UpsertBatch(ctx context.Context, recs []*types.PaperRecord, w io.Writer) (BatchStats, error) {
	stats := BatchStats{Total: len(recs)}
	if len(recs) == 0 {
		return stats, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BatchStats{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, rec := range recs {
		sp := fmt.Sprintf("rec_%d", i)
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
			fmt.Fprintf(w, "error: savepoint for %s: %v\n", rec.ID, err)
			stats.Errors++
			continue
		}

		outcome, err := s.upsertInTx(ctx, tx, rec)
		if err != nil {
			tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp)
			fmt.Fprintf(w, "error: upserting %s: %v\n", rec.ID, err)
			stats.Errors++
			continue
		}
		tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp)

		switch outcome {
		case OutcomeInserted:
			stats.Inserted++
		case OutcomeSkipped:
			stats.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		fmt.Fprintf(w, "error: committing batch of %d: %v\n", len(recs), err)
		return BatchStats{Total: len(recs), Errors: len(recs)}, nil
	}
	return stats, nil
}

func (s *Store) upsertInTx(ctx context.Context, tx *sql.Tx, rec *types.PaperRecord) (Outcome, error) {
	exists, err := s.existsIn(ctx, tx, rec.ID)
	if err != nil {
		return OutcomeError, err
	}
	if exists {
		return OutcomeSkipped, nil
	}
	if err := s.insertIn(ctx, tx, rec); err != nil {
		return OutcomeError, err
	}
	return OutcomeInserted, nil
}

// UpsertAll partitions records into fixed-size groups, commits each group
// as one transaction, and emits progress after every group plus a final
// summary. Records are written in input order; a failed group never stops
// the following ones.
func (s *Store) UpsertAll(ctx context.Context, recs []*types.PaperRecord, batchSize int, w io.Writer) (BatchStats, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	var run BatchStats
	batches := 0
	for start := 0; start < len(recs); start += batchSize {
		end := start + batchSize
		if end > len(recs) {
			end = len(recs)
		}
		batches++

		stats, err := s.UpsertBatch(ctx, recs[start:end], w)
		run.add(stats)
		if err != nil {
			return run, fmt.Errorf("batch %d: %w", batches, err)
		}
		fmt.Fprintf(w, "batch %d committed: inserted %d, skipped %d, errors %d\n",
			batches, stats.Inserted, stats.Skipped, stats.Errors)
	}

	fmt.Fprintf(w, "\nupload summary: total %d, inserted %d, skipped %d, errors %d (success rate %.1f%%)\n",
		run.Total, run.Inserted, run.Skipped, run.Errors, run.SuccessRate())
	return run, nil
}
