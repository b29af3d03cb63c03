// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

func ptr[T any](v T) *T { return &v }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "papers.db")

	st, err := Open(context.Background(), types.StoreConfig{DSN: dsn}, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testRecord(id string) *types.PaperRecord {
	return &types.PaperRecord{
		ID:           id,
		DOI:          ptr("https://doi.org/10.1/" + id),
		Title:        ptr("Title of " + id),
		DisplayName:  ptr("Title of " + id),
		CitedByCount: 5,
	}
}

// --- rebind ---

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		d       dialect
		query   string
		want    string
	}{
		{"sqlite passthrough", dialectSQLite, "SELECT 1 FROM papers WHERE id = ?", "SELECT 1 FROM papers WHERE id = ?"},
		{"postgres single", dialectPostgres, "SELECT 1 FROM papers WHERE id = ?", "SELECT 1 FROM papers WHERE id = $1"},
		{"postgres multiple", dialectPostgres, "INSERT INTO t (a, b, c) VALUES (?, ?, ?)", "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)"},
		{"no placeholders", dialectPostgres, "SELECT count(*) FROM papers", "SELECT count(*) FROM papers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.rebind(tt.query))
		})
	}
}

func TestOpenEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), types.StoreConfig{}, io.Discard)
	require.Error(t, err)
}

// --- schema ---

func TestSchemaLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	exists, err := st.TableExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, st.CreateSchema(ctx))
	// Creation is idempotent.
	require.NoError(t, st.CreateSchema(ctx))

	exists, err = st.TableExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	cols, err := st.DescribeSchema(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cols)

	assert.Equal(t, "id", cols[0].Name)
	assert.False(t, cols[0].Nullable)
	assert.Equal(t, "title", cols[2].Name)
	assert.False(t, cols[2].Nullable)
	assert.Equal(t, "doi", cols[1].Name)
	assert.True(t, cols[1].Nullable)

	// 36 data columns plus created_at and updated_at.
	assert.Len(t, cols, 38)
}

func TestEnsureSchemaForce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.EnsureSchema(ctx, false, io.Discard))
	_, err := st.Upsert(ctx, testRecord("W1"))
	require.NoError(t, err)

	// Plain ensure keeps stored data.
	require.NoError(t, st.EnsureSchema(ctx, false, io.Discard))
	assert.Equal(t, 1, countRows(t, st))

	// Forced recreation discards it.
	require.NoError(t, st.EnsureSchema(ctx, true, io.Discard))
	assert.Equal(t, 0, countRows(t, st))
}

// --- single upsert ---

func TestUpsertInsertThenSkip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	require.NoError(t, st.CreateSchema(ctx))

	outcome, err := st.Upsert(ctx, testRecord("W1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	outcome, err = st.Upsert(ctx, testRecord("W1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)

	assert.Equal(t, 1, countRows(t, st))
}

// --- idempotence ---

func TestUpsertAllIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	require.NoError(t, st.CreateSchema(ctx))

	recs := []*types.PaperRecord{testRecord("W1"), testRecord("W2"), testRecord("W3")}

	first, err := st.UpsertAll(ctx, recs, 2, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, BatchStats{Total: 3, Inserted: 3}, first)

	second, err := st.UpsertAll(ctx, recs, 2, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, BatchStats{Total: 3, Skipped: 3}, second)

	// Immutable fields keep their first-written values.
	var doi string
	require.NoError(t, st.DB().QueryRow(`SELECT doi FROM papers WHERE id = 'W2'`).Scan(&doi))
	assert.Equal(t, "https://doi.org/10.1/W2", doi)
}

// --- conflict policy ---

func TestReupsertUpdatesVolatileKeepsProvenance(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	require.NoError(t, st.CreateSchema(ctx))

	_, err := st.Upsert(ctx, testRecord("W1"))
	require.NoError(t, err)

	changed := testRecord("W1")
	changed.DOI = ptr("https://doi.org/10.9/other")
	changed.Title = ptr("Revised Title")
	changed.CitedByCount = 42
	changed.JournalName = ptr("New Journal")
	require.NoError(t, st.Reupsert(ctx, changed))

	var (
		doi, title string
		cited      int
		journal    *string
	)
	row := st.DB().QueryRow(`SELECT doi, title, cited_by_count, journal_name FROM papers WHERE id = 'W1'`)
	require.NoError(t, row.Scan(&doi, &title, &cited, &journal))

	// Volatile fields follow the incoming record.
	assert.Equal(t, 42, cited)
	assert.Equal(t, "Revised Title", title)
	// Provenance fields keep their first-written values.
	assert.Equal(t, "https://doi.org/10.1/W1", doi)
	assert.Nil(t, journal)
}

// --- batch isolation ---

func TestUpsertAllBatchIsolation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	require.NoError(t, st.CreateSchema(ctx))

	recs := make([]*types.PaperRecord, 250)
	for i := range recs {
		recs[i] = testRecord(fmt.Sprintf("W%03d", i))
	}
	// One record in the second batch violates the NOT NULL title
	// constraint and must fail alone.
	recs[150].Title = nil

	var log strings.Builder
	stats, err := st.UpsertAll(ctx, recs, 100, &log)
	require.NoError(t, err)

	assert.Equal(t, 250, stats.Total)
	assert.Equal(t, 249, stats.Inserted)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 0, stats.Skipped)

	// All three batches committed.
	assert.Equal(t, 249, countRows(t, st))
	assert.Contains(t, log.String(), "batch 3 committed")
	assert.Contains(t, log.String(), "error: upserting W150")
}

func TestUpsertAllEmptyInput(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	require.NoError(t, st.CreateSchema(ctx))

	stats, err := st.UpsertAll(ctx, nil, 100, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, BatchStats{}, stats)
}

// --- stats ---

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name  string
		stats BatchStats
		want  float64
	}{
		{"all inserted", BatchStats{Total: 10, Inserted: 10}, 100},
		{"mixed", BatchStats{Total: 10, Inserted: 7, Skipped: 2, Errors: 1}, 90},
		{"empty", BatchStats{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.stats.SuccessRate(), 0.001)
		})
	}
}

func countRows(t *testing.T, st *Store) int {
	t.Helper()
	var n int
	require.NoError(t, st.DB().QueryRow(`SELECT count(*) FROM papers`).Scan(&n))
	return n
}
