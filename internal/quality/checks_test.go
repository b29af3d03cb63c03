// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a throwaway database with a constraint-free papers
// table, so violating rows can be seeded directly.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "quality.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE papers (
		id TEXT,
		doi TEXT,
		title TEXT,
		cited_by_count INTEGER,
		primary_topic_score REAL
	)`)
	require.NoError(t, err)
	return db
}

type row struct {
	id    any
	doi   any
	title any
	cited int
	score any
}

func seed(t *testing.T, db *sql.DB, rows []row) {
	t.Helper()
	for _, r := range rows {
		_, err := db.Exec(
			`INSERT INTO papers (id, doi, title, cited_by_count, primary_topic_score)
			 VALUES (?, ?, ?, ?, ?)`,
			r.id, r.doi, r.title, r.cited, r.score)
		require.NoError(t, err)
	}
}

func findCheck(t *testing.T, r Report, name string) Check {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not in report", name)
	return Check{}
}

func TestRunAllCleanData(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, []row{
		{"W1", "10.1/a", "Paper One", 0, 0.0},
		{"W2", "10.1/b", "Paper Two", 150, 0.5},
		{"W3", nil, "Paper Three", citationUpperBound, 1.0},
	})

	report := NewValidator(db).RunAll(context.Background(), "run-1", io.Discard)

	require.Len(t, report.Checks, 4)
	assert.True(t, report.Clean())
	assert.Equal(t, "run-1", report.RunID)

	passed, failed, errored := report.Counts()
	assert.Equal(t, 4, passed)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 0, errored)
}

func TestRequiredFieldsMissing(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, []row{
		{"W1", nil, "Paper One", 0, nil},
		{"W2", "10.1/b", nil, 0, nil},
		{nil, nil, "Orphan", 0, nil},
	})

	report := NewValidator(db).RunAll(context.Background(), "", io.Discard)
	c := findCheck(t, report, "missing_required_fields")

	assert.Equal(t, StatusFail, c.Status)
	assert.Len(t, c.Examples, 2)
	assert.Contains(t, c.Examples[0], "title=<null>")
	assert.False(t, report.Clean())
}

func TestCitationCountBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		cited int
		want  Status
	}{
		{"zero", 0, StatusPass},
		{"at upper bound", citationUpperBound, StatusPass},
		{"above upper bound", citationUpperBound + 1, StatusFail},
		{"negative", -1, StatusFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			seed(t, db, []row{{"W1", nil, "Paper", tt.cited, nil}})

			report := NewValidator(db).RunAll(context.Background(), "", io.Discard)
			c := findCheck(t, report, "citation_count_validation")
			assert.Equal(t, tt.want, c.Status)
		})
	}
}

func TestCitationExamplesWorstFirst(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, []row{
		{"W1", nil, "Mild", citationUpperBound + 5, nil},
		{"W2", nil, "Severe", citationUpperBound + 500, nil},
	})

	report := NewValidator(db).RunAll(context.Background(), "", io.Discard)
	c := findCheck(t, report, "citation_count_validation")

	require.Len(t, c.Examples, 2)
	assert.Contains(t, c.Examples[0], "id=W2")
}

func TestScoreRangeBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		score any
		want  Status
	}{
		{"zero", 0.0, StatusPass},
		{"one", 1.0, StatusPass},
		{"just above one", 1.0001, StatusFail},
		{"negative", -0.25, StatusFail},
		{"null out of scope", nil, StatusPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			seed(t, db, []row{{"W1", nil, "Paper", 0, tt.score}})

			report := NewValidator(db).RunAll(context.Background(), "", io.Discard)
			c := findCheck(t, report, "score_range_validation")
			assert.Equal(t, tt.want, c.Status)
		})
	}
}

func TestDuplicateDetection(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, []row{
		{"W1", "10.1/a", "First", 0, nil},
		{"W1", "10.1/b", "Second", 0, nil},
		{"W2", "10.1/c", "Third", 0, nil},
		{"W3", "10.1/c", "Fourth", 0, nil},
		// Null dois never count as duplicates of each other.
		{"W4", nil, "Fifth", 0, nil},
		{"W5", nil, "Sixth", 0, nil},
	})

	report := NewValidator(db).RunAll(context.Background(), "", io.Discard)
	c := findCheck(t, report, "duplicate_detection")

	assert.Equal(t, StatusFail, c.Status)
	assert.Contains(t, c.Examples, "id=W1 appears 2 times")
	assert.Contains(t, c.Examples, "doi=10.1/c appears 2 times")
}

func TestChecksErrorIndependently(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer db.Close()

	// No papers table at all: every check must error on its own, and the
	// run still produces a full report.
	var log strings.Builder
	report := NewValidator(db).RunAll(context.Background(), "", &log)

	require.Len(t, report.Checks, 4)
	for _, c := range report.Checks {
		assert.Equal(t, StatusError, c.Status, c.Name)
		assert.NotEmpty(t, c.Err, c.Name)
	}
	assert.False(t, report.Clean())
	assert.Contains(t, log.String(), "error:")
}

func TestRenderAndWriteFile(t *testing.T) {
	report := Report{
		GeneratedAt: time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC),
		RunID:       "run-42",
		Checks: []Check{
			{Name: "missing_required_fields", Status: StatusPass,
				Metrics: []Metric{{"total papers", "3"}}},
			{Name: "duplicate_detection", Status: StatusFail,
				Examples: []string{"id=W1 appears 2 times"}},
		},
	}

	text := Render(report)
	assert.Contains(t, text, "DATA QUALITY REPORT")
	assert.Contains(t, text, "Run: run-42")
	assert.Contains(t, text, "Passed: 1")
	assert.Contains(t, text, "Failed: 1")
	assert.Contains(t, text, "MISSING REQUIRED FIELDS")
	assert.Contains(t, text, "- id=W1 appears 2 times")

	dir := t.TempDir()
	path, err := WriteFile(report, filepath.Join(dir, "reports"))
	require.NoError(t, err)
	assert.Equal(t, "data_quality_report_20260831_103000.txt", filepath.Base(path))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, text, string(written))
}
