// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package quality runs rule-based checks against the persisted papers and
// renders a structured report. Checks are read-only and independent: one
// failing or erroring never blocks the others.
package quality

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"
)

// citationUpperBound is the plausibility ceiling for cited_by_count.
const citationUpperBound = 100000

// exampleLimit caps the representative offending rows per check.
const exampleLimit = 5

// Status is the outcome of one check. ERROR means the check itself could
// not execute; FAIL means it executed and found violations.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// Metric is one observability value surfaced by a check. Metrics inform
// triage; they are not pass/fail inputs.
type Metric struct {
	Label string
	Value string
}

// Check is the result of one quality rule.
type Check struct {
	Name     string
	Status   Status
	Err      string
	Metrics  []Metric
	Examples []string
}

// Report is a snapshot of all checks from one validation run. Reports are
// produced fresh each run and never merged with prior ones.
type Report struct {
	GeneratedAt time.Time
	RunID       string
	Checks      []Check
}

// Counts returns how many checks passed, failed, and errored.
func (r Report) Counts() (passed, failed, errored int) {
	for _, c := range r.Checks {
		switch c.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		default:
			errored++
		}
	}
	return
}

// Clean reports whether every check passed.
func (r Report) Clean() bool {
	passed, _, _ := r.Counts()
	return passed == len(r.Checks)
}

// Validator executes the fixed rule set against one papers database.
type Validator struct {
	db *sql.DB
}

// NewValidator wraps an open database handle. The validator never writes.
func NewValidator(db *sql.DB) *Validator {
	return &Validator{db: db}
}

// RunAll executes every check and assembles the report. A check that
// cannot execute is recorded with ERROR status and its message; the
// remaining checks still run.
func (v *Validator) RunAll(ctx context.Context, runID string, w io.Writer) Report {
	report := Report{GeneratedAt: time.Now(), RunID: runID}

	checks := []func(context.Context) Check{
		v.checkRequiredFields,
		v.checkCitationCounts,
		v.checkScoreRange,
		v.checkDuplicates,
	}
	for _, run := range checks {
		c := run(ctx)
		report.Checks = append(report.Checks, c)
		if c.Status == StatusError {
			fmt.Fprintf(w, "check %s: error: %s\n", c.Name, c.Err)
		} else {
			fmt.Fprintf(w, "check %s: %s\n", c.Name, c.Status)
		}
	}
	return report
}

// checkRequiredFields counts records missing id or title. Both columns are
// required for every stored paper.
func (v *Validator) checkRequiredFields(ctx context.Context) Check {
	c := Check{Name: "missing_required_fields"}

	var total, missingID, missingTitle, missingAny int
	err := v.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(CASE WHEN id IS NULL THEN 1 END),
			COUNT(CASE WHEN title IS NULL THEN 1 END),
			COUNT(CASE WHEN id IS NULL OR title IS NULL THEN 1 END)
		FROM papers`).Scan(&total, &missingID, &missingTitle, &missingAny)
	if err != nil {
		return errored(c, err)
	}

	c.Metrics = []Metric{
		{"total papers", fmt.Sprintf("%d", total)},
		{"missing id", fmt.Sprintf("%d", missingID)},
		{"missing title", fmt.Sprintf("%d", missingTitle)},
	}
	c.Status = statusFor(missingAny)
	if missingAny == 0 {
		return c
	}

	rows, err := v.db.QueryContext(ctx, `
		SELECT COALESCE(id, '<null>'), COALESCE(title, '<null>'), COALESCE(doi, '<null>')
		FROM papers WHERE id IS NULL OR title IS NULL
		LIMIT `+fmt.Sprint(exampleLimit))
	if err != nil {
		return errored(c, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, title, doi string
		if err := rows.Scan(&id, &title, &doi); err != nil {
			return errored(c, err)
		}
		c.Examples = append(c.Examples, fmt.Sprintf("id=%s title=%s doi=%s", id, title, doi))
	}
	if err := rows.Err(); err != nil {
		return errored(c, err)
	}
	return c
}

// checkCitationCounts flags negative and implausibly high citation counts.
// Min/max/mean are reported for observability only.
func (v *Validator) checkCitationCounts(ctx context.Context) Check {
	c := Check{Name: "citation_count_validation"}

	var (
		total, negative, extreme int
		minC, maxC               sql.NullInt64
		avgC                     sql.NullFloat64
	)
	err := v.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*),
			COUNT(CASE WHEN cited_by_count < 0 THEN 1 END),
			COUNT(CASE WHEN cited_by_count > %d THEN 1 END),
			MIN(cited_by_count), MAX(cited_by_count), AVG(cited_by_count)
		FROM papers`, citationUpperBound)).Scan(&total, &negative, &extreme, &minC, &maxC, &avgC)
	if err != nil {
		return errored(c, err)
	}

	c.Metrics = []Metric{
		{"total papers", fmt.Sprintf("%d", total)},
		{"negative citations", fmt.Sprintf("%d", negative)},
		{"extremely high citations", fmt.Sprintf("%d", extreme)},
	}
	if minC.Valid && maxC.Valid {
		c.Metrics = append(c.Metrics,
			Metric{"citation range", fmt.Sprintf("%d to %d", minC.Int64, maxC.Int64)})
	}
	if avgC.Valid {
		c.Metrics = append(c.Metrics,
			Metric{"average citations", fmt.Sprintf("%.2f", avgC.Float64)})
	}
	c.Status = statusFor(negative + extreme)
	if c.Status == StatusPass {
		return c
	}

	// Worst offenders first: largest absolute count is furthest from the
	// valid range.
	rows, err := v.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, COALESCE(title, '<null>'), cited_by_count
		FROM papers
		WHERE cited_by_count < 0 OR cited_by_count > %d
		ORDER BY ABS(cited_by_count) DESC
		LIMIT %d`, citationUpperBound, exampleLimit))
	if err != nil {
		return errored(c, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, title string
		var count int
		if err := rows.Scan(&id, &title, &count); err != nil {
			return errored(c, err)
		}
		c.Examples = append(c.Examples, fmt.Sprintf("id=%s cited_by_count=%d title=%s", id, count, title))
	}
	if err := rows.Err(); err != nil {
		return errored(c, err)
	}
	return c
}

// checkScoreRange verifies primary topic scores sit in [0, 1]. Records
// without a score are out of scope for this check.
func (v *Validator) checkScoreRange(ctx context.Context) Check {
	c := Check{Name: "score_range_validation"}

	var (
		withScores, negative, aboveOne int
		minS, maxS, avgS               sql.NullFloat64
	)
	err := v.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(CASE WHEN primary_topic_score < 0 THEN 1 END),
			COUNT(CASE WHEN primary_topic_score > 1 THEN 1 END),
			MIN(primary_topic_score), MAX(primary_topic_score), AVG(primary_topic_score)
		FROM papers
		WHERE primary_topic_score IS NOT NULL`).Scan(&withScores, &negative, &aboveOne, &minS, &maxS, &avgS)
	if err != nil {
		return errored(c, err)
	}

	c.Metrics = []Metric{
		{"papers with scores", fmt.Sprintf("%d", withScores)},
		{"negative scores", fmt.Sprintf("%d", negative)},
		{"scores above one", fmt.Sprintf("%d", aboveOne)},
	}
	if minS.Valid && maxS.Valid {
		c.Metrics = append(c.Metrics,
			Metric{"score range", fmt.Sprintf("%.4f to %.4f", minS.Float64, maxS.Float64)})
	}
	if avgS.Valid {
		c.Metrics = append(c.Metrics,
			Metric{"average score", fmt.Sprintf("%.4f", avgS.Float64)})
	}
	c.Status = statusFor(negative + aboveOne)
	if c.Status == StatusPass {
		return c
	}

	// Order by distance from the range midpoint, so the furthest
	// out-of-range values come first.
	rows, err := v.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, COALESCE(title, '<null>'), primary_topic_score
		FROM papers
		WHERE primary_topic_score IS NOT NULL
			AND (primary_topic_score < 0 OR primary_topic_score > 1)
		ORDER BY ABS(primary_topic_score - 0.5) DESC
		LIMIT %d`, exampleLimit))
	if err != nil {
		return errored(c, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, title string
		var score float64
		if err := rows.Scan(&id, &title, &score); err != nil {
			return errored(c, err)
		}
		c.Examples = append(c.Examples, fmt.Sprintf("id=%s primary_topic_score=%.4f title=%s", id, score, title))
	}
	if err := rows.Err(); err != nil {
		return errored(c, err)
	}
	return c
}

// checkDuplicates groups by id and by non-null doi, reporting any group
// with more than one member.
func (v *Validator) checkDuplicates(ctx context.Context) Check {
	c := Check{Name: "duplicate_detection"}

	dupIDs, idExamples, err := v.duplicateGroups(ctx, "id")
	if err != nil {
		return errored(c, err)
	}
	dupDOIs, doiExamples, err := v.duplicateGroups(ctx, "doi")
	if err != nil {
		return errored(c, err)
	}

	c.Metrics = []Metric{
		{"duplicate ids", fmt.Sprintf("%d", dupIDs)},
		{"duplicate dois", fmt.Sprintf("%d", dupDOIs)},
	}
	c.Status = statusFor(dupIDs + dupDOIs)
	c.Examples = append(idExamples, doiExamples...)
	return c
}

// duplicateGroups returns the number of values of column appearing more
// than once, plus formatted examples for the most duplicated groups.
func (v *Validator) duplicateGroups(ctx context.Context, column string) (int, []string, error) {
	rows, err := v.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s, COUNT(*) AS n
		FROM papers
		WHERE %s IS NOT NULL
		GROUP BY %s
		HAVING COUNT(*) > 1
		ORDER BY n DESC
		LIMIT %d`, column, column, column, exampleLimit))
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var examples []string
	count := 0
	for rows.Next() {
		var value string
		var n int
		if err := rows.Scan(&value, &n); err != nil {
			return 0, nil, err
		}
		count++
		examples = append(examples, fmt.Sprintf("%s=%s appears %d times", column, value, n))
	}
	return count, examples, rows.Err()
}

func statusFor(violations int) Status {
	if violations > 0 {
		return StatusFail
	}
	return StatusPass
}

func errored(c Check, err error) Check {
	c.Status = StatusError
	c.Err = err.Error()
	return c
}
