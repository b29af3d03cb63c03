// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one ingestion run: fetch, normalize, stage a
// backup snapshot, ensure the schema, upsert in batches, and validate.
// Execution is single-threaded and single-writer; records are committed in
// the order the fetcher returned them.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/vlad-ds/market-data-pipeline/internal/backup"
	"github.com/vlad-ds/market-data-pipeline/internal/fetch"
	"github.com/vlad-ds/market-data-pipeline/internal/normalize"
	"github.com/vlad-ds/market-data-pipeline/internal/quality"
	"github.com/vlad-ds/market-data-pipeline/internal/store"
	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

// filterDescription labels the fixed topical filter in artifacts.
const filterDescription = "papers where Artificial Intelligence is the topic subfield (topics.subfield.id=" + fetch.AISubfieldID + ")"

// Options configures one pipeline run.
type Options struct {
	Fetch     types.FetchConfig
	Store     types.StoreConfig
	Artifacts types.ArtifactConfig

	// Force drops and recreates the papers table before uploading.
	Force bool

	// SkipValidation omits the post-load quality checks.
	SkipValidation bool
}

// Summary reports what one run did. It is populated even when the run
// fails partway, so callers can always print counters.
type Summary struct {
	RunID        string
	Fetched      int
	Truncated    bool
	UsedFallback bool
	Stats        store.BatchStats
	BackupPath   string
	ReportPath   string
	QualityClean bool
}

// Run executes the full pipeline against src and the configured store.
// Failures of fetch (after its fallback), connection, schema creation, and
// upload are fatal and returned; backup and validation problems degrade to
// warnings. A zero-record fetch completes the run successfully.
func Run(ctx context.Context, src fetch.Source, opts Options, w io.Writer) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	fmt.Fprintf(w, "starting pipeline run %s\n", summary.RunID)

	st, err := store.Open(ctx, opts.Store, w)
	if err != nil {
		return summary, fmt.Errorf("connecting to store: %w", err)
	}
	defer st.Close()

	result, err := fetch.Fetch(ctx, src, opts.Fetch, w)
	if err != nil {
		return summary, fmt.Errorf("fetching works: %w", err)
	}
	summary.Fetched = len(result.Works)
	summary.Truncated = result.Truncated
	summary.UsedFallback = result.UsedFallback

	if len(result.Works) == 0 {
		fmt.Fprintln(w, "no works found for the window, nothing to do")
		return summary, nil
	}

	records := make([]*types.PaperRecord, 0, len(result.Works))
	for i := range result.Works {
		rec := normalize.Record(&result.Works[i])
		records = append(records, &rec)
	}

	summary.BackupPath = stageBackup(summary.RunID, opts, result, records, w)

	if err := st.EnsureSchema(ctx, opts.Force, w); err != nil {
		return summary, fmt.Errorf("ensuring schema: %w", err)
	}

	stats, err := st.UpsertAll(ctx, records, opts.Store.BatchSize, w)
	summary.Stats = stats
	if err != nil {
		return summary, fmt.Errorf("uploading papers: %w", err)
	}

	if opts.SkipValidation {
		fmt.Fprintln(w, "skipping quality checks as requested")
	} else {
		summary.ReportPath, summary.QualityClean = validate(ctx, st, summary.RunID, opts.Artifacts.ReportsDir, w)
	}

	fmt.Fprintf(w, "\nrun %s complete: fetched %d, inserted %d, skipped %d, errors %d (success rate %.1f%%)\n",
		summary.RunID, summary.Fetched, stats.Inserted, stats.Skipped, stats.Errors, stats.SuccessRate())
	return summary, nil
}

// stageBackup writes the recovery snapshot before any persistence. A
// failed write is reported but never aborts the run.
func stageBackup(runID string, opts Options, result fetch.Result, records []*types.PaperRecord, w io.Writer) string {
	papers := make([]types.PaperRecord, len(records))
	for i, r := range records {
		papers[i] = *r
	}

	snap := backup.Snapshot{
		Metadata: backup.Metadata{
			Timestamp:      time.Now(),
			RunID:          runID,
			TotalPapers:    len(papers),
			DateRangeDays:  opts.Fetch.Days,
			DateFrom:       result.Filter.From.Format("2006-01-02"),
			DateTo:         result.Filter.To.Format("2006-01-02"),
			FilterCriteria: filterDescription,
			Source:         "OpenAlex API",
		},
		Papers: papers,
	}

	path, err := backup.Write(snap, opts.Artifacts.StagingDir, opts.Artifacts.BackupFormat)
	if err != nil {
		fmt.Fprintf(w, "warning: staging snapshot failed: %v\n", err)
		return ""
	}
	fmt.Fprintf(w, "staged %d papers to %s\n", len(papers), path)
	return path
}

// validate runs the quality checks and files the report. Check failures
// and report-write problems are warnings; the pipeline still completes.
func validate(ctx context.Context, st *store.Store, runID, reportsDir string, w io.Writer) (path string, clean bool) {
	report := quality.NewValidator(st.DB()).RunAll(ctx, runID, w)

	path, err := quality.WriteFile(report, reportsDir)
	if err != nil {
		fmt.Fprintf(w, "warning: writing quality report failed: %v\n", err)
		path = ""
	} else {
		fmt.Fprintf(w, "quality report saved to %s\n", path)
	}

	if !report.Clean() {
		fmt.Fprintln(w, "warning: quality checks reported problems, see report")
	}
	return path, report.Clean()
}
