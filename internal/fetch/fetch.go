// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch drives the OpenAlex client across a date-windowed,
// topic-filtered query: count probe, bounded page loop, and a single
// bulk-retrieval fallback when pagination fails mid-stream.
package fetch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vlad-ds/market-data-pipeline/internal/openalex"
	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

// AISubfieldID is the OpenAlex subfield for Artificial Intelligence
// (Computer Science → Artificial Intelligence), in the short form the
// filter syntax expects.
const AISubfieldID = "1702"

const (
	defaultDays     = 3
	defaultPageSize = 200
	defaultMaxPages = 50
)

// now is replaced in tests to pin the date window.
var now = time.Now

// Source is the slice of the OpenAlex client the fetcher uses.
type Source interface {
	Count(ctx context.Context, f openalex.Filter) (int, error)
	Paginate(f openalex.Filter, perPage int) Pager
	List(ctx context.Context, f openalex.Filter, perPage int) ([]openalex.Work, error)
}

// Pager yields successive pages until ok is false.
type Pager interface {
	Next(ctx context.Context) ([]openalex.Work, bool, error)
}

// Client adapts *openalex.Client to the Source interface.
type Client struct {
	*openalex.Client
}

// Paginate narrows the concrete pager to the Pager interface.
func (c Client) Paginate(f openalex.Filter, perPage int) Pager {
	return c.Client.Paginate(f, perPage)
}

// Result holds the works retrieved in one fetch plus retrieval telemetry.
type Result struct {
	// Works are the retrieved records, in source order.
	Works []openalex.Work

	// Total is the source-reported count of matching works, which may
	// exceed len(Works) when the page ceiling truncated the iteration or
	// the bulk fallback was used.
	Total int

	// Pages is the number of pages retrieved.
	Pages int

	// Truncated reports that the page ceiling stopped the iteration
	// before the source was exhausted.
	Truncated bool

	// UsedFallback reports that pagination failed and the works came
	// from the single bulk retrieval instead.
	UsedFallback bool

	// Filter is the filter the works were retrieved with.
	Filter openalex.Filter
}

// outcome is what one retrieval strategy produces on success.
type outcome struct {
	works     []openalex.Work
	pages     int
	truncated bool
}

// strategy is one retrieval approach attempted in order: cursor pagination
// first, then the non-paginated bulk fallback. Keeping the fallback policy
// as an explicit list makes it independently testable.
type strategy struct {
	name string
	run  func(ctx context.Context) (outcome, error)
}

// Fetch retrieves all works matching the AI subfield filter within the
// lookback window. A zero count returns an empty result, not an error.
// When pagination fails mid-stream the accumulated pages are discarded and
// one bulk retrieval is attempted; only a failure of both surfaces to the
// caller.
func Fetch(ctx context.Context, src Source, cfg types.FetchConfig, w io.Writer) (Result, error) {
	days := cfg.Days
	if days <= 0 {
		days = defaultDays
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	end := now()
	start := end.AddDate(0, 0, -days)
	filter := openalex.Filter{SubfieldID: AISubfieldID, From: start, To: end}

	fmt.Fprintf(w, "date window: %s to %s\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	total, err := src.Count(ctx, filter)
	if err != nil {
		return Result{}, fmt.Errorf("counting matching works: %w", err)
	}
	fmt.Fprintf(w, "works available: %d\n", total)

	if total == 0 {
		return Result{Filter: filter}, nil
	}

	strategies := []strategy{
		{
			name: "paginated",
			run: func(ctx context.Context) (outcome, error) {
				return paginated(ctx, src, filter, pageSize, maxPages, w)
			},
		},
		{
			name: "bulk",
			run: func(ctx context.Context) (outcome, error) {
				works, err := src.List(ctx, filter, pageSize)
				if err != nil {
					return outcome{}, err
				}
				fmt.Fprintf(w, "fallback: fetched %d works in one request\n", len(works))
				return outcome{works: works, pages: 1}, nil
			},
		},
	}

	var lastErr error
	for i, s := range strategies {
		out, err := s.run(ctx)
		if err != nil {
			lastErr = fmt.Errorf("%s retrieval: %w", s.name, err)
			if i < len(strategies)-1 {
				fmt.Fprintf(w, "warning: %s retrieval failed: %v\n", s.name, err)
				fmt.Fprintf(w, "falling back to %s retrieval\n", strategies[i+1].name)
			}
			continue
		}
		return Result{
			Works:        out.works,
			Total:        total,
			Pages:        out.pages,
			Truncated:    out.truncated,
			UsedFallback: i > 0,
			Filter:       filter,
		}, nil
	}
	return Result{}, lastErr
}

// paginated accumulates pages until the cursor is exhausted or the page
// ceiling is reached. The ceiling bounds API cost: callers get "up to
// maxPages pages", reported via the truncated flag.
func paginated(ctx context.Context, src Source, f openalex.Filter, pageSize, maxPages int, w io.Writer) (outcome, error) {
	pager := src.Paginate(f, pageSize)

	var out outcome
	for {
		works, ok, err := pager.Next(ctx)
		if err != nil {
			return outcome{}, err
		}
		if !ok {
			return out, nil
		}

		out.pages++
		out.works = append(out.works, works...)
		fmt.Fprintf(w, "  page %d: fetched %d works (total: %d)\n",
			out.pages, len(works), len(out.works))

		if out.pages >= maxPages {
			fmt.Fprintf(w, "warning: reached page ceiling (%d), stopping with partial results\n", maxPages)
			out.truncated = true
			return out, nil
		}
	}
}
