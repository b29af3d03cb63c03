// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package quality

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Render formats the report as human-readable text.
func Render(r Report) string {
	var b strings.Builder
	rule := strings.Repeat("=", 70)
	sub := strings.Repeat("-", 40)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "DATA QUALITY REPORT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	}
	fmt.Fprintln(&b)

	passed, failed, errored := r.Counts()
	fmt.Fprintln(&b, "SUMMARY")
	fmt.Fprintln(&b, sub)
	fmt.Fprintf(&b, "Total checks: %d\n", len(r.Checks))
	fmt.Fprintf(&b, "Passed: %d\n", passed)
	fmt.Fprintf(&b, "Failed: %d\n", failed)
	fmt.Fprintf(&b, "Errors: %d\n", errored)
	fmt.Fprintln(&b)

	for _, c := range r.Checks {
		fmt.Fprintln(&b, strings.ToUpper(strings.ReplaceAll(c.Name, "_", " ")))
		fmt.Fprintln(&b, sub)
		fmt.Fprintf(&b, "Status: %s\n", c.Status)
		if c.Err != "" {
			fmt.Fprintf(&b, "Error: %s\n", c.Err)
		}
		for _, m := range c.Metrics {
			fmt.Fprintf(&b, "  %s: %s\n", m.Label, m.Value)
		}
		if len(c.Examples) > 0 {
			fmt.Fprintln(&b, "  Examples:")
			for _, e := range c.Examples {
				fmt.Fprintf(&b, "    - %s\n", e)
			}
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "END OF REPORT")
	fmt.Fprintln(&b, rule)
	return b.String()
}

// WriteFile renders the report and files it under dir with a timestamped
// name, creating the directory when needed. It returns the file path.
func WriteFile(r Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	name := fmt.Sprintf("data_quality_report_%s.txt", r.GeneratedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(Render(r)), 0o644); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}
	return path, nil
}
