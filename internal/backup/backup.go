// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backup writes the pre-persistence staging snapshot and reads it
// back for recovery imports. The snapshot pairs run metadata with the full
// list of normalized records, serialized as JSON or YAML.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/vlad-ds/market-data-pipeline/pkg/types"
)

// Metadata describes the run that produced a snapshot.
type Metadata struct {
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	RunID          string    `json:"run_id" yaml:"run_id"`
	TotalPapers    int       `json:"total_papers" yaml:"total_papers"`
	DateRangeDays  int       `json:"date_range_days" yaml:"date_range_days"`
	DateFrom       string    `json:"date_from" yaml:"date_from"`
	DateTo         string    `json:"date_to" yaml:"date_to"`
	FilterCriteria string    `json:"filter_criteria" yaml:"filter_criteria"`
	Source         string    `json:"source" yaml:"source"`
}

// Snapshot is the persisted staging artifact.
type Snapshot struct {
	Metadata Metadata            `json:"metadata" yaml:"metadata"`
	Papers   []types.PaperRecord `json:"papers" yaml:"papers"`
}

// Write serializes the snapshot into dir with a timestamped filename,
// creating the directory when needed. Format is "json" or "yaml"; an
// unknown format is an error. It returns the file path.
func Write(snap Snapshot, dir, format string) (string, error) {
	var (
		data []byte
		ext  string
		err  error
	)
	switch format {
	case "", "json":
		ext = "json"
		data, err = json.MarshalIndent(snap, "", "  ")
	case "yaml":
		ext = "yaml"
		data, err = yaml.Marshal(snap)
	default:
		return "", fmt.Errorf("unknown backup format %q (want json or yaml)", format)
	}
	if err != nil {
		return "", fmt.Errorf("serializing snapshot: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}

	name := fmt.Sprintf("ai_subfield_papers_%s.%s",
		snap.Metadata.Timestamp.Format("20060102_150405"), ext)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return path, nil
}

// Read loads a snapshot previously written by Write, picking the decoder
// from the file extension.
func Read(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &snap)
	default:
		err = json.Unmarshal(data, &snap)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return snap, nil
}
