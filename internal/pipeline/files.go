package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Stage record file names inside a run directory.
const (
	SegmentsFile      = "food_segments.json"
	AnalysisFile      = "food_analysis.json"
	ConfirmedFile     = "confirmed_results.json"
	VerifiedFile      = "verified_volumes.json"
	DecompositionFile = "decomposition_results.json"
	MassFile          = "mass_results.json"
	NutritionFile     = "nutrition_results.json"
)

// WriteJSON writes v to path atomically: the record is complete and
// valid JSON, or the old file is untouched.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming into %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadJSON reads and unmarshals a stage record file.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", filepath.Base(path), err)
	}
	return nil
}
