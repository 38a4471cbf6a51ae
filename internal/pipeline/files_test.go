package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calai/internal/domain"
)

func TestWriteJSONReadJSONRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", SegmentsFile)

	record := SegmentsRecord{
		ImagePath: "/data/meal.jpg",
		Segments: []domain.FoodSegment{
			{SegmentID: 1, FoodName: "rice", VolumeLitres: 0.2},
		},
	}
	require.NoError(t, WriteJSON(path, record))

	var got SegmentsRecord
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, record, got)
}

func TestWriteJSONKeepsOldRecordOnMarshalFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), MassFile)
	require.NoError(t, WriteJSON(path, MassRecord{}))

	// Channels cannot be marshaled; the existing file must survive.
	err := WriteJSON(path, make(chan int))
	require.Error(t, err)

	var got MassRecord
	assert.NoError(t, ReadJSON(path, &got))
}

func TestWriteJSONLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteJSON(filepath.Join(dir, NutritionFile), NutritionReport{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, NutritionFile, entries[0].Name())
}

func TestReadJSONMissingFile(t *testing.T) {
	var got SegmentsRecord
	err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &got)
	assert.Error(t, err)
}
