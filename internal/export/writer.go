package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"calai/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row. One row is written per meal segment.
var columns = []string{
	"Meal ID",
	"Session ID",
	"Analyzed At",
	"Query",
	"Food Name",
	"Mass (g)",
	"Calories (kcal)",
	"Protein (g)",
	"Fat (g)",
	"Carbohydrates (g)",
	"Data Missing",
	"Source URL",
	"Meal Total Calories (kcal)",
	"Meal Total Mass (g)",
}

// Writer wraps csv.Writer for exporting meal history as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteMeals converts a batch of meal records to CSV rows and writes them.
func (w *Writer) WriteMeals(meals []domain.MealRecord) error {
	for i := range meals {
		for _, row := range mealToRows(&meals[i]) {
			if err := w.csv.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// mealToRows converts one meal record to one row per segment. A meal
// with no stored segments still produces a single row carrying the
// summary totals.
func mealToRows(meal *domain.MealRecord) [][]string {
	base := func() []string {
		row := make([]string, len(columns))
		row[0] = meal.ID.String()
		row[1] = meal.SessionID
		row[2] = meal.AnalyzedAt.Format(time.RFC3339)
		row[3] = meal.Query
		row[12] = formatGrams(meal.Summary.CaloriesKcal)
		row[13] = formatGrams(meal.Summary.TotalMassGrams)
		return row
	}

	if len(meal.Segments) == 0 {
		return [][]string{base()}
	}

	rows := make([][]string, 0, len(meal.Segments))
	for i := range meal.Segments {
		seg := &meal.Segments[i]
		row := base()
		row[4] = seg.FoodName
		row[5] = formatGrams(seg.TotalMassGrams)
		row[6] = formatGrams(seg.Nutrition.CaloriesKcal)
		row[7] = formatGrams(seg.Nutrition.ProteinG)
		row[8] = formatGrams(seg.Nutrition.FatG)
		row[9] = formatGrams(seg.Nutrition.CarbohydratesG)
		row[10] = formatBool(seg.DataMissing)
		if seg.Source != nil {
			row[11] = seg.Source.SourceURL
		}
		rows = append(rows, row)
	}
	return rows
}

func formatGrams(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a session identifier for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "meals"
	}
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
