package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"calai/internal/domain"
)

const sheetName = "Meals"

// WriteXLSX writes the meal history as an Excel workbook to w. The
// layout mirrors the CSV export: the same columns, one row per segment.
func WriteXLSX(w io.Writer, meals []domain.MealRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, title := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	rowNum := 2
	for i := range meals {
		for _, row := range mealToRows(&meals[i]) {
			for col, value := range row {
				if value == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
				if err != nil {
					return fmt.Errorf("data cell: %w", err)
				}
				if err := f.SetCellValue(sheetName, cell, value); err != nil {
					return fmt.Errorf("write row: %w", err)
				}
			}
			rowNum++
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
