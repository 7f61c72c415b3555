// Package export writes the model catalog as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
	"github.com/xuxiaoleilancy/ai-codehub/internal/catalog"
)

const (
	SheetName   = "Models"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// headerKeys are localization keys of the column titles, in column order.
var headerKeys = []string{
	"model_name",
	"model_description",
	"model_version",
	"model_framework",
	"model_task_type",
	"model_created_by",
	"model_created_at",
	"model_file_size",
}

var columnWidths = []float64{24, 40, 10, 14, 16, 16, 20, 12}

// WriteModels writes one row per model below a header row. label turns a
// header key into its display text.
func WriteModels(w io.Writer, models []apiclient.Model, label func(key string) string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for i, key := range headerKeys {
		if err := setCell(f, i+1, 1, label(key)); err != nil {
			return err
		}
	}

	for idx, m := range models {
		row := idx + 2
		createdAt := ""
		if !m.CreatedAt.IsZero() {
			createdAt = m.CreatedAt.UTC().Format("2006-01-02 15:04:05")
		}
		values := []any{
			m.Name,
			m.Description,
			m.Version,
			m.Framework,
			m.TaskType,
			m.CreatedBy,
			createdAt,
			catalog.FormatFileSize(m.FileSize),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}
