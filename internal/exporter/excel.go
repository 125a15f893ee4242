package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"rankdelta/internal/dataprocessing"
	apperrors "rankdelta/internal/errors"
)

// sheetName is the single sheet written into every merged artifact.
const sheetName = "Sheet1"

// ExcelWriter persists merged tables as xlsx artifacts. Downstream
// consumers (the styling step in particular) expect numeric metric columns,
// so cells that parse as numbers are written as numbers.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a new Excel writer instance
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// Write saves the table to path as a single-sheet workbook with the header
// in the first row. The parent directory is created when missing.
func (w *ExcelWriter) Write(path string, table *dataprocessing.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory for %s", path), err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), sheetName)

	header := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return apperrors.NewStorageError("failed to write header row", err)
	}

	for i, row := range table.Rows {
		values := make([]interface{}, len(table.Columns))
		for j := range table.Columns {
			values[j] = cellValue(table.Cell(row, j))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("failed to compute cell coordinates", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write row %d", i+1), err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to save %s", path), err)
	}

	w.logger.Info("wrote merged artifact",
		slog.String("path", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))
	return nil
}

// cellValue converts a table cell to the value written into the workbook.
// Zero-padded codes stay strings so their leading zeros survive.
func cellValue(s string) interface{} {
	if s == "" {
		return ""
	}
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
