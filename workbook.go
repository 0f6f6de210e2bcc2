package sheetquiz

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WorkbookReader reads exam tabs from a local .xlsx file
type WorkbookReader struct {
	file *excelize.File
}

// OpenWorkbook opens the workbook at path
func OpenWorkbook(path string) (*WorkbookReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &WorkbookReader{file: f}, nil
}

// Tabs returns the sheet names in workbook order
func (r *WorkbookReader) Tabs(_ context.Context) ([]string, error) {
	return r.file.GetSheetList(), nil
}

// Rows returns the rows of tab. Trailing empty cells are trimmed by excelize.
func (r *WorkbookReader) Rows(_ context.Context, tab string) ([][]string, error) {
	if idx, err := r.file.GetSheetIndex(tab); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: worksheet %q", ErrExamNotFound, tab)
	}

	rows, err := r.file.GetRows(tab)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", tab, err)
	}
	return rows, nil
}

// Close releases the workbook
func (r *WorkbookReader) Close() error {
	return r.file.Close()
}
