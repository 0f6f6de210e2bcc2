package sheetquiz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsReader reads exam tabs from a Google spreadsheet
type SheetsReader struct {
	service *sheets.Service
	sheetID string
}

// NewSheetsReader creates a read-only Sheets client. With an empty
// credentialsFile the application default credentials are used.
func NewSheetsReader(ctx context.Context, sheetID, credentialsFile string, opts ...option.ClientOption) (*SheetsReader, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}, opts...)
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsReader{service: service, sheetID: sheetID}, nil
}

// Tabs returns the worksheet titles in spreadsheet order
func (r *SheetsReader) Tabs(ctx context.Context) ([]string, error) {
	spreadsheet, err := r.service.Spreadsheets.Get(r.sheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifySheetsError(err, "spreadsheet not found, check the sheet id and that the service account has access")
	}

	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	return titles, nil
}

// Rows returns every populated row of tab as strings
func (r *SheetsReader) Rows(ctx context.Context, tab string) ([][]string, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.sheetID, quoteSheetName(tab)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifySheetsError(err, "worksheet not found")
	}

	rows := make([][]string, len(resp.Values))
	for i, values := range resp.Values {
		row := make([]string, len(values))
		for j, v := range values {
			if v != nil {
				row[j] = fmt.Sprint(v)
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// quoteSheetName turns a tab title into an A1 range covering the whole tab
func quoteSheetName(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// classifySheetsError maps API status codes onto the source error kinds.
// A range naming a missing tab comes back as 400 "Unable to parse range".
func classifySheetsError(err error, notFound string) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("sheets api: %w", err)
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
	case apiErr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrExamNotFound, notFound)
	case apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "Unable to parse range"):
		return fmt.Errorf("%w: %s", ErrExamNotFound, notFound)
	default:
		return fmt.Errorf("sheets api error %d: %w", apiErr.Code, err)
	}
}
