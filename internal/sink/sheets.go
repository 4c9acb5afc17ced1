package sink

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/api/sheets/v4"
)

// GoogleSheetsSink writes exports into a Google Sheets spreadsheet. The
// service account is resolved from application default credentials.
type GoogleSheetsSink struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewGoogleSheetsSink(ctx context.Context, spreadsheetID string) (*GoogleSheetsSink, error) {
	service, err := sheets.NewService(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets service")
	}
	return &GoogleSheetsSink{service: service, spreadsheetID: spreadsheetID}, nil
}

func (s *GoogleSheetsSink) HasDestination(ctx context.Context, name string) (bool, error) {
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return false, errors.Wrapf(err, "reading spreadsheet %q", s.spreadsheetID)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == name {
			return true, nil
		}
	}
	return false, nil
}

// Write clears the whole sheet first, then writes header and rows from
// A1. A failure between the two calls leaves the sheet empty; that
// window is accepted.
func (s *GoogleSheetsSink) Write(ctx context.Context, name string, header []string, rows [][]string) error {
	sheetRange := fmt.Sprintf("'%s'", name)

	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, sheetRange, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "clearing sheet %q", name)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toCells(header))
	for _, row := range rows {
		values = append(values, toCells(row))
	}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, sheetRange+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return errors.Wrapf(err, "writing sheet %q", name)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
