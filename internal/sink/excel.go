package sink

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// scratch sheet keeps the workbook non-empty while the target worksheet
// is rebuilt; excelize refuses to delete the last visible sheet.
const scratchSheet = "__scratch__"

// ExcelSink writes exports into worksheets of a local XLSX workbook,
// creating the workbook and worksheets on demand.
type ExcelSink struct {
	path string
}

func NewExcelSink(path string) *ExcelSink {
	return &ExcelSink{path: path}
}

// HasDestination always reports true: worksheets are created as needed,
// so no configured sheet name is ever absent for this sink.
func (s *ExcelSink) HasDestination(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (s *ExcelSink) Write(ctx context.Context, name string, header []string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, created, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.NewSheet(scratchSheet); err != nil {
		return errors.Wrap(err, "preparing workbook")
	}
	if idx, err := f.GetSheetIndex(name); err == nil && idx != -1 {
		if err := f.DeleteSheet(name); err != nil {
			return errors.Wrapf(err, "clearing worksheet %q", name)
		}
	}
	if _, err := f.NewSheet(name); err != nil {
		return errors.Wrapf(err, "creating worksheet %q", name)
	}

	if err := writeRow(f, name, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeRow(f, name, i+2, row); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet(scratchSheet); err != nil {
		return errors.Wrap(err, "finalizing workbook")
	}
	if created && name != defaultSheetName {
		_ = f.DeleteSheet(defaultSheetName)
	}

	if err := f.SaveAs(s.path); err != nil {
		return errors.Wrapf(err, "saving workbook %q", s.path)
	}
	return nil
}

const defaultSheetName = "Sheet1"

func (s *ExcelSink) open() (*excelize.File, bool, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return excelize.NewFile(), true, nil
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, false, errors.Wrapf(err, "opening workbook %q", s.path)
	}
	return f, false, nil
}

func writeRow(f *excelize.File, sheet string, rowIndex int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIndex)
	if err != nil {
		return errors.Wrap(err, "computing cell coordinates")
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return errors.Wrapf(err, "writing row %d of %q", rowIndex, sheet)
	}
	return nil
}
