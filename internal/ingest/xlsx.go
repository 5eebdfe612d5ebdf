package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/directory-cli/internal/model"
)

// ReadXLSXFile parses provider records from the first sheet of an XLSX
// workbook. The first row must be a header.
func ReadXLSXFile(path string, source model.Source) ([]*model.Provider, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	sheet := f.Sheets[0]

	if len(sheet.Rows) == 0 {
		return nil, eris.New("xlsx: empty sheet")
	}

	columns := MapHeader(rowToStrings(sheet.Rows[0]))
	if len(columns) == 0 {
		return nil, eris.New("xlsx: no recognizable columns in header")
	}

	var rows [][]string
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowToStrings(row))
	}

	return buildRecords(columns, rows, source, "xlsx"), nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
