package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-cli/internal/model"
)

// ReadCSV parses provider records from a CSV stream. The first row must
// be a header; unrecognized columns are ignored.
func ReadCSV(ctx context.Context, r io.Reader, source model.Source) ([]*model.Provider, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("csv: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	columns := MapHeader(header)
	if len(columns) == 0 {
		return nil, eris.New("csv: no recognizable columns in header")
	}

	var rows [][]string
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		rows = append(rows, row)
	}

	return buildRecords(columns, rows, source, "csv"), nil
}

// ReadCSVFile parses provider records from a CSV file on disk.
func ReadCSVFile(ctx context.Context, path string, source model.Source) ([]*model.Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close()
	return ReadCSV(ctx, f, source)
}
