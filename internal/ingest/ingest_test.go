package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/directory-cli/internal/model"
)

func TestMapHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   map[int]string
	}{
		{
			name:   "canonical names",
			header: []string{"npi", "name", "phone", "zip"},
			want:   map[int]string{0: "npi", 1: "name", 2: "phone", 3: "zip"},
		},
		{
			name:   "display names",
			header: []string{"NPI Number", "Provider Name", "Phone Number", "ZIP Code", "License #"},
			want:   map[int]string{0: "npi", 1: "name", 2: "phone", 3: "zip", 4: "license_number"},
		},
		{
			name:   "unknown columns dropped",
			header: []string{"name", "internal_id", "favorite color"},
			want:   map[int]string{0: "name"},
		},
		{
			name:   "dashes and case",
			header: []string{"E-Mail", "Street-Address", "license-state"},
			want:   map[int]string{0: "email", 1: "address", 2: "license_state"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapHeader(tc.header))
		})
	}
}

func TestRecordFromRow(t *testing.T) {
	columns := map[int]string{0: "npi", 1: "name", 2: "phone", 3: "city"}

	p := RecordFromRow(columns, []string{" 1234567890 ", "Dr. Jane Smith", "555-123-4567", "Springfield"}, model.SourceWeb)
	require.NotNil(t, p)
	assert.Equal(t, "1234567890", p.NPI)
	assert.Equal(t, "Dr. Jane Smith", p.Name)
	assert.Equal(t, "555-123-4567", p.Phone)
	assert.Equal(t, "Springfield", p.City)
	assert.Equal(t, model.SourceWeb, p.Source)
	assert.Equal(t, model.StatusPending, p.Status)
	assert.Equal(t, "555-123-4567", p.OriginalData["phone"])
}

func TestRecordFromRow_NoName(t *testing.T) {
	columns := map[int]string{0: "npi", 1: "name"}
	assert.Nil(t, RecordFromRow(columns, []string{"1234567890", "  "}, model.SourceWeb))
}

func TestRecordFromRow_ShortRow(t *testing.T) {
	columns := map[int]string{0: "name", 5: "zip"}
	p := RecordFromRow(columns, []string{"Dr. A"}, model.SourcePrint)
	require.NotNil(t, p)
	assert.Empty(t, p.Zip)
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"NPI,Provider Name,Phone,Email,Address,City,State,ZIP Code,License Number",
		"1234567890,Dr. Jane Smith,555-123-4567,jane@clinic.com,123 Main St,Springfield,IL,62704,IL12345",
		",Dr. Bob Lee,555-987-6543,,456 Oak Ave,Springfield,IL,62705,IL67890",
		"9876543210,,,,,,,,",
	}, "\n")

	records, err := ReadCSV(context.Background(), strings.NewReader(input), model.SourceMobile)
	require.NoError(t, err)
	require.Len(t, records, 2) // nameless row dropped

	assert.Equal(t, "Dr. Jane Smith", records[0].Name)
	assert.Equal(t, "1234567890", records[0].NPI)
	assert.Equal(t, "IL12345", records[0].LicenseNumber)
	assert.Equal(t, model.SourceMobile, records[0].Source)
	assert.Empty(t, records[1].NPI)
}

func TestReadCSV_NoRecognizableColumns(t *testing.T) {
	input := "foo,bar\n1,2\n"
	_, err := ReadCSV(context.Background(), strings.NewReader(input), model.SourceWeb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognizable columns")
}

func TestReadCSV_EmptyFile(t *testing.T) {
	_, err := ReadCSV(context.Background(), strings.NewReader(""), model.SourceWeb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")
}

func TestReadXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Providers")
	require.NoError(t, err)

	header := sheet.AddRow()
	for _, h := range []string{"NPI", "Name", "Phone", "City"} {
		header.AddCell().Value = h
	}
	row := sheet.AddRow()
	for _, v := range []string{"1234567890", "Dr. Jane Smith", "555-123-4567", "Springfield"} {
		row.AddCell().Value = v
	}
	require.NoError(t, f.Save(path))

	records, err := ReadXLSXFile(path, model.SourcePrint)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Dr. Jane Smith", records[0].Name)
	assert.Equal(t, "Springfield", records[0].City)
	assert.Equal(t, model.SourcePrint, records[0].Source)
}

func TestReadXLSXFile_MissingFile(t *testing.T) {
	_, err := ReadXLSXFile(filepath.Join(t.TempDir(), "absent.xlsx"), model.SourceWeb)
	require.Error(t, err)
}
