package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-cli/internal/model"
)

func TestWriteDirectoryCSV(t *testing.T) {
	records := []model.Provider{
		{
			NPI: "1234567890", Name: "Dr. Jane Smith", Specialty: "Cardiology",
			Phone: "555-123-4567", Email: "jane@clinic.com",
			Address: "123 Main St", City: "Springfield", State: "IL", Zip: "62704",
			LicenseNumber: "IL12345", ConfidenceScore: 100,
		},
		{Name: "Dr. Bob Lee", ConfidenceScore: 55},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDirectoryCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "NPI", rows[0][0])
	assert.Equal(t, "Confidence Score", rows[0][len(rows[0])-1])
	assert.Equal(t, "Dr. Jane Smith", rows[1][1])
	assert.Equal(t, "100", rows[1][len(rows[1])-1])
	assert.Equal(t, "55", rows[2][len(rows[2])-1])
}

func TestWriteDirectoryCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDirectoryCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1) // header only
}

func TestWriteCleanedCSV(t *testing.T) {
	records := []model.CleanedRecord{
		{
			NPI: "1234567890", Name: "Dr. Jane Smith",
			Phone: "555-111-2222", City: "Springfield",
			CorrectedFields: []string{"phone", "zip"},
		},
		{Name: "Dr. Bob Lee"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCleanedCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Corrected Fields", rows[0][len(rows[0])-1])
	assert.Equal(t, "phone; zip", rows[1][len(rows[1])-1])
	assert.Equal(t, "", rows[2][len(rows[2])-1])
}

func TestWriteDirectoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.csv")

	records := []model.Provider{{Name: "Dr. Jane Smith", ConfidenceScore: 85}}
	require.NoError(t, WriteDirectoryFile(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Dr. Jane Smith")
	assert.Contains(t, string(data), "85")
}

func TestWriteCleanedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned.csv")

	records := []model.CleanedRecord{{Name: "Dr. Jane Smith", CorrectedFields: []string{"email"}}}
	require.NoError(t, WriteCleanedFile(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "email")
}
