// Package export writes provider directory output files. Two shapes
// are produced: the validated directory with per-record confidence
// scores, and the reconciled directory of cleaned cross-source records.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-cli/internal/model"
)

// directoryHeader is the shared column prefix of both export shapes.
var directoryHeader = []string{
	"NPI", "Name", "Specialty", "Organization", "Phone", "Email", "Website",
	"Address", "City", "State", "ZIP", "License Number",
}

// WriteDirectoryCSV writes validated records with their confidence scores.
func WriteDirectoryCSV(w io.Writer, records []model.Provider) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, directoryHeader...), "Confidence Score")
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for _, p := range records {
		row := []string{
			p.NPI, p.Name, p.Specialty, p.Organization, p.Phone, p.Email, p.Website,
			p.Address, p.City, p.State, p.Zip, p.LicenseNumber,
			strconv.Itoa(p.ConfidenceScore),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "export: write record %s", p.ID)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// WriteCleanedCSV writes reconciled cross-source records. The Corrected
// Fields column lists the fields the reconciler changed, joined with
// semicolons.
func WriteCleanedCSV(w io.Writer, records []model.CleanedRecord) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, directoryHeader...), "Corrected Fields")
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for _, r := range records {
		row := []string{
			r.NPI, r.Name, r.Specialty, r.Organization, r.Phone, r.Email, r.Website,
			r.Address, r.City, r.State, r.Zip, r.LicenseNumber,
			strings.Join(r.CorrectedFields, "; "),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "export: write cleaned record %s", r.Name)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// WriteDirectoryFile writes the validated directory to a file on disk.
func WriteDirectoryFile(path string, records []model.Provider) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}

	if err := WriteDirectoryCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

// WriteCleanedFile writes the reconciled directory to a file on disk.
func WriteCleanedFile(path string, records []model.CleanedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}

	if err := WriteCleanedCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}
