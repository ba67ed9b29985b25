// Package export writes fetched dye names to the fixed-column CSV file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Sternrassler/xivapi-dye-names/pkg/dye"
)

// Header returns the CSV header: itemID followed by one "<Language> Name"
// column per language in dye.Languages.
func Header() []string {
	header := make([]string, 0, len(dye.Languages)+1)
	header = append(header, "itemID")
	for _, lang := range dye.Languages {
		header = append(header, lang.DisplayName()+" Name")
	}
	return header
}

// WriteCSV writes the header and one row per record, in record order.
func WriteCSV(w io.Writer, records []dye.NameRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(dye.Languages)+1)
	for _, rec := range records {
		row[0] = strconv.Itoa(int(rec.ItemID))
		for i, lang := range dye.Languages {
			row[i+1] = rec.Name(lang)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row for item %d: %w", rec.ItemID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteFile writes records to path, creating its parent directory.
func WriteFile(path string, records []dye.NameRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}
