// Package export writes scraped batches as tabular files, one CSV and one
// XLSX per search term.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shayan4Ii/google-map-scraper/internal/model"
)

const sheetName = "Sheet1"

var header = []string{
	"name", "address", "website", "phone_number",
	"reviews_count", "reviews_average", "latitude", "longitude", "url",
}

// Writer exports batches into a directory, creating it on first use.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// ExportQuery writes the businesses of one search term as
// google_maps_data_<term>.csv and .xlsx under the writer's directory.
func (w *Writer) ExportQuery(query string, businesses []model.Business) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	base := filepath.Join(w.dir, BaseName(query))
	if err := WriteCSV(base+".csv", businesses); err != nil {
		return err
	}
	return WriteXLSX(base+".xlsx", businesses)
}

// BaseName derives a deterministic file stem from a search term.
func BaseName(query string) string {
	return "google_maps_data_" + strings.Join(strings.Fields(query), "_")
}

func WriteCSV(path string, businesses []model.Business) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, b := range businesses {
		if err := cw.Write(row(b)); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(path string, businesses []model.Business) error {
	f := excelize.NewFile()
	defer f.Close()

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
	}

	for i, b := range businesses {
		for col, value := range row(b) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// row renders a business in header order. Absent optional fields become
// empty cells, distinct from a literal zero.
func row(b model.Business) []string {
	var reviews, rating string
	if v, ok := b.ReviewCount.Get(); ok {
		reviews = strconv.Itoa(v)
	}
	if v, ok := b.Rating.Get(); ok {
		rating = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return []string{
		b.Name,
		b.Address,
		b.Website,
		b.PhoneNumber,
		reviews,
		rating,
		strconv.FormatFloat(b.Lat, 'f', -1, 64),
		strconv.FormatFloat(b.Lng, 'f', -1, 64),
		b.URL,
	}
}
