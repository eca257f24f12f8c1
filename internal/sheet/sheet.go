// Package sheet reads uploaded article lists from .xlsx or .csv files.
//
// The first row is the header. It must name the From, To and Main KW
// columns (case-insensitive, surrounding spaces ignored); other columns are
// ignored. Rows whose three cells are all blank are skipped.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Required header names.
const (
	ColFrom     = "From"
	ColTo       = "To"
	ColKeywords = "Main KW"
)

var (
	// ErrUnsupported is returned for files that are neither .xlsx nor .csv.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrMissingColumns is wrapped with the names of the absent columns.
	ErrMissingColumns = errors.New("missing required columns")
)

// Row is one article line.
type Row struct {
	From     string
	To       string
	Keywords string
}

// Parse decodes data according to the extension of filename.
func Parse(filename string, data []byte) ([]Row, error) {
	var records [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(data)
	case ".csv":
		records, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	return rows(records)
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return records, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func rows(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s, %s, %s", ErrMissingColumns, ColFrom, ColTo, ColKeywords)
	}

	idx := map[string]int{}
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}

	var missing []string
	cols := make([]int, 3)
	for i, name := range []string{ColFrom, ColTo, ColKeywords} {
		c, ok := idx[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
		}
		cols[i] = c
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	out := []Row{}
	for _, rec := range records[1:] {
		r := Row{
			From:     cell(rec, cols[0]),
			To:       cell(rec, cols[1]),
			Keywords: cell(rec, cols[2]),
		}
		if r.From == "" && r.To == "" && r.Keywords == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// cell tolerates short rows; excelize trims trailing empty cells.
func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
