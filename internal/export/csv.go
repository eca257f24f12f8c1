// Package export renders analysis results as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/abelbrown/strategist/internal/model"
)

// Header is the first row of every export.
var Header = []string{
	"From URL",
	"To URL",
	"Keyword",
	"Rating",
	"Location",
	"Original Text",
	"Replacement Text",
	"Reasoning",
}

// Write renders rows as CSV. Zero rows produce the header alone.
func Write(w io.Writer, rows []model.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.FromURL,
			r.ToURL,
			r.Keyword,
			strconv.Itoa(r.Rating),
			r.Location,
			r.OldText,
			r.NewText,
			r.Reasoning,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName builds "<slug>-links-YYYYMMDD-HHMMSS.csv".
func FileName(projectName string, now time.Time) string {
	return fmt.Sprintf("%s-links-%s.csv", slug(projectName), now.Format("20060102-150405"))
}

// WriteFile writes rows to a new file in dir and returns its path.
func WriteFile(dir, projectName string, rows []model.ExportRow, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(projectName, now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "project"
	}
	return s
}
