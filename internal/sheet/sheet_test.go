package sheet

import (
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cellRef, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := buildXLSX(t, [][]interface{}{
		{"Notes", " from ", "TO", "main kw"},
		{"x", "https://a.example/1", "https://t.example", "alpha, beta"},
		{"", "", "", ""},
		{"y", "https://a.example/2", "https://t.example", "gamma"},
	})

	got, err := Parse("links.xlsx", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(got), got)
	}
	want := Row{From: "https://a.example/1", To: "https://t.example", Keywords: "alpha, beta"}
	if got[0] != want {
		t.Errorf("row 0 = %+v, want %+v", got[0], want)
	}
	if got[1].From != "https://a.example/2" {
		t.Errorf("row 1 = %+v", got[1])
	}
}

func TestParseCSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfFrom,To,Main KW\n" +
		"https://a.example/1,https://t.example,\"one, two\"\n" +
		",,\n" +
		"https://a.example/2,https://t.example\n")

	got, err := Parse("LINKS.CSV", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Keywords != "one, two" {
		t.Errorf("quoted keywords lost: %q", got[0].Keywords)
	}
	if got[1].Keywords != "" {
		t.Errorf("short row should yield empty keywords, got %q", got[1].Keywords)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	got, err := Parse("empty.csv", []byte("From,To,Main KW\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no rows, got %d", len(got))
	}
}

func TestParseMissingColumns(t *testing.T) {
	_, err := Parse("bad.csv", []byte("From,Keyword\nhttps://a,b\n"))
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	if !strings.Contains(err.Error(), "To, Main KW") {
		t.Errorf("error should name the missing columns: %v", err)
	}

	if _, err := Parse("blank.csv", nil); !errors.Is(err, ErrMissingColumns) {
		t.Errorf("empty file: expected ErrMissingColumns, got %v", err)
	}
}

func TestParseUnsupported(t *testing.T) {
	if _, err := Parse("links.txt", []byte("From,To,Main KW")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestParseCorruptWorkbook(t *testing.T) {
	if _, err := Parse("broken.xlsx", []byte("not a zip")); err == nil {
		t.Error("expected error for corrupt workbook")
	}
}
