package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/heymagurany/toggl-to-jira/internal/epic"
)

var (
	reportStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	reportEnd   = time.Date(2023, 1, 31, 23, 59, 59, 0, time.UTC)
)

func sampleAggregates() map[string]epic.Aggregate {
	return map[string]epic.Aggregate{
		"EPIC-2":    {TimeSpentSeconds: 7200, TimeSpentPercent: 25},
		"EPIC-1":    {TimeSpentSeconds: 3600, TimeSpentPercent: 13},
		epic.NoEpic: {TimeSpentSeconds: 1800, TimeSpentPercent: 7},
	}
}

func TestSortedKeys(t *testing.T) {
	keys := sortedKeys(sampleAggregates())

	want := []string{"EPIC-1", "EPIC-2", epic.NoEpic}
	if len(keys) != len(want) {
		t.Fatalf("unexpected keys: %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q (alphabetical with %q last)", i, keys[i], want[i], epic.NoEpic)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]int{"timeSpentSeconds": 3600}); err != nil {
		t.Fatalf("PrintJSON returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "  \"timeSpentSeconds\": 3600") {
		t.Errorf("output must be indented, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("output must end with a newline")
	}
}

func TestEpicCSVExport(t *testing.T) {
	dir := t.TempDir()
	exporter := NewEpicCSVExporter(dir)

	filename, err := exporter.Export(sampleAggregates(), reportStart, reportEnd)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	file, err := os.Open(filename)
	if err != nil {
		t.Fatalf("failed to open exported file: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse exported csv: %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Epic" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "EPIC-1" || rows[1][1] != "3600" || rows[1][2] != "13" {
		t.Errorf("unexpected first data row: %v", rows[1])
	}
	if rows[3][0] != epic.NoEpic {
		t.Errorf("the %q bucket must sort last, got %v", epic.NoEpic, rows[3])
	}
	if rows[1][3] != "2023-01-01" || rows[1][4] != "2023-01-31" {
		t.Errorf("unexpected window columns: %v", rows[1])
	}
}

func TestEpicCSVExport_CreatesOutputDir(t *testing.T) {
	dir := t.TempDir() + "/nested/reports"
	exporter := NewEpicCSVExporter(dir)

	if _, err := exporter.Export(sampleAggregates(), reportStart, reportEnd); err != nil {
		t.Fatalf("Export must create the output directory: %v", err)
	}
}

func TestEpicExcelExport(t *testing.T) {
	dir := t.TempDir()
	exporter := NewEpicExcelExporter(dir)

	filename, err := exporter.Export(sampleAggregates(), reportStart, reportEnd)
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("unexpected filename %q", filename)
	}
	info, err := os.Stat(filename)
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("exported file is empty")
	}
}

func TestWriteEpicSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteEpicSummary(&buf, sampleAggregates(), 28800)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, 3 rows and a total, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "EPIC-1") {
		t.Errorf("rows must be sorted, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[4], "TOTAL") || !strings.Contains(lines[4], "12,600") {
		t.Errorf("total line must sum the groups with grouped digits, got %q", lines[4])
	}
}

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		col      int
		expected string
	}{
		{1, "A"},
		{4, "D"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
	}
	for _, tt := range tests {
		if got := columnLetter(tt.col); got != tt.expected {
			t.Errorf("columnLetter(%d) = %q, want %q", tt.col, got, tt.expected)
		}
	}
}
