package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/heymagurany/toggl-to-jira/internal/epic"
)

type EpicExcelExporter struct {
	OutputDir string
}

func NewEpicExcelExporter(outputDir string) *EpicExcelExporter {
	return &EpicExcelExporter{OutputDir: outputDir}
}

// Export writes the epic aggregates to a single-sheet workbook, one row per
// grouping key, sorted by key with the "(none)" bucket last.
func (e *EpicExcelExporter) Export(aggregates map[string]epic.Aggregate, start, end time.Time) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(e.OutputDir, fmt.Sprintf("epics_%s.xlsx", timestamp))

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Epics"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", err
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})

	f.SetCellValue(sheetName, "A1", "Date From:")
	f.SetCellValue(sheetName, "B1", start.Format("02-01-06"))
	f.SetCellValue(sheetName, "A2", "Date To:")
	f.SetCellValue(sheetName, "B2", end.Format("02-01-06"))

	headers := []string{"Epic", "Time Spent (seconds)", "Time Spent (hours)", "% of Capacity"}
	headerRow := 4
	for col, header := range headers {
		cell := cellName(col+1, headerRow)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	totalSeconds := 0
	for i, key := range sortedKeys(aggregates) {
		agg := aggregates[key]
		row := headerRow + 1 + i
		f.SetCellValue(sheetName, cellName(1, row), key)
		f.SetCellValue(sheetName, cellName(2, row), agg.TimeSpentSeconds)
		f.SetCellValue(sheetName, cellName(3, row), float64(agg.TimeSpentSeconds)/3600)
		f.SetCellValue(sheetName, cellName(4, row), agg.TimeSpentPercent)
		totalSeconds += agg.TimeSpentSeconds
	}

	totalRow := headerRow + 1 + len(aggregates)
	f.SetCellValue(sheetName, cellName(1, totalRow), "Total")
	f.SetCellValue(sheetName, cellName(2, totalRow), totalSeconds)
	f.SetCellValue(sheetName, cellName(3, totalRow), float64(totalSeconds)/3600)

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "D", 22)

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: cellName(1, headerRow+1),
		ActivePane:  "bottomLeft",
	})

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", err
	}

	if err := f.SaveAs(filename); err != nil {
		return "", fmt.Errorf("failed to save excel file: %w", err)
	}
	return filename, nil
}

// sortedKeys orders grouping keys alphabetically with the "(none)" sentinel
// pushed to the end.
func sortedKeys(aggregates map[string]epic.Aggregate) []string {
	keys := make([]string, 0, len(aggregates))
	for key := range aggregates {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == epic.NoEpic {
			return false
		}
		if keys[j] == epic.NoEpic {
			return true
		}
		return keys[i] < keys[j]
	})
	return keys
}

func cellName(col, row int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row)
}

func columnLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
