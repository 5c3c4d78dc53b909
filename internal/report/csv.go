package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/heymagurany/toggl-to-jira/internal/epic"
)

type EpicCSVExporter struct {
	OutputDir string
}

func NewEpicCSVExporter(outputDir string) *EpicCSVExporter {
	return &EpicCSVExporter{OutputDir: outputDir}
}

// Export writes the epic aggregates as a CSV file, one row per grouping key.
func (e *EpicCSVExporter) Export(aggregates map[string]epic.Aggregate, start, end time.Time) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(e.OutputDir, fmt.Sprintf("epics_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Epic", "Time Spent (seconds)", "% of Capacity", "From", "To"}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	for _, key := range sortedKeys(aggregates) {
		agg := aggregates[key]
		row := []string{
			key,
			strconv.Itoa(agg.TimeSpentSeconds),
			strconv.Itoa(agg.TimeSpentPercent),
			start.Format("2006-01-02"),
			end.Format("2006-01-02"),
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}

	return filename, nil
}
