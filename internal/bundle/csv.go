package bundle

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sadopc/pomolog/internal/store"
	"github.com/sadopc/pomolog/internal/timeutil"
)

var csvHeader = []string{"ID", "Category", "Description", "Start", "End", "Duration (s)", "Duration", "Work (s)", "Rest (s)", "Images"}

// WriteCSV writes logs as CSV, one row per log.
func WriteCSV(w io.Writer, logs []store.LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range logs {
		endStr := ""
		if e.EndTime != nil {
			endStr = e.EndTime.Local().Format(time.RFC3339)
		}
		pt := timeutil.ResolvePhaseTotals(e)
		row := []string{
			e.ID,
			e.Category,
			e.Description,
			e.StartTime.Local().Format(time.RFC3339),
			endStr,
			fmt.Sprintf("%d", e.Duration),
			timeutil.FormatDuration(e.Duration),
			fmt.Sprintf("%d", pt.Work),
			fmt.Sprintf("%d", pt.Rest),
			strings.Join(e.Images, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ToCSV writes logs to a CSV file at path.
func ToCSV(logs []store.LogEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, logs)
}
