package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ReportColumns is the fixed header of the emitted table, in output order.
var ReportColumns = []string{"Title", "Link", "Snippet", "MatchScore"}

// Report is the final ranked result set. The header is written even when no
// rows qualified: "no results" is success, not failure.
type Report struct {
	Jobs []ScoredJob
}

func (r *Report) Len() int {
	return len(r.Jobs)
}

// WriteCSV writes the report as a four-column CSV table.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ReportColumns); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	for _, job := range r.Jobs {
		record := []string{job.Title, job.Link, job.Snippet, strconv.Itoa(job.MatchScore)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing report row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the report to path, creating or truncating the file.
func (r *Report) SaveCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer file.Close()

	return r.WriteCSV(file)
}
