// package formatter renders transfer reports to various formats (JSON, CSV, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/graymantle/playport/internal/shared"
	"github.com/graymantle/playport/internal/tasks"
)

// ReportToJSON converts a transfer report to indented JSON.
func ReportToJSON(report *tasks.Report) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// ReportToCSV converts a report's outcomes to CSV with columns:
// Index, Title, Artist, Status, DestID, Score, CacheHit, Error
func ReportToCSV(report *tasks.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "Title", "Artist", "Status", "DestID", "Score", "CacheHit", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range report.Outcomes {
		record := []string{
			strconv.Itoa(o.Index),
			o.Title,
			o.Artist,
			string(o.Status),
			o.DestID,
			strconv.FormatFloat(o.Score, 'f', 3, 64),
			strconv.FormatBool(o.CacheHit),
			o.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToText converts a report to a plain-text summary followed by one
// line per outcome.
func ReportToText(report *tasks.Report) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Transfer: %s -> %s\n", report.SourceService, report.DestService))
	if report.PlaylistName != "" {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", report.PlaylistName))
	}
	if report.DestPlaylistID != "" {
		buf.WriteString(fmt.Sprintf("Destination playlist: %s\n", report.DestPlaylistID))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d transferred, %d add failures, %d unmatched, %d errors (of %d)\n",
		report.SuccessCount, report.FailedCount, report.NoMatchCount, report.ErrorCount, report.TotalCount))
	buf.WriteString(fmt.Sprintf("Accuracy: %.1f%%\n", report.Accuracy*100))
	if report.Incomplete {
		buf.WriteString("Run was incomplete.\n")
	}
	buf.WriteString("\n")

	for _, o := range report.Outcomes {
		marker := statusMarker(o.Status)
		line := fmt.Sprintf("%s %d. %s - %s", marker, o.Index, o.Artist, o.Title)
		if o.Status == tasks.StatusNoMatch || o.Status == tasks.StatusError {
			if o.Error != "" {
				line += fmt.Sprintf(" (%s)", o.Error)
			} else {
				line += fmt.Sprintf(" (best score %.2f)", o.Score)
			}
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes()
}

func statusMarker(status tasks.Status) string {
	switch status {
	case tasks.StatusAdded:
		return "✓"
	case tasks.StatusAddFailed, tasks.StatusError:
		return "✗"
	case tasks.StatusNoMatch:
		return "?"
	default:
		return "-"
	}
}

// WriteReport writes the JSON report into dir as transfer_report_<timestamp>.json
// and returns the path. The directory is created if needed.
func WriteReport(report *tasks.Report, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := ReportToJSON(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate report JSON: %w", err)
	}

	stamp := report.FinishedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	path := filepath.Join(dir, fmt.Sprintf("transfer_report_%s.json", stamp.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// WriteCSVReport writes the outcome CSV next to the JSON report and returns its path.
func WriteCSVReport(report *tasks.Report, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := ReportToCSV(report)
	if err != nil {
		return "", err
	}

	stamp := report.FinishedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	path := filepath.Join(dir, fmt.Sprintf("transfer_report_%s.csv", stamp.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return path, nil
}
