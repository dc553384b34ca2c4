package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReportJSON is the name of the JSON report file.
const ReportJSON = "report.json"

// WriteFiles creates outDir if needed and writes report.json and the four
// CSV files into it. It returns the paths written.
func WriteFiles(outDir string, doc *Document) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	files := []struct {
		name  string
		write func(*Document, io.Writer) error
	}{
		{ReportJSON, EncodeJSON},
		{StatusCountsCSV, WriteStatusCSV},
		{TopEndpointsCSV, WriteEndpointsCSV},
		{RequestsPerMinuteCSV, WriteMinutesCSV},
		{LatencySummaryCSV, WriteLatencyCSV},
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(outDir, f.name)
		if err := writeFile(path, doc, f.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, doc *Document, write func(*Document, io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	if err := write(doc, file); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
