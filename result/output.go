package result

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteJSON writes the report as indented JSON.
// URLs are written unescaped so they can be copied back into a document.
func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteYAML writes the report as a YAML document.
func WriteYAML(w io.Writer, report *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write yaml output: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}
	return nil
}

// WriteCSV writes one row per result.
// Always includes a header row, even if there are no results.
// Column order: url, classification, status_code, error_type, location, messages, warnings
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)

	header := []string{"url", "classification", "status_code", "error_type", "location", "messages", "warnings"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, res := range results {
		record := []string{
			res.URL,
			string(res.Classification),
			statusCodeStr(res.Status),
			string(res.Category),
			res.Location,
			strings.Join(res.Messages, "; "),
			strings.Join(res.Warnings, "; "),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record for %s: %w", res.URL, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

// Write dispatches on format: json, yaml, csv, or text.
func Write(w io.Writer, format string, report *Report) error {
	switch format {
	case "json":
		return WriteJSON(w, report)
	case "yaml":
		return WriteYAML(w, report)
	case "csv":
		return WriteCSV(w, report.Results)
	case "", "text":
		PrintReport(w, report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// statusCodeStr converts an HTTP status code to a string.
// Returns empty string for 0 (no HTTP status).
func statusCodeStr(code int) string {
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}
