// Package output formats usage-report results for the terminal.
//
// Purpose:
//
//	Render command results as an aligned table for people or as indented
//	JSON for scripts, with the same rows either way.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formats accepted by --format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table or json)", s)
}

// TableFormatter formats output as a human-readable table.
type TableFormatter struct {
	writer *tabwriter.Writer
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
	}
}

// WriteHeader writes the column headers followed by an underline row.
func (t *TableFormatter) WriteHeader(headers ...string) error {
	if err := t.WriteRow(headers...); err != nil {
		return err
	}
	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", max(len(h), 3))
	}
	return t.WriteRow(rule...)
}

// WriteRow writes a table row.
func (t *TableFormatter) WriteRow(values ...string) error {
	_, err := fmt.Fprintln(t.writer, strings.Join(values, "\t"))
	return err
}

// Flush flushes the table output.
func (t *TableFormatter) Flush() error {
	return t.writer.Flush()
}

// Table is a header plus rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Write renders tbl in format to w. JSON output is a list of objects keyed by header.
func Write(w io.Writer, format string, tbl Table) error {
	if format == FormatJSON {
		records := make([]map[string]string, 0, len(tbl.Rows))
		for _, row := range tbl.Rows {
			rec := make(map[string]string, len(tbl.Headers))
			for i, h := range tbl.Headers {
				if i < len(row) {
					rec[h] = row[i]
				}
			}
			records = append(records, rec)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	formatter := NewTableFormatter(w)
	if err := formatter.WriteHeader(tbl.Headers...); err != nil {
		return err
	}
	for _, row := range tbl.Rows {
		if err := formatter.WriteRow(row...); err != nil {
			return err
		}
	}
	return formatter.Flush()
}
