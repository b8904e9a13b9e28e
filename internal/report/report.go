// Package report renders evaluations as tables, JSON, CSV and spreadsheets.
package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/windcover/internal/wind"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("report: unknown format %q (want table, json, csv or xlsx)", s)
	}
}

// Write renders eval to w. XLSX needs a file path and goes through WriteXLSX.
func Write(w io.Writer, eval *wind.Evaluation, format Format) error {
	switch format {
	case FormatTable, "":
		return writeTable(w, eval)
	case FormatJSON:
		return WriteJSON(w, eval)
	case FormatCSV:
		return writeCSV(w, eval)
	case FormatXLSX:
		return eris.New("report: xlsx output requires --output")
	default:
		return eris.Errorf("report: unknown format %q", format)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "report: encode json")
}
