// AngelaMos | 2026
// report.go

package analytics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/carterperez-dev/memoria/internal/core"
	"github.com/carterperez-dev/memoria/internal/memory"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts csv or json, treating blank as csv.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", core.FieldError("format", "must be csv or json")
	}
}

func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// Report is a tabular export. Cells are strings or ints.
type Report struct {
	Name    string
	Columns []string
	Rows    [][]any
}

func (r *Report) Filename(f Format) string {
	return r.Name + "." + string(f)
}

func (r *Report) Write(w io.Writer, f Format) error {
	if f == FormatJSON {
		return r.writeJSON(w)
	}
	return r.writeCSV(w)
}

func (r *Report) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(r.Columns))
	for _, row := range r.Rows {
		for i, cell := range row {
			record[i] = cellString(cell)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (r *Report) writeJSON(w io.Writer) error {
	records := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			rec[col] = row[i]
		}
		records = append(records, rec)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	return nil
}

func cellString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case int:
		return strconv.Itoa(c)
	default:
		return fmt.Sprint(c)
	}
}

func sessionsReport(rows []SessionReportRow, loc *time.Location) *Report {
	report := &Report{
		Name:    "sessions_report",
		Columns: []string{"title", "message_count", "created_at"},
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		report.Rows = append(report.Rows, []any{
			r.Title,
			r.MessageCount,
			r.CreatedAt.In(loc).Format(time.RFC3339),
		})
	}
	return report
}

func bulletsReport(rows []BulletReportRow, loc *time.Location) *Report {
	report := &Report{
		Name:    "memory_bullets_report",
		Columns: []string{"content", "memory_type", "created_at"},
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		report.Rows = append(report.Rows, []any{
			r.Content,
			memory.MemoryType(r.MemoryType).Label(),
			r.CreatedAt.In(loc).Format(time.RFC3339),
		})
	}
	return report
}
