package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/pkordes/securecheck/internal/domain"
	"github.com/pkordes/securecheck/internal/report"
)

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	// Column names are shown as stored, not upper-cased.
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

// renderTable prints a report result. An empty result still shows its header.
func renderTable(out io.Writer, t domain.ResultTable) {
	table := newTable(out, t.Columns)
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		table.Append(cells)
	}
	table.Render()
	fmt.Fprintf(out, "%d row(s)\n", t.Len())
}

func renderRecords(out io.Writer, recs []domain.StopRecord) {
	table := newTable(out, domain.Columns)
	for _, r := range recs {
		table.Append(r.Values())
	}
	table.Render()
}

func renderDefinitions(out io.Writer, defs []report.Definition) {
	table := newTable(out, []string{"id", "tier", "category", "label", "columns"})
	for _, d := range defs {
		table.Append([]string{d.ID, string(d.Tier), string(d.Category), d.Label, strings.Join(d.Columns, ", ")})
	}
	table.Render()
}

// formatValue renders one normalised ResultTable cell. Rates and averages
// are shown to two decimals.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
