package report

import (
	"strconv"
	"strings"
)

// csvHeader is fixed; downstream spreadsheets key off the column order.
var csvHeader = []string{"Date", "User", "Customer", "Hours", "Hourly Rate", "Earnings", "Description", "Status"}

// WriteCSV renders rows in the export format. Only the description is
// quoted, always, with embedded quotes doubled; other fields are emitted
// bare.
func WriteCSV(rows []EntryRow) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))

	for _, row := range rows {
		b.WriteByte('\n')
		b.WriteString(strings.Join([]string{
			row.Date,
			row.UserName,
			row.CustomerName,
			formatNumber(row.Hours),
			formatNumber(row.HourlyRate),
			formatNumber(row.Earnings()),
			`"` + strings.ReplaceAll(row.Description, `"`, `""`) + `"`,
			row.Status,
		}, ","))
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
