// Package export renders report results to CSV and optionally uploads the
// files to S3-compatible storage.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/qaforge/reportoor/pkg/report"
)

// WriteCSV renders one metric's row set as CSV: a header of the dimension
// keys plus the metric value key, then one line per group. Display values
// render as their name; the internal group key column is not emitted.
func WriteCSV(w io.Writer, result *report.MetricResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(result.Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	line := make([]string, len(result.Columns))

	for _, row := range result.Rows {
		for i, column := range result.Columns {
			line[i] = cellString(row[column])
		}

		if err := cw.Write(line); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// cellString renders one row value as a CSV cell.
func cellString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case report.DisplayValue:
		return value.Name
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	}

	return fmt.Sprint(v)
}
