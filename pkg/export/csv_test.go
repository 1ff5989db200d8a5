package export_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaforge/reportoor/pkg/export"
	"github.com/qaforge/reportoor/pkg/report"
)

func TestWriteCSV(t *testing.T) {
	result := &report.MetricResult{
		MetricID: "testResultCount",
		Label:    "Test Result Count",
		ValueKey: "testResultCount",
		Columns:  []string{"status", "testResultCount"},
		Rows: []report.Row{
			{
				"status":             report.DisplayValue{ID: uint(1), Name: "Passed", Color: "#22c55e"},
				"testResultCount":    float64(5),
				report.GroupKeyField: "1",
			},
			{
				"status":             report.DisplayValue{ID: uint(2), Name: "Failed, badly", Color: "#ef4444"},
				"testResultCount":    float64(3),
				report.GroupKeyField: "2",
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, result))

	// Display values render as their name, the group key column is not
	// emitted, and names containing commas are quoted.
	assert.Equal(t,
		"status,testResultCount\n"+
			"Passed,5\n"+
			"\"Failed, badly\",3\n",
		buf.String())
}

func TestWriteCSV_EmptyRows(t *testing.T) {
	result := &report.MetricResult{
		Columns: []string{"user", "passRate"},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, result))

	assert.Equal(t, "user,passRate\n", buf.String())
}

func TestCellValues(t *testing.T) {
	result := &report.MetricResult{
		Columns: []string{"avgElapsed"},
		Rows: []report.Row{
			{"avgElapsed": float64(90.5)},
			{"avgElapsed": nil},
			{"avgElapsed": "2024-01-15T00:00:00Z"},
			{"avgElapsed": int64(7)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, result))

	assert.Equal(t,
		"avgElapsed\n90.5\n\n2024-01-15T00:00:00Z\n7\n",
		buf.String())
}
