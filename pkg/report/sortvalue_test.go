package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/qaforge/reportoor/pkg/report"
)

func TestSortValue_NilAndMissing(t *testing.T) {
	row := report.Row{"present": nil}

	assert.Equal(t, "", report.SortValue(row, "present"))
	assert.Equal(t, "", report.SortValue(row, "absent"))
}

func TestSortValue_ObjectPrefersNameThenID(t *testing.T) {
	row := report.Row{
		"status": report.DisplayValue{ID: uint(3), Name: "Passed"},
		"user":   report.DisplayValue{ID: uint(7)},
		"raw":    map[string]any{"name": "Chrome"},
		"rawID":  map[string]any{"id": 42},
	}

	assert.Equal(t, "passed", report.SortValue(row, "status"))
	assert.Equal(t, uint(7), report.SortValue(row, "user"))
	assert.Equal(t, "chrome", report.SortValue(row, "raw"))
	assert.Equal(t, 42, report.SortValue(row, "rawID"))
}

func TestSortValue_DateColumns(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	row := report.Row{
		"executedAt": at,
		"date":       "2024-01-15",
	}

	assert.Equal(t, at.UnixMilli(), report.SortValue(row, "executedAt"))
	assert.Equal(t,
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).UnixMilli(),
		report.SortValue(row, "date"))
}

func TestSortValue_DateDetectionAsymmetry(t *testing.T) {
	// "At" matches case-sensitively; "date" matches lowercase only.
	// Observed behavior callers sort on — both branches kept as-is.
	row := report.Row{
		"updatedat": "2024-01-15",
		"Date":      "2024-01-15",
		"createdAt": "2024-01-15",
	}

	// Lowercase "at" does not trigger date parsing.
	assert.Equal(t, "2024-01-15", report.SortValue(row, "updatedat"))

	// Capitalized "Date" does not trigger it either.
	assert.Equal(t, "2024-01-15", report.SortValue(row, "Date"))

	// "createdAt" does.
	assert.Equal(t,
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).UnixMilli(),
		report.SortValue(row, "createdAt"))
}

func TestSortValue_UnparseableDateFallsThrough(t *testing.T) {
	row := report.Row{"executedAt": "Not A Date"}

	assert.Equal(t, "not a date", report.SortValue(row, "executedAt"))
}

func TestSortValue_NumbersPassThrough(t *testing.T) {
	row := report.Row{
		"count": 5,
		"rate":  99.5,
		"big":   int64(1 << 40),
	}

	assert.Equal(t, 5, report.SortValue(row, "count"))
	assert.Equal(t, 99.5, report.SortValue(row, "rate"))
	assert.Equal(t, int64(1<<40), report.SortValue(row, "big"))
}

func TestSortValue_Totality(t *testing.T) {
	rows := []report.Row{
		{"col": nil},
		{"col": map[string]any{}},
		{"col": map[string]any{"other": 1}},
		{"col": []string{"a", "b"}},
		{"col": struct{ X int }{X: 1}},
		{"executedAt": map[string]any{"name": nil, "id": nil}},
	}

	for _, row := range rows {
		for column := range row {
			assert.NotPanics(t, func() {
				v := report.SortValue(row, column)

				switch v.(type) {
				case string, int, int64, uint, float64:
				default:
					t.Errorf("unexpected sort value type %T", v)
				}
			})
		}
	}
}
