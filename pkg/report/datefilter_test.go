package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaforge/reportoor/pkg/report"
)

func TestBuildDateFilter_NoFilters(t *testing.T) {
	filter, err := report.BuildDateFilter(nil, "")
	require.NoError(t, err)

	assert.Equal(t, report.DefaultDateField, filter.Field)
	assert.True(t, filter.IsZero())
}

func TestBuildDateFilter_StartOnly(t *testing.T) {
	filter, err := report.BuildDateFilter(
		&report.DateRange{StartDate: "2024-01-15"}, "",
	)
	require.NoError(t, err)

	require.NotNil(t, filter.Start)
	assert.Nil(t, filter.End)
	assert.Equal(t,
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *filter.Start)
}

func TestBuildDateFilter_EndDateInclusive(t *testing.T) {
	filter, err := report.BuildDateFilter(
		&report.DateRange{EndDate: "2024-01-20"}, "",
	)
	require.NoError(t, err)

	assert.Nil(t, filter.Start)
	require.NotNil(t, filter.End)

	// The end date is inclusive of its whole day: the upper bound is
	// exclusive midnight of the following day.
	assert.Equal(t,
		time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), *filter.End)

	assert.True(t, filter.Contains(
		time.Date(2024, 1, 20, 23, 59, 59, 0, time.UTC)))
	assert.False(t, filter.Contains(
		time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC)))
}

func TestBuildDateFilter_BothBounds(t *testing.T) {
	filter, err := report.BuildDateFilter(&report.DateRange{
		StartDate: "2024-01-15",
		EndDate:   "2024-01-20",
	}, "")
	require.NoError(t, err)

	require.NotNil(t, filter.Start)
	require.NotNil(t, filter.End)
	assert.True(t, filter.Contains(
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, filter.Contains(
		time.Date(2024, 1, 14, 23, 59, 59, 0, time.UTC)))
}

func TestBuildDateFilter_FieldOverride(t *testing.T) {
	filter, err := report.BuildDateFilter(
		&report.DateRange{StartDate: "2024-01-15"}, "createdAt",
	)
	require.NoError(t, err)

	assert.Equal(t, "createdAt", filter.Field)
}

func TestBuildDateFilter_MalformedDates(t *testing.T) {
	_, err := report.BuildDateFilter(
		&report.DateRange{StartDate: "15/01/2024"}, "",
	)
	assert.Error(t, err)

	_, err = report.BuildDateFilter(
		&report.DateRange{EndDate: "not-a-date"}, "",
	)
	assert.Error(t, err)
}
