package report_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaforge/reportoor/pkg/report"
)

// fakeDataSource serves canned records and lookups to the engine.
type fakeDataSource struct {
	records     map[report.Entity][]report.Record
	options     map[report.Lookup][]report.Option
	memberships map[uint][]uint
	err         error
}

func (f *fakeDataSource) Records(
	_ context.Context,
	entity report.Entity,
	scope report.Scope,
	filter report.DateFilter,
) ([]report.Record, error) {
	if f.err != nil {
		return nil, f.err
	}

	var out []report.Record

	for _, rec := range f.records[entity] {
		if scope.ProjectSpecific() && rec.ProjectID != *scope.ProjectID {
			continue
		}

		if !filter.IsZero() && !filter.Contains(rec.At) {
			continue
		}

		out = append(out, rec)
	}

	return out, nil
}

func (f *fakeDataSource) Options(
	_ context.Context, lookup report.Lookup, _ report.Scope,
) ([]report.Option, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.options[lookup], nil
}

func (f *fakeDataSource) GroupMemberships(
	_ context.Context,
) (map[uint][]uint, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.memberships, nil
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// statusCountFixture is the canonical scenario: 10 executions across three
// statuses, with the two untested results already excluded by the data
// source contract.
func statusCountFixture() *fakeDataSource {
	records := make([]report.Record, 0, 8)

	for i := 0; i < 5; i++ {
		records = append(records, report.Record{
			ID: uint(i + 1), StatusID: 1, Passed: true,
			At: day(2024, 1, 15),
		})
	}

	for i := 0; i < 3; i++ {
		records = append(records, report.Record{
			ID: uint(i + 6), StatusID: 2,
			At: day(2024, 1, 16),
		})
	}

	return &fakeDataSource{
		records: map[report.Entity][]report.Record{
			report.EntityExecution: records,
		},
		options: map[report.Lookup][]report.Option{
			report.LookupStatus: {
				{ID: 1, Name: "Passed", Color: "#22c55e"},
				{ID: 2, Name: "Failed", Color: "#ef4444"},
			},
		},
	}
}

func TestEngine_StatusCountEndToEnd(t *testing.T) {
	engine := report.NewEngine(testLogger(), statusCountFixture(), 0)

	result, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"status"},
		Metrics:    []string{"testResultCount"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"Test Result Count grouped by Status", result.Summary)

	require.Len(t, result.Results, 1)

	rows := result.Results[0].Rows
	require.Len(t, rows, 2)

	passed := rows[0]["status"].(report.DisplayValue)
	assert.Equal(t, "Passed", passed.Name)
	assert.Equal(t, float64(5), rows[0]["testResultCount"])

	failed := rows[1]["status"].(report.DisplayValue)
	assert.Equal(t, "Failed", failed.Name)
	assert.Equal(t, float64(3), rows[1]["testResultCount"])
}

func TestEngine_MultiMetricJoinableByGroupKey(t *testing.T) {
	engine := report.NewEngine(testLogger(), statusCountFixture(), 0)

	result, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"status"},
		Metrics:    []string{"testResultCount", "passRate"},
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)

	counts := make(map[string]float64)
	for _, row := range result.Results[0].Rows {
		counts[row[report.GroupKeyField].(string)] =
			row["testResultCount"].(float64)
	}

	rates := make(map[string]float64)
	for _, row := range result.Results[1].Rows {
		rates[row[report.GroupKeyField].(string)] =
			row["passRate"].(float64)
	}

	// Metrics are computed independently but share key composition, so
	// rows join on the group key.
	require.Len(t, counts, 2)
	require.Len(t, rates, 2)

	for key := range counts {
		_, ok := rates[key]
		assert.True(t, ok, "group key %q missing from pass rate rows", key)
	}

	assert.Equal(t, float64(100), rates["1"])
	assert.Equal(t, float64(0), rates["2"])
}

func TestEngine_DateDimensionBuckets(t *testing.T) {
	engine := report.NewEngine(testLogger(), statusCountFixture(), 0)

	result, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"date"},
		Metrics:    []string{"testResultCount"},
	})
	require.NoError(t, err)

	rows := result.Results[0].Rows
	require.Len(t, rows, 2)

	first := rows[0]["date"].(report.DisplayValue)
	assert.Equal(t, "2024-01-15", first.Name)
	assert.Equal(t, float64(5), rows[0]["testResultCount"])
}

func TestEngine_DateFilterRestrictsWindow(t *testing.T) {
	engine := report.NewEngine(testLogger(), statusCountFixture(), 0)

	result, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"status"},
		Metrics:    []string{"testResultCount"},
		Filters: &report.DateRange{
			StartDate: "2024-01-16",
			EndDate:   "2024-01-16",
		},
	})
	require.NoError(t, err)

	rows := result.Results[0].Rows
	require.Len(t, rows, 1)
	assert.Equal(t, float64(3), rows[0]["testResultCount"])
}

func TestEngine_GroupFanOut(t *testing.T) {
	ds := statusCountFixture()
	ds.options[report.LookupGroup] = []report.Option{
		{ID: 10, Name: "QA"},
		{ID: 20, Name: "Platform"},
	}

	// Every execution belongs to user 1 by default (UserID zero value is
	// 0); give the first record user 1 with two groups and the second
	// user 2 with none.
	ds.records[report.EntityExecution] = []report.Record{
		{ID: 1, UserID: 1, StatusID: 1, At: day(2024, 1, 15)},
		{ID: 2, UserID: 2, StatusID: 1, At: day(2024, 1, 15)},
	}
	ds.memberships = map[uint][]uint{1: {10, 20}}

	engine := report.NewEngine(testLogger(), ds, 0)

	result, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"group"},
		Metrics:    []string{"testResultCount"},
	})
	require.NoError(t, err)

	rows := result.Results[0].Rows
	require.Len(t, rows, 2)

	for _, row := range rows {
		group := row["group"].(report.DisplayValue)
		assert.Contains(t, []string{"QA", "Platform"}, group.Name)
		assert.Equal(t, float64(1), row["testResultCount"])
	}
}

func TestEngine_MissingLookupDisplaysNone(t *testing.T) {
	ds := statusCountFixture()
	ds.records[report.EntityExecution] = []report.Record{
		{ID: 1, StatusID: 99, At: day(2024, 1, 15)}, // no such status
		{ID: 2, StatusID: 0, At: day(2024, 1, 15)},  // no status at all
	}

	engine := report.NewEngine(testLogger(), ds, 0)

	result, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"status"},
		Metrics:    []string{"testResultCount"},
	})
	require.NoError(t, err)

	rows := result.Results[0].Rows
	require.Len(t, rows, 2)

	for _, row := range rows {
		status := row["status"].(report.DisplayValue)
		assert.Equal(t, "None", status.Name)
		assert.Equal(t, "#9ca3af", status.Color)
	}
}

func TestEngine_UnknownIDsFailFast(t *testing.T) {
	engine := report.NewEngine(testLogger(), statusCountFixture(), 0)

	_, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"nope"},
		Metrics:    []string{"testResultCount"},
	})
	require.ErrorIs(t, err, report.ErrUnknownDimension)

	_, err = engine.Run(context.Background(), report.Request{
		Dimensions: []string{"status"},
		Metrics:    []string{"nope"},
	})
	require.ErrorIs(t, err, report.ErrUnknownMetric)
}

func TestEngine_EmptyMetricSelection(t *testing.T) {
	engine := report.NewEngine(testLogger(), statusCountFixture(), 0)

	_, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"status"},
	})
	require.ErrorIs(t, err, report.ErrEmptySelection)
}

func TestEngine_NoDimensionsGlobalAggregate(t *testing.T) {
	engine := report.NewEngine(testLogger(), statusCountFixture(), 0)

	result, err := engine.Run(context.Background(), report.Request{
		Metrics: []string{"testResultCount"},
	})
	require.NoError(t, err)

	// No dimensions means one global row and no renderable summary.
	assert.Empty(t, result.Summary)

	rows := result.Results[0].Rows
	require.Len(t, rows, 1)
	assert.Equal(t, float64(8), rows[0]["testResultCount"])
}

func TestEngine_ProjectDimensionRequiresCrossProjectMode(t *testing.T) {
	engine := report.NewEngine(testLogger(), statusCountFixture(), 0)

	pid := uint(1)

	_, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"project"},
		Metrics:    []string{"testResultCount"},
		ProjectID:  &pid,
	})
	require.ErrorIs(t, err, report.ErrUnknownDimension)
}

func TestEngine_RowLimitGuard(t *testing.T) {
	engine := report.NewEngine(testLogger(), statusCountFixture(), 3)

	_, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"status"},
		Metrics:    []string{"testResultCount"},
	})
	require.ErrorIs(t, err, report.ErrRowLimit)
}

func TestEngine_DataSourceErrorsPropagate(t *testing.T) {
	ds := statusCountFixture()
	ds.err = fmt.Errorf("database unreachable")

	engine := report.NewEngine(testLogger(), ds, 0)

	_, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"status"},
		Metrics:    []string{"testResultCount"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unreachable")
}

func TestEngine_AverageElapsed(t *testing.T) {
	elapsed := func(v int64) *int64 { return &v }

	ds := statusCountFixture()
	ds.records[report.EntityExecution] = []report.Record{
		{ID: 1, StatusID: 1, At: day(2024, 1, 15), Elapsed: elapsed(120)},
		{ID: 2, StatusID: 1, At: day(2024, 1, 15), Elapsed: elapsed(60)},
		{ID: 3, StatusID: 1, At: day(2024, 1, 15)}, // unmeasured
	}

	engine := report.NewEngine(testLogger(), ds, 0)

	result, err := engine.Run(context.Background(), report.Request{
		Dimensions: []string{"status"},
		Metrics:    []string{"avgElapsed"},
	})
	require.NoError(t, err)

	rows := result.Results[0].Rows
	require.Len(t, rows, 1)
	assert.Equal(t, float64(90), rows[0]["avgElapsed"])
}

func TestDimensionsForScope(t *testing.T) {
	crossProject := report.DimensionsForScope(report.Scope{})

	ids := make([]string, 0, len(crossProject))
	for _, d := range crossProject {
		ids = append(ids, d.ID)
	}

	assert.Contains(t, ids, "project")

	pid := uint(1)
	scoped := report.DimensionsForScope(report.Scope{ProjectID: &pid})

	for _, d := range scoped {
		assert.NotEqual(t, "project", d.ID)
	}

	assert.Len(t, scoped, len(crossProject)-1)
}
