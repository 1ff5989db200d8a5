package report

import "fmt"

// Metric describes one aggregation: which fact table it scans, which date
// field its filter applies to, and the accumulator shape that computes its
// per-group value.
type Metric struct {
	// ID is the unique metric identifier used in requests.
	ID string

	// Label is the human-readable name used in summaries.
	Label string

	// ValueKey is the field name the metric value carries in output rows.
	ValueKey string

	// Entity is the fact table the metric aggregates over.
	Entity Entity

	// DateField is the record field date filters apply to.
	DateField string

	spec accumulatorSpec
}

// ErrUnknownMetric is returned when a request names a metric id that is not
// in the registry.
var ErrUnknownMetric = fmt.Errorf("unknown metric")

// metricRegistry is the closed set of metric descriptors, in the order they
// are presented to callers.
var metricRegistry = []*Metric{
	{
		ID:        "testResultCount",
		Label:     "Test Result Count",
		ValueKey:  "testResultCount",
		Entity:    EntityExecution,
		DateField: DefaultDateField,
		spec:      countSpec(),
	},
	{
		ID:        "passRate",
		Label:     "Pass Rate",
		ValueKey:  "passRate",
		Entity:    EntityExecution,
		DateField: DefaultDateField,
		spec: ratioSpec(func(rec Record) bool {
			return rec.Passed
		}),
	},
	{
		ID:        "avgElapsed",
		Label:     "Average Elapsed Time",
		ValueKey:  "avgElapsed",
		Entity:    EntityExecution,
		DateField: DefaultDateField,
		spec:      averageSpec(elapsedSample),
	},
	{
		ID:        "totalElapsed",
		Label:     "Total Elapsed Time",
		ValueKey:  "totalElapsed",
		Entity:    EntityExecution,
		DateField: DefaultDateField,
		spec:      sumSpec(elapsedSample),
	},
	{
		ID:        "lastActive",
		Label:     "Last Active",
		ValueKey:  "lastActive",
		Entity:    EntityExecution,
		DateField: DefaultDateField,
		spec: maxSpec(func(rec Record) (float64, bool) {
			if rec.At.IsZero() {
				return 0, false
			}

			return float64(rec.At.UnixMilli()), true
		}),
	},
	{
		ID:        "caseCount",
		Label:     "Case Count",
		ValueKey:  "caseCount",
		Entity:    EntityCase,
		DateField: "createdAt",
		spec:      countSpec(),
	},
	{
		ID:        "automationRate",
		Label:     "Automation Rate",
		ValueKey:  "automationRate",
		Entity:    EntityCase,
		DateField: "createdAt",
		spec: ratioSpec(func(rec Record) bool {
			return rec.Automated
		}),
	},
	{
		ID:        "avgStepCount",
		Label:     "Average Step Count",
		ValueKey:  "avgStepCount",
		Entity:    EntityCase,
		DateField: "createdAt",
		spec: averageSpec(func(rec Record) (float64, bool) {
			return float64(rec.StepCount), true
		}),
	},
	{
		ID:        "issueCount",
		Label:     "Issue Count",
		ValueKey:  "issueCount",
		Entity:    EntityIssue,
		DateField: "createdAt",
		spec:      countSpec(),
	},
	{
		ID:        "sessionResultCount",
		Label:     "Session Result Count",
		ValueKey:  "sessionResultCount",
		Entity:    EntitySessionResult,
		DateField: "createdAt",
		spec:      countSpec(),
	},
}

// elapsedSample reads the measured elapsed duration of an execution.
// Executions without a measurement are null samples: excluded from averages
// and counted as 0 by sums.
func elapsedSample(rec Record) (float64, bool) {
	if rec.Elapsed == nil {
		return 0, false
	}

	return float64(*rec.Elapsed), true
}

// Metrics returns every registered metric descriptor.
func Metrics() []*Metric {
	return metricRegistry
}

// LookupMetric resolves a metric id, failing fast on unknown ids.
func LookupMetric(id string) (*Metric, error) {
	for _, m := range metricRegistry {
		if m.ID == id {
			return m, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, id)
}
