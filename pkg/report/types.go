// Package report implements a dimensional aggregation engine over
// test-management data: callers select dimensions (status, user, group,
// date, ...) and metrics (counts, pass rate, average elapsed, ...) and the
// engine produces grouped, aggregated row sets ready for tabular or chart
// rendering.
package report

import (
	"context"
	"time"
)

// Entity identifies which fact table a metric aggregates over.
type Entity string

const (
	// EntityExecution is one recorded test-case execution result.
	EntityExecution Entity = "execution"

	// EntityCase is a test-case definition in the repository.
	EntityCase Entity = "case"

	// EntityIssue is a tracked issue linked to a case, session or run.
	EntityIssue Entity = "issue"

	// EntitySessionResult is an exploratory session result.
	EntitySessionResult Entity = "session_result"
)

// Lookup identifies a reference table used to resolve display values.
type Lookup string

const (
	LookupStatus        Lookup = "status"
	LookupUser          Lookup = "user"
	LookupGroup         Lookup = "group"
	LookupProject       Lookup = "project"
	LookupTemplate      Lookup = "template"
	LookupConfiguration Lookup = "configuration"
	LookupMilestone     Lookup = "milestone"
)

// Scope restricts aggregation to a single project. A nil ProjectID means
// cross-project mode, which additionally makes the project dimension
// available.
type Scope struct {
	ProjectID *uint
}

// ProjectSpecific reports whether the scope is bound to one project.
func (s Scope) ProjectSpecific() bool {
	return s.ProjectID != nil
}

// Record is the normalized row shape every fact table is projected into
// before aggregation. Fields that do not apply to an entity are left at
// their zero value and surface as the "None" sentinel when grouped on.
type Record struct {
	ID          uint
	At          time.Time
	UserID      uint
	ProjectID   uint
	StatusID    uint
	TemplateID  uint
	ConfigID    uint
	MilestoneID uint
	Source      string
	Automated   bool
	Elapsed     *int64
	StepCount   int
	Passed      bool
}

// Option is one candidate value of a dimension, used to populate
// selection UIs and to resolve grouped ids into display labels.
type Option struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DisplayValue is a UI-ready rendering of one grouped dimension value.
type DisplayValue struct {
	ID    any    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// DataSource is the narrow read-only persistence interface the engine
// consumes. The engine never writes.
type DataSource interface {
	// Records returns the normalized rows of one fact table under the
	// given scope and date filter. Soft-deleted rows, rows attached to
	// soft-deleted parents, and untested execution results are excluded.
	Records(
		ctx context.Context, entity Entity, scope Scope, filter DateFilter,
	) ([]Record, error)

	// Options enumerates the candidate values of a lookup table,
	// excluding soft-deleted entries and honoring the project scope.
	Options(ctx context.Context, lookup Lookup, scope Scope) ([]Option, error)

	// GroupMemberships returns every user's group ids. Users absent from
	// the map belong to no group.
	GroupMemberships(ctx context.Context) (map[uint][]uint, error)
}

// Request describes one report: which dimensions to group by (order is
// significant for key composition), which metrics to compute, an optional
// project scope and an optional date range.
type Request struct {
	Dimensions []string   `json:"dimensions"`
	Metrics    []string   `json:"metrics"`
	ProjectID  *uint      `json:"project_id,omitempty"`
	Filters    *DateRange `json:"filters,omitempty"`
}

// Row is one output record: one key per active dimension holding its
// DisplayValue, one key for the metric value, plus the composite group key
// under GroupKeyField.
type Row map[string]any

// GroupKeyField is the row key carrying the composite group key, letting
// callers join independently computed metrics.
const GroupKeyField = "groupKey"

// MetricResult is the row set computed for one requested metric.
type MetricResult struct {
	MetricID string   `json:"metric_id"`
	Label    string   `json:"label"`
	ValueKey string   `json:"value_key"`
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
}

// Result is the full response for one report request. Metrics are computed
// independently; rows of different metrics can be joined on GroupKeyField.
type Result struct {
	Summary string         `json:"summary"`
	Results []MetricResult `json:"results"`
}
