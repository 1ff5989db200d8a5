package report

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// noneLabel is the sentinel shown when a grouped value has no resolvable
// lookup entry (missing foreign key, deleted reference).
const noneLabel = "None"

// noneColor is the neutral color paired with the sentinel label.
const noneColor = "#9ca3af"

// Dimension describes one grouping axis: how to enumerate its candidate
// values, how to extract group scalars from records, and how to render a
// grouped scalar for display.
type Dimension struct {
	// ID is the unique dimension identifier used in requests.
	ID string

	// Label is the human-readable name used in summaries.
	Label string

	// Key is the field name this dimension contributes to output rows.
	Key string

	// MultiValued marks dimensions that fan one record into several
	// grouped rows (group membership).
	MultiValued bool

	// lookup is the reference table backing this dimension, if any.
	lookup Lookup

	// needsMemberships marks dimensions resolved through group
	// membership.
	needsMemberships bool

	// scalars extracts the group scalar(s) of one record. An empty
	// result drops the record from this dimension's grouping.
	scalars func(rec *Record, res *resolver) []string

	// display renders a raw group scalar as a UI-ready value.
	display func(raw string, res *resolver) DisplayValue

	// values enumerates the candidate values for selection UIs.
	values func(
		ctx context.Context, ds DataSource, scope Scope, filter DateFilter,
	) ([]DisplayValue, error)
}

// Display renders one raw grouped scalar for this dimension.
func (d *Dimension) Display(raw string, res *resolver) DisplayValue {
	return d.display(raw, res)
}

// Values enumerates the dimension's candidate values under the given scope
// and date filter.
func (d *Dimension) Values(
	ctx context.Context, ds DataSource, scope Scope, filter DateFilter,
) ([]DisplayValue, error) {
	return d.values(ctx, ds, scope, filter)
}

// ErrUnknownDimension is returned when a request names a dimension id that
// is not in the registry (or not available in the current scope).
var ErrUnknownDimension = fmt.Errorf("unknown dimension")

// dimensionRegistry is the closed set of dimension descriptors, in the
// order they are presented to callers.
var dimensionRegistry = []*Dimension{
	statusDimension(),
	userDimension(),
	groupDimension(),
	dateDimension(),
	projectDimension(),
	templateDimension(),
	configurationDimension(),
	milestoneDimension(),
	automationDimension(),
	sourceDimension(),
}

// projectDimensionID is the one scope-dependent dimension: it only exists
// in cross-project mode.
const projectDimensionID = "project"

// DimensionsForScope returns the dimensions available under a scope. The
// project dimension is omitted entirely in project-specific mode rather
// than returning empty groups.
func DimensionsForScope(scope Scope) []*Dimension {
	dims := make([]*Dimension, 0, len(dimensionRegistry))

	for _, d := range dimensionRegistry {
		if scope.ProjectSpecific() && d.ID == projectDimensionID {
			continue
		}

		dims = append(dims, d)
	}

	return dims
}

// LookupDimension resolves a dimension id under a scope, failing fast on
// unknown ids.
func LookupDimension(id string, scope Scope) (*Dimension, error) {
	for _, d := range DimensionsForScope(scope) {
		if d.ID == id {
			return d, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, id)
}

// --- Descriptor constructors ---

func statusDimension() *Dimension {
	return &Dimension{
		ID:      "status",
		Label:   "Status",
		Key:     "status",
		lookup:  LookupStatus,
		scalars: idScalars(func(r *Record) uint { return r.StatusID }),
		display: lookupDisplay(LookupStatus),
		values:  lookupValues(LookupStatus),
	}
}

func userDimension() *Dimension {
	return &Dimension{
		ID:      "user",
		Label:   "User",
		Key:     "user",
		lookup:  LookupUser,
		scalars: idScalars(func(r *Record) uint { return r.UserID }),
		display: lookupDisplay(LookupUser),
		values:  lookupValues(LookupUser),
	}
}

func groupDimension() *Dimension {
	return &Dimension{
		ID:               "group",
		Label:            "Group",
		Key:              "group",
		MultiValued:      true,
		lookup:           LookupGroup,
		needsMemberships: true,
		scalars: func(rec *Record, res *resolver) []string {
			groups := res.memberships[rec.UserID]
			if len(groups) == 0 {
				// Zero memberships drop the record from this
				// dimension's grouping; there is no synthetic
				// "none" bucket.
				return nil
			}

			scalars := make([]string, 0, len(groups))
			for _, id := range groups {
				scalars = append(scalars, formatID(id))
			}

			return scalars
		},
		display: lookupDisplay(LookupGroup),
		values:  lookupValues(LookupGroup),
	}
}

func dateDimension() *Dimension {
	return &Dimension{
		ID:    "date",
		Label: "Date",
		Key:   "date",
		scalars: func(rec *Record, _ *resolver) []string {
			return []string{dayKey(rec.At)}
		},
		display: func(raw string, _ *resolver) DisplayValue {
			t, err := time.Parse(dayKeyLayout, raw)
			if err != nil {
				return DisplayValue{ID: raw, Name: raw}
			}

			// Re-normalize to the same bucket so enumeration and
			// grouping stay idempotent.
			bucket := dayBucket(t)

			return DisplayValue{
				ID:   bucket.Format(dayKeyLayout),
				Name: bucket.Format(dateLayout),
			}
		},
		values: func(
			ctx context.Context,
			ds DataSource,
			scope Scope,
			filter DateFilter,
		) ([]DisplayValue, error) {
			records, err := ds.Records(ctx, EntityExecution, scope, filter)
			if err != nil {
				return nil, fmt.Errorf("enumerating date buckets: %w", err)
			}

			seen := make(map[string]struct{}, len(records))
			keys := make([]string, 0, len(records))

			for i := range records {
				key := dayKey(records[i].At)
				if _, ok := seen[key]; ok {
					continue
				}

				seen[key] = struct{}{}
				keys = append(keys, key)
			}

			sort.Strings(keys)

			values := make([]DisplayValue, 0, len(keys))
			for _, key := range keys {
				t, _ := time.Parse(dayKeyLayout, key)
				values = append(values, DisplayValue{
					ID:   key,
					Name: t.Format(dateLayout),
				})
			}

			return values, nil
		},
	}
}

func projectDimension() *Dimension {
	return &Dimension{
		ID:      projectDimensionID,
		Label:   "Project",
		Key:     "project",
		lookup:  LookupProject,
		scalars: idScalars(func(r *Record) uint { return r.ProjectID }),
		display: lookupDisplay(LookupProject),
		values: func(
			ctx context.Context,
			ds DataSource,
			scope Scope,
			filter DateFilter,
		) ([]DisplayValue, error) {
			// Only surface projects actually present in the data so
			// cross-project pickers carry no dangling empty options.
			records, err := ds.Records(ctx, EntityExecution, scope, filter)
			if err != nil {
				return nil, fmt.Errorf("listing active projects: %w", err)
			}

			present := make(map[uint]struct{}, len(records))
			for i := range records {
				present[records[i].ProjectID] = struct{}{}
			}

			options, err := ds.Options(ctx, LookupProject, scope)
			if err != nil {
				return nil, fmt.Errorf("listing projects: %w", err)
			}

			values := make([]DisplayValue, 0, len(present))
			for _, opt := range options {
				if _, ok := present[opt.ID]; !ok {
					continue
				}

				values = append(values, optionDisplay(opt))
			}

			return values, nil
		},
	}
}

func templateDimension() *Dimension {
	return &Dimension{
		ID:      "template",
		Label:   "Template",
		Key:     "template",
		lookup:  LookupTemplate,
		scalars: idScalars(func(r *Record) uint { return r.TemplateID }),
		display: lookupDisplay(LookupTemplate),
		values:  lookupValues(LookupTemplate),
	}
}

func configurationDimension() *Dimension {
	return &Dimension{
		ID:      "configuration",
		Label:   "Configuration",
		Key:     "configuration",
		lookup:  LookupConfiguration,
		scalars: idScalars(func(r *Record) uint { return r.ConfigID }),
		display: lookupDisplay(LookupConfiguration),
		values:  lookupValues(LookupConfiguration),
	}
}

func milestoneDimension() *Dimension {
	return &Dimension{
		ID:      "milestone",
		Label:   "Milestone",
		Key:     "milestone",
		lookup:  LookupMilestone,
		scalars: idScalars(func(r *Record) uint { return r.MilestoneID }),
		display: lookupDisplay(LookupMilestone),
		values:  lookupValues(LookupMilestone),
	}
}

func automationDimension() *Dimension {
	return &Dimension{
		ID:    "automation",
		Label: "Automation",
		Key:   "automation",
		scalars: func(rec *Record, _ *resolver) []string {
			if rec.Automated {
				return []string{"automated"}
			}

			return []string{"manual"}
		},
		display: func(raw string, _ *resolver) DisplayValue {
			switch raw {
			case "automated":
				return DisplayValue{ID: raw, Name: "Automated"}
			case "manual":
				return DisplayValue{ID: raw, Name: "Manual"}
			}

			return DisplayValue{ID: raw, Name: noneLabel, Color: noneColor}
		},
		values: staticValues([]DisplayValue{
			{ID: "automated", Name: "Automated"},
			{ID: "manual", Name: "Manual"},
		}),
	}
}

func sourceDimension() *Dimension {
	return &Dimension{
		ID:    "source",
		Label: "Source",
		Key:   "source",
		scalars: func(rec *Record, _ *resolver) []string {
			return []string{rec.Source}
		},
		display: func(raw string, _ *resolver) DisplayValue {
			info := SourceDisplayInfo(raw)

			name := raw
			if name == "" {
				name = noneLabel
			}

			return DisplayValue{
				ID:    raw,
				Name:  name,
				Color: info.Color,
				Icon:  info.Icon,
			}
		},
		values: staticValues(sourceValues()),
	}
}

// --- Shared descriptor helpers ---

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// idScalars builds a single-valued extractor over a numeric foreign key.
// A zero id becomes the empty scalar, grouped under the "None" sentinel.
func idScalars(field func(*Record) uint) func(*Record, *resolver) []string {
	return func(rec *Record, _ *resolver) []string {
		id := field(rec)
		if id == 0 {
			return []string{""}
		}

		return []string{formatID(id)}
	}
}

// lookupDisplay resolves a raw id scalar through a lookup table, falling
// back to the "None" sentinel for missing or unresolvable entries.
func lookupDisplay(lookup Lookup) func(string, *resolver) DisplayValue {
	return func(raw string, res *resolver) DisplayValue {
		if raw == "" {
			return DisplayValue{ID: nil, Name: noneLabel, Color: noneColor}
		}

		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return DisplayValue{ID: raw, Name: raw}
		}

		opt, ok := res.option(lookup, uint(id))
		if !ok {
			return DisplayValue{
				ID:    uint(id),
				Name:  noneLabel,
				Color: noneColor,
			}
		}

		return optionDisplay(opt)
	}
}

// lookupValues enumerates a lookup table as dimension values.
func lookupValues(lookup Lookup) func(
	context.Context, DataSource, Scope, DateFilter,
) ([]DisplayValue, error) {
	return func(
		ctx context.Context, ds DataSource, scope Scope, _ DateFilter,
	) ([]DisplayValue, error) {
		options, err := ds.Options(ctx, lookup, scope)
		if err != nil {
			return nil, fmt.Errorf("listing %s options: %w", lookup, err)
		}

		values := make([]DisplayValue, 0, len(options))
		for _, opt := range options {
			values = append(values, optionDisplay(opt))
		}

		return values, nil
	}
}

func staticValues(values []DisplayValue) func(
	context.Context, DataSource, Scope, DateFilter,
) ([]DisplayValue, error) {
	return func(
		context.Context, DataSource, Scope, DateFilter,
	) ([]DisplayValue, error) {
		return values, nil
	}
}

func optionDisplay(opt Option) DisplayValue {
	return DisplayValue{ID: opt.ID, Name: opt.Name, Color: opt.Color}
}

// --- Per-request lookup resolution ---

// resolver carries the lookup tables and group memberships fetched once per
// request, so display formatting and fan-out never hit the data source per
// row.
type resolver struct {
	options     map[Lookup]map[uint]Option
	memberships map[uint][]uint
}

func (r *resolver) option(lookup Lookup, id uint) (Option, bool) {
	table, ok := r.options[lookup]
	if !ok {
		return Option{}, false
	}

	opt, ok := table[id]

	return opt, ok
}

// buildResolver prefetches every lookup table and, when needed, the group
// membership map required by the selected dimensions.
func buildResolver(
	ctx context.Context, ds DataSource, scope Scope, dims []*Dimension,
) (*resolver, error) {
	res := &resolver{
		options: make(map[Lookup]map[uint]Option),
	}

	for _, dim := range dims {
		if dim.lookup != "" {
			if _, ok := res.options[dim.lookup]; !ok {
				options, err := ds.Options(ctx, dim.lookup, scope)
				if err != nil {
					return nil, fmt.Errorf(
						"resolving %s lookup: %w", dim.lookup, err,
					)
				}

				table := make(map[uint]Option, len(options))
				for _, opt := range options {
					table[opt.ID] = opt
				}

				res.options[dim.lookup] = table
			}
		}

		if dim.needsMemberships && res.memberships == nil {
			memberships, err := ds.GroupMemberships(ctx)
			if err != nil {
				return nil, fmt.Errorf("resolving group memberships: %w", err)
			}

			res.memberships = memberships
		}
	}

	return res, nil
}
