package report

import (
	"fmt"
	"time"
)

// DefaultDateField is the field a date filter applies to when the caller
// does not override it.
const DefaultDateField = "executedAt"

// dateLayout is the wire format for filter dates.
const dateLayout = "2006-01-02"

// ErrBadDate is returned when a filter date does not parse as YYYY-MM-DD.
var ErrBadDate = fmt.Errorf("malformed filter date")

// DateRange is the raw filter payload as received from a caller. Both
// bounds are optional; the end date is inclusive of the whole day.
type DateRange struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// DateFilter is a resolved half-open range predicate on a single field:
// Start <= field < End. A nil bound means unbounded on that side.
type DateFilter struct {
	Field string
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether the filter imposes no restriction.
func (f DateFilter) IsZero() bool {
	return f.Start == nil && f.End == nil
}

// Contains reports whether t falls inside the filter range.
func (f DateFilter) Contains(t time.Time) bool {
	if f.Start != nil && t.Before(*f.Start) {
		return false
	}

	if f.End != nil && !t.Before(*f.End) {
		return false
	}

	return true
}

// BuildDateFilter turns a raw date range into a UTC-normalized predicate on
// the given field (DefaultDateField when field is empty). The start bound is
// midnight UTC of the start date; the end bound is exclusive midnight UTC of
// the day after the end date, so the end date's whole day is included.
func BuildDateFilter(r *DateRange, field string) (DateFilter, error) {
	if field == "" {
		field = DefaultDateField
	}

	filter := DateFilter{Field: field}

	if r == nil {
		return filter, nil
	}

	if r.StartDate != "" {
		start, err := time.ParseInLocation(dateLayout, r.StartDate, time.UTC)
		if err != nil {
			return DateFilter{}, fmt.Errorf(
				"%w: parsing start date %q: %v", ErrBadDate, r.StartDate, err,
			)
		}

		filter.Start = &start
	}

	if r.EndDate != "" {
		end, err := time.ParseInLocation(dateLayout, r.EndDate, time.UTC)
		if err != nil {
			return DateFilter{}, fmt.Errorf(
				"%w: parsing end date %q: %v", ErrBadDate, r.EndDate, err,
			)
		}

		exclusive := end.AddDate(0, 0, 1)
		filter.End = &exclusive
	}

	return filter, nil
}
