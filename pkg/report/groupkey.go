package report

import (
	"strings"
	"time"
)

// groupKeySeparator joins per-dimension scalars into a composite key. It is
// not expected to occur in the data.
const groupKeySeparator = "|"

// dayKeyLayout is the normalized form of a date-valued group scalar:
// the UTC midnight of the bucketed day.
const dayKeyLayout = "2006-01-02T15:04:05Z"

// composeGroupKey builds the deterministic composite key for one output
// group from the per-dimension scalars in selection order.
func composeGroupKey(parts []string) string {
	return strings.Join(parts, groupKeySeparator)
}

// dayBucket truncates a timestamp to its UTC day.
func dayBucket(t time.Time) time.Time {
	u := t.UTC()

	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// dayKey renders the UTC day bucket of a timestamp as a group scalar.
func dayKey(t time.Time) string {
	return dayBucket(t).Format(dayKeyLayout)
}
