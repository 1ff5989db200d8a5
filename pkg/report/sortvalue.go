package report

import (
	"fmt"
	"strings"
	"time"
)

// sortDateLayouts are tried in order when normalizing date-like strings.
var sortDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	dayKeyLayout,
	dateLayout,
}

// SortValue extracts a comparable scalar from a raw row field for table
// sorting. Objects prefer their name, then id; date-like columns normalize
// to epoch milliseconds; numbers pass through; everything else lower-cases
// to a string. It is total: any input yields a number or a string, never a
// panic.
//
// Date detection matches the column name against "At" case-sensitively but
// against "date" in lowercase only. The asymmetry is long-standing observed
// behavior; callers sort on it, so both branches are kept as-is.
func SortValue(row Row, column string) any {
	raw, ok := row[column]
	if !ok || raw == nil {
		return ""
	}

	raw = unwrapObject(raw)
	if raw == nil {
		return ""
	}

	if strings.Contains(column, "At") || strings.Contains(column, "date") {
		if ms, ok := epochMillis(raw); ok {
			return ms
		}
	}

	switch v := raw.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return v
	case uint:
		return v
	case float32:
		return float64(v)
	case float64:
		return v
	case string:
		return strings.ToLower(v)
	}

	return strings.ToLower(fmt.Sprint(raw))
}

// unwrapObject reduces object-shaped values to their name, then id, then
// string form.
func unwrapObject(raw any) any {
	switch v := raw.(type) {
	case DisplayValue:
		if v.Name != "" {
			return v.Name
		}

		if v.ID != nil {
			return v.ID
		}

		return fmt.Sprint(v)

	case map[string]any:
		if name, ok := v["name"]; ok && name != nil {
			return name
		}

		if id, ok := v["id"]; ok && id != nil {
			return id
		}

		return fmt.Sprint(v)
	}

	return raw
}

// epochMillis normalizes a date-like value to epoch milliseconds.
func epochMillis(raw any) (int64, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UnixMilli(), true

	case string:
		for _, layout := range sortDateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UnixMilli(), true
			}
		}
	}

	return 0, false
}
