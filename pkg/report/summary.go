package report

import "strings"

// TranslateFunc localizes the summary connector words. It receives the keys
// "and" and "grouped by" and returns their translation. A nil function
// falls back to English.
type TranslateFunc func(key string) string

// Summary builds the human-readable report caption, e.g.
// "Count, Pass Rate and Duration grouped by Status, User and Date".
// Lists are joined Oxford-style: comma-separated except the last pair,
// which uses the connector word. The second return is false when either
// list is empty — the caller's signal that there is nothing to render.
func Summary(
	metricLabels, dimensionLabels []string, translate TranslateFunc,
) (string, bool) {
	if len(metricLabels) == 0 || len(dimensionLabels) == 0 {
		return "", false
	}

	and := translateKey(translate, "and")
	groupedBy := translateKey(translate, "grouped by")

	return joinLabels(metricLabels, and) +
		" " + groupedBy + " " +
		joinLabels(dimensionLabels, and), true
}

func translateKey(translate TranslateFunc, key string) string {
	if translate == nil {
		return key
	}

	if t := translate(key); t != "" {
		return t
	}

	return key
}

// joinLabels joins a label list with commas, connecting the final pair with
// the given word. A single label has no connector.
func joinLabels(labels []string, connector string) string {
	switch len(labels) {
	case 0:
		return ""
	case 1:
		return labels[0]
	}

	head := labels[:len(labels)-1]
	last := labels[len(labels)-1]

	return strings.Join(head, ", ") + " " + connector + " " + last
}
