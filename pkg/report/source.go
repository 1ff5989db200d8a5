package report

// SourceDisplay pairs the icon and color a case provenance tag renders with.
type SourceDisplay struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// defaultSourceDisplay is returned for any unrecognized provenance tag.
var defaultSourceDisplay = SourceDisplay{
	Icon:  "help-circle",
	Color: "#6b7280",
}

// sourceDisplays is the closed lookup of known case provenance tags.
var sourceDisplays = map[string]SourceDisplay{
	"manual":           {Icon: "pencil", Color: "#3b82f6"},
	"api":              {Icon: "terminal", Color: "#8b5cf6"},
	"import":           {Icon: "upload", Color: "#f59e0b"},
	"automated-import": {Icon: "refresh-cw", Color: "#10b981"},
}

// sourceOrder keeps value enumeration deterministic.
var sourceOrder = []string{"manual", "api", "import", "automated-import"}

// SourceDisplayInfo maps a provenance tag to its icon and color. Unknown
// tags get the neutral default; the function never fails.
func SourceDisplayInfo(source string) SourceDisplay {
	if display, ok := sourceDisplays[source]; ok {
		return display
	}

	return defaultSourceDisplay
}

// sourceValues enumerates the known provenance tags as dimension values.
func sourceValues() []DisplayValue {
	values := make([]DisplayValue, 0, len(sourceOrder))

	for _, tag := range sourceOrder {
		display := sourceDisplays[tag]
		values = append(values, DisplayValue{
			ID:    tag,
			Name:  tag,
			Color: display.Color,
			Icon:  display.Icon,
		})
	}

	return values
}
