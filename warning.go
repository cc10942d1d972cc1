package regiontag

import (
	"fmt"
	"strings"
)

// Warning is a non-fatal problem met while running a plan. The element it
// concerns is skipped or only partly extracted; the rest of the run goes on.
type Warning struct {
	ElementID string
	Page      int
	Message   string
}

func (w Warning) String() string {
	switch {
	case w.ElementID != "" && w.Page > 0:
		return fmt.Sprintf("element %s (page %d): %s", w.ElementID, w.Page, w.Message)
	case w.ElementID != "":
		return fmt.Sprintf("element %s: %s", w.ElementID, w.Message)
	case w.Page > 0:
		return fmt.Sprintf("page %d: %s", w.Page, w.Message)
	}
	return w.Message
}

// FormatWarnings joins warnings into one line.
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
