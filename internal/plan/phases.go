package plan

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Phase is a numbered, independently reviewable unit of an implementation
// plan. Numbers come from the plan text and are not guaranteed unique or
// contiguous; duplicates are kept as separate phases.
type Phase struct {
	Number      int
	Description string
	// Content is the verbatim plan text from this phase's header up to the
	// next header or end of document.
	Content string
}

// phaseHeaderPattern matches lines of the form
// "## Phase <int><sep> <description>" where sep is one of : . - or an
// en/em dash. The "Phase" keyword is case-insensitive.
var phaseHeaderPattern = regexp.MustCompile(`(?i)^##\s*phase\s+(\d+)\s*[:.\-–—]\s*(.+)$`)

// ExtractPhases parses the ordered phase list out of plan text. Text before
// the first header is discarded. The result is sorted ascending by number
// (stable, so out-of-order or duplicate headers keep their textual order
// within equal numbers). An empty result means the plan is not decomposable
// and callers must abort the build; it is not an error.
func ExtractPhases(text string) []Phase {
	var phases []Phase
	var current *Phase
	var body strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimRight(body.String(), "\n")
		phases = append(phases, *current)
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if m := phaseHeaderPattern.FindStringSubmatch(line); m != nil {
			flush()
			number, err := strconv.Atoi(m[1])
			if err != nil || number <= 0 {
				current = nil
				continue
			}
			current = &Phase{
				Number:      number,
				Description: strings.TrimSpace(m[2]),
			}
		}
		if current != nil {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()

	sort.SliceStable(phases, func(i, j int) bool {
		return phases[i].Number < phases[j].Number
	})
	return phases
}
