package review

import (
	"regexp"
	"strings"
)

// Structural verdict markers, in precedence order. Reviewer agents are
// instructed to end their output with a delimited block of the form:
//
//	---
//	## VERDICT
//	**Action Required**: [NONE | MINOR | MAJOR]
//	**Builder Must Fix**: [YES | NO]
//	---
var (
	actionRequiredPattern = regexp.MustCompile(`\*\*Action Required\*\*:\s*\[?\s*(NONE|MINOR|MAJOR)\s*\]?`)
	builderMustFixNo      = regexp.MustCompile(`\*\*Builder Must Fix\*\*:\s*\[?\s*NO\s*\]?`)
)

// Legacy markers from the older review prompt format
const (
	legacyMajorMarker     = "**Status: Major Issues Found**"
	legacyNoMajorMarker   = "**Status: No Major Issues**"
	legacyMinorOnlyMarker = "**Status: Minor Issues Only**"
)

// Classify extracts a severity from review text, first match wins.
//
// Text with no recognizable structure classifies as NONE. That treats
// unparseable review output as a clean pass, which is a deliberate,
// documented policy choice rather than an accident; see DESIGN.md before
// changing it.
func Classify(text string) Severity {
	if m := actionRequiredPattern.FindStringSubmatch(text); m != nil {
		return Severity(m[1])
	}

	if builderMustFixNo.MatchString(text) {
		return SeverityNone
	}

	if strings.Contains(text, legacyMajorMarker) {
		return SeverityMajor
	}
	if strings.Contains(text, legacyMinorOnlyMarker) {
		return SeverityMinor
	}
	if strings.Contains(text, legacyNoMajorMarker) {
		return SeverityNone
	}

	return SeverityNone
}
