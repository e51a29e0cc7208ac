package review

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyActionRequired(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Severity
	}{
		{"none", "Looks good.\n\n---\n## VERDICT\n**Action Required**: NONE\n**Builder Must Fix**: NO\n---\n", SeverityNone},
		{"minor", "**Action Required**: MINOR", SeverityMinor},
		{"major", "**Action Required**: MAJOR", SeverityMajor},
		{"bracketed", "**Action Required**: [MAJOR]", SeverityMajor},
		{"spaced brackets", "**Action Required**: [ MINOR ]", SeverityMinor},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.text))
		})
	}
}

func TestClassifyMarkerWinsOverProse(t *testing.T) {
	// The structural marker decides even when the prose sounds approving
	text := "Overall this looks approved and ready to ship. Great work!\n\n" +
		"**Action Required**: MAJOR\n**Builder Must Fix**: YES\n"
	require.Equal(t, SeverityMajor, Classify(text))
}

func TestClassifyFirstMarkerWins(t *testing.T) {
	text := "**Action Required**: MINOR\n\nquoting an older review: **Action Required**: MAJOR\n"
	require.Equal(t, SeverityMinor, Classify(text))
}

func TestClassifyBuilderMustFixNo(t *testing.T) {
	require.Equal(t, SeverityNone, Classify("All fine.\n**Builder Must Fix**: NO\n"))
	require.Equal(t, SeverityNone, Classify("**Builder Must Fix**: [NO]"))
}

func TestClassifyLegacyMarkers(t *testing.T) {
	require.Equal(t, SeverityMajor, Classify("**Status: Major Issues Found**"))
	require.Equal(t, SeverityMinor, Classify("**Status: Minor Issues Only**"))
	require.Equal(t, SeverityNone, Classify("**Status: No Major Issues**"))
}

func TestClassifyActionRequiredBeatsLegacy(t *testing.T) {
	text := "**Status: Major Issues Found**\n\n**Action Required**: NONE\n"
	require.Equal(t, SeverityNone, Classify(text))
}

func TestClassifyUnstructuredTextIsNone(t *testing.T) {
	require.Equal(t, SeverityNone, Classify("I have thoughts but no verdict block."))
	require.Equal(t, SeverityNone, Classify(""))
}

func TestMergeSeverities(t *testing.T) {
	require.Equal(t, SeverityMajor, Merge(SeverityMajor, SeverityNone))
	require.Equal(t, SeverityMajor, Merge(SeverityMinor, SeverityMajor))
	require.Equal(t, SeverityMinor, Merge(SeverityNone, SeverityMinor))
	require.Equal(t, SeverityMinor, Merge(SeverityMinor, SeverityMinor))
	require.Equal(t, SeverityNone, Merge(SeverityNone, SeverityNone))
}

func TestOutcomeEffective(t *testing.T) {
	require.Equal(t, SeverityNone, Outcome{Succeeded: true, Classification: SeverityNone}.Effective())
	require.Equal(t, SeverityMajor, Outcome{Succeeded: false, Classification: SeverityNone}.Effective())
}
