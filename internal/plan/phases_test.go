package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePlan = `# Implementation Plan

Some preamble describing the approach.

## Phase 1: Data model
Define the schema.

- step one
- step two

## Phase 2: API surface
Expose endpoints.

## Phase 3: Wiring
Connect everything.
`

func TestExtractPhasesBasic(t *testing.T) {
	phases := ExtractPhases(samplePlan)
	require.Len(t, phases, 3)

	require.Equal(t, 1, phases[0].Number)
	require.Equal(t, "Data model", phases[0].Description)
	require.Contains(t, phases[0].Content, "## Phase 1: Data model")
	require.Contains(t, phases[0].Content, "step two")
	require.NotContains(t, phases[0].Content, "API surface")

	require.Equal(t, 2, phases[1].Number)
	require.Equal(t, 3, phases[2].Number)
}

func TestExtractPhasesDiscardsPreamble(t *testing.T) {
	phases := ExtractPhases(samplePlan)
	for _, p := range phases {
		require.NotContains(t, p.Content, "preamble")
	}
}

func TestExtractPhasesHeaderVariants(t *testing.T) {
	text := "## Phase 1: colon\nx\n## phase 2. period\ny\n## PHASE 3 - dash\nz\n##Phase 4: tight\nw\n"
	phases := ExtractPhases(text)
	require.Len(t, phases, 4)
	require.Equal(t, "colon", phases[0].Description)
	require.Equal(t, "period", phases[1].Description)
	require.Equal(t, "dash", phases[2].Description)
	require.Equal(t, "tight", phases[3].Description)
}

func TestExtractPhasesSortsOutOfOrder(t *testing.T) {
	text := "## Phase 3: third\n\n## Phase 1: first\n\n## Phase 2: second\n"
	phases := ExtractPhases(text)
	require.Len(t, phases, 3)
	require.Equal(t, []int{1, 2, 3}, []int{phases[0].Number, phases[1].Number, phases[2].Number})
	require.Equal(t, "first", phases[0].Description)
}

func TestExtractPhasesKeepsDuplicatesInTextualOrder(t *testing.T) {
	text := "## Phase 1: alpha\na\n## Phase 1: beta\nb\n"
	phases := ExtractPhases(text)
	require.Len(t, phases, 2)
	require.Equal(t, "alpha", phases[0].Description)
	require.Equal(t, "beta", phases[1].Description)
}

func TestExtractPhasesIgnoresNonPositiveNumbers(t *testing.T) {
	text := "## Phase 0: zero\nx\n## Phase 1: one\ny\n"
	phases := ExtractPhases(text)
	require.Len(t, phases, 1)
	require.Equal(t, 1, phases[0].Number)
}

func TestExtractPhasesEmptyInputs(t *testing.T) {
	require.Empty(t, ExtractPhases(""))
	require.Empty(t, ExtractPhases("# A plan with no phase headers\n\nJust prose.\n"))
	require.Empty(t, ExtractPhases("### Phase 1: too deep\n"))
}
