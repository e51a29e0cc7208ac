package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iambrandonn/featforge/internal/review"
)

// loopHarness counts review and incorporate calls against a scripted
// outcome sequence.
type loopHarness struct {
	outcomes      []review.Outcome
	reviews       int
	incorporated  []string
	incorporateEr error
}

func (h *loopHarness) steps(maxIterations int, minorRemediation bool) loopSteps {
	return loopSteps{
		maxIterations:    maxIterations,
		minorRemediation: minorRemediation,
		review: func(ctx context.Context, iteration int) review.Outcome {
			h.reviews++
			out := h.outcomes[0]
			h.outcomes = h.outcomes[1:]
			return out
		},
		incorporate: func(ctx context.Context, feedback string) error {
			h.incorporated = append(h.incorporated, feedback)
			return h.incorporateEr
		},
	}
}

func runLoop(t *testing.T, h *loopHarness, maxIterations int, minorRemediation bool) loopResult {
	t.Helper()
	env := newTestEnv(t)
	res, err := env.engine.runReviewLoop(context.Background(), "test", h.steps(maxIterations, minorRemediation))
	require.NoError(t, err)
	return res
}

func TestLoopCleanFirstReview(t *testing.T) {
	h := &loopHarness{outcomes: []review.Outcome{pass()}}
	res := runLoop(t, h, 3, false)

	require.Equal(t, loopClean, res.outcome)
	require.Equal(t, 1, res.iterations)
	require.Equal(t, 1, h.reviews)
	require.Empty(t, h.incorporated)
	require.True(t, res.outcome.advances())
}

func TestLoopMajorEveryIterationExhaustsBudget(t *testing.T) {
	h := &loopHarness{outcomes: []review.Outcome{
		flagged(review.SeverityMajor, "issues 1"),
		flagged(review.SeverityMajor, "issues 2"),
		flagged(review.SeverityMajor, "issues 3"),
	}}
	res := runLoop(t, h, 3, false)

	require.Equal(t, loopExhausted, res.outcome)
	require.Equal(t, 3, res.iterations)
	require.Equal(t, 3, h.reviews, "exactly maxIterations reviews")
	require.Equal(t, []string{"issues 1", "issues 2"}, h.incorporated,
		"exactly maxIterations-1 incorporation passes")
	require.True(t, res.outcome.advances(), "exhaustion still advances lifecycle state")
}

func TestLoopMajorThenClean(t *testing.T) {
	h := &loopHarness{outcomes: []review.Outcome{
		flagged(review.SeverityMajor, "fix this"),
		pass(),
	}}
	res := runLoop(t, h, 3, false)

	require.Equal(t, loopClean, res.outcome)
	require.Equal(t, 2, res.iterations)
	require.Equal(t, []string{"fix this"}, h.incorporated)
}

func TestLoopMinorWithRemediationThenClean(t *testing.T) {
	h := &loopHarness{outcomes: []review.Outcome{
		flagged(review.SeverityMinor, "nits"),
		pass(),
	}}
	res := runLoop(t, h, 3, true)

	require.Equal(t, loopClean, res.outcome)
	require.Equal(t, 2, res.iterations)
	require.Equal(t, []string{"nits"}, h.incorporated, "exactly one remediation pass")
}

func TestLoopMinorTwiceAcceptsResidual(t *testing.T) {
	h := &loopHarness{outcomes: []review.Outcome{
		flagged(review.SeverityMinor, "nits"),
		flagged(review.SeverityMinor, "more nits"),
	}}
	res := runLoop(t, h, 5, true)

	require.Equal(t, loopMinorAccepted, res.outcome)
	require.Equal(t, 2, res.iterations)
	require.Len(t, h.incorporated, 1, "remediation budget is one-shot")
	require.True(t, res.outcome.advances())
}

func TestLoopMinorWithoutRemediationLoopsLikeMajor(t *testing.T) {
	h := &loopHarness{outcomes: []review.Outcome{
		flagged(review.SeverityMinor, "nits"),
		flagged(review.SeverityMinor, "nits"),
		flagged(review.SeverityMinor, "nits"),
	}}
	res := runLoop(t, h, 3, false)

	require.Equal(t, loopExhausted, res.outcome)
	require.Len(t, h.incorporated, 2)
}

func TestLoopReviewFailureStopsWithoutAdvance(t *testing.T) {
	h := &loopHarness{outcomes: []review.Outcome{
		flagged(review.SeverityMajor, "issues"),
		reviewFailure(),
	}}
	res := runLoop(t, h, 3, false)

	require.Equal(t, loopReviewFailed, res.outcome)
	require.False(t, res.outcome.advances())
	require.Len(t, h.incorporated, 1, "artifact from before the failure is preserved")
}

func TestLoopIncorporateErrorAborts(t *testing.T) {
	h := &loopHarness{
		outcomes:      []review.Outcome{flagged(review.SeverityMajor, "issues")},
		incorporateEr: errors.New("agent exited"),
	}

	env := newTestEnv(t)
	_, err := env.engine.runReviewLoop(context.Background(), "test", h.steps(3, false))
	require.Error(t, err)
	require.Contains(t, err.Error(), "incorporate review feedback")
}

func TestLoopSingleIterationBudget(t *testing.T) {
	h := &loopHarness{outcomes: []review.Outcome{flagged(review.SeverityMajor, "issues")}}
	res := runLoop(t, h, 1, false)

	require.Equal(t, loopExhausted, res.outcome)
	require.Equal(t, 1, h.reviews)
	require.Empty(t, h.incorporated)
}
