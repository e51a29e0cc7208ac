package workflow

import (
	"context"
	"fmt"

	"github.com/iambrandonn/featforge/internal/review"
)

// loopOutcome classifies how a review-and-refine loop ended
type loopOutcome int

const (
	// loopClean means the final review came back with no issues
	loopClean loopOutcome = iota
	// loopMinorAccepted means residual minor feedback was accepted after
	// the one-shot remediation budget was spent (build variant only)
	loopMinorAccepted
	// loopExhausted means maxIterations was reached with issues still open.
	// The caller still advances lifecycle state; the residual issues stay
	// visible in the persisted review records for human follow-up.
	loopExhausted
	// loopReviewFailed means the review provider failed mid-loop. The last
	// generated artifact is preserved but the caller must not advance state.
	loopReviewFailed
)

func (o loopOutcome) advances() bool {
	return o == loopClean || o == loopMinorAccepted || o == loopExhausted
}

func (o loopOutcome) String() string {
	switch o {
	case loopClean:
		return "clean"
	case loopMinorAccepted:
		return "minor feedback accepted"
	case loopExhausted:
		return "max iterations exceeded"
	case loopReviewFailed:
		return "review failed"
	default:
		return "unknown"
	}
}

// loopSteps parameterizes one generate/review/refine loop. The initial
// generation has already happened when runReviewLoop is called; review is
// invoked with a fresh reviewer session every iteration, and incorporate
// resumes the persistent generation session with the review feedback.
type loopSteps struct {
	review      func(ctx context.Context, iteration int) review.Outcome
	incorporate func(ctx context.Context, feedback string) error

	maxIterations int
	// minorRemediation allows exactly one remediation pass for MINOR
	// feedback before residual minor issues are accepted (build variant)
	minorRemediation bool
}

// loopResult reports how the loop ended and how many review iterations ran
type loopResult struct {
	outcome    loopOutcome
	iterations int
}

// runReviewLoop is the generic review-and-refine algorithm shared by the
// specification, plan and per-phase build loops.
func (e *Engine) runReviewLoop(ctx context.Context, label string, steps loopSteps) (loopResult, error) {
	usedMinorRemediation := false

	for iteration := 1; iteration <= steps.maxIterations; iteration++ {
		out := steps.review(ctx, iteration)
		if !out.Succeeded {
			e.logger.Warn("review provider failed, stopping loop",
				"loop", label,
				"iteration", iteration,
				"detail", out.ErrorDetail)
			return loopResult{outcome: loopReviewFailed, iterations: iteration}, nil
		}

		switch out.Classification {
		case review.SeverityNone:
			return loopResult{outcome: loopClean, iterations: iteration}, nil

		case review.SeverityMinor:
			if steps.minorRemediation {
				if usedMinorRemediation {
					// Remediation budget spent: accept the residual minor
					// feedback instead of looping on it again.
					return loopResult{outcome: loopMinorAccepted, iterations: iteration}, nil
				}
				usedMinorRemediation = true
			}
		}

		if iteration == steps.maxIterations {
			e.logger.Warn("max iterations exceeded",
				"loop", label,
				"iterations", iteration,
				"classification", out.Classification)
			return loopResult{outcome: loopExhausted, iterations: iteration}, nil
		}

		if err := steps.incorporate(ctx, out.Report); err != nil {
			return loopResult{iterations: iteration},
				fmt.Errorf("incorporate review feedback: %w", err)
		}
	}

	// Unreachable: every path above returns within the loop.
	return loopResult{outcome: loopExhausted, iterations: steps.maxIterations}, nil
}
