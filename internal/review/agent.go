package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/iambrandonn/featforge/internal/session"
)

// verdictInstruction tells the reviewer agent how to end its output so the
// classifier can recover a deterministic severity from free-form prose.
const verdictInstruction = `End your review with exactly this delimited block, choosing one value per field:

---
## VERDICT
**Action Required**: [NONE | MINOR | MAJOR]
**Builder Must Fix**: [YES | NO]
---

Everything above the block is free-form commentary for human readers.`

// AgentReviewer drives a reviewer-persona agent session and recovers the
// classification from its final textual output (implementation B).
//
// Reviewer sessions are always fresh, never resumed, so the critique stays
// independent of the generating persona's conversation.
type AgentReviewer struct {
	runner session.Runner
	dir    string
	sink   RecordSink
	logger *slog.Logger
}

// NewAgentReviewer creates the agent-backed review provider. dir is the
// working directory reviewer sessions run in.
func NewAgentReviewer(runner session.Runner, dir string, sink RecordSink, logger *slog.Logger) *AgentReviewer {
	return &AgentReviewer{runner: runner, dir: dir, sink: sink, logger: logger}
}

// Name returns the source tag for history entries
func (a *AgentReviewer) Name() string { return "agent-reviewer" }

// Review runs one fresh reviewer session over the artifact
func (a *AgentReviewer) Review(ctx context.Context, req Request) Outcome {
	if strings.TrimSpace(req.Artifact) == "" {
		return failure("nothing to review: empty artifact")
	}

	result := a.runner.Run(ctx, session.Request{
		Prompt:    a.prompt(req),
		Dir:       a.dir,
		Persona:   session.PersonaReviewer,
		SessionID: uuid.New().String(),
	})
	if !result.Succeeded {
		detail := "reviewer session failed"
		if result.Err != nil {
			detail = result.Err.Error()
		}
		a.logger.Warn("agent review failed",
			"feature", req.FeatureID,
			"type", req.Type,
			"error", detail)
		return failure(detail)
	}

	classification := Classify(result.Output)

	if a.sink != nil && req.RecordName != "" {
		if err := a.sink.WriteReview(req.FeatureID, req.RecordName, []byte(result.Output)); err != nil {
			a.logger.Warn("failed to persist review record", "error", err)
		}
	}

	a.logger.Info("agent review completed",
		"feature", req.FeatureID,
		"type", req.Type,
		"classification", classification)

	return Outcome{
		Classification: classification,
		Summary:        session.Preview(result.Output),
		Report:         result.Output,
		Succeeded:      true,
	}
}

func (a *AgentReviewer) prompt(req Request) string {
	var b strings.Builder

	switch req.Type {
	case TypeSpec:
		b.WriteString("Review the following feature specification for completeness, clarity, ambiguity and testability. Call out anything a builder could not implement unambiguously.\n\n")
		fmt.Fprintf(&b, "## Specification\n\n%s\n\n", req.Artifact)
	case TypePlan:
		b.WriteString("Review the following implementation plan for ordering, completeness and feasibility. Flag missing steps and dependencies between phases.\n\n")
		fmt.Fprintf(&b, "## Plan\n\n%s\n\n", req.Artifact)
	case TypeCode:
		fmt.Fprintf(&b, "Review the following code change for phase %d against its specification and plan.\n\n", req.Phase)
		fmt.Fprintf(&b, "## Specification\n\n%s\n\n## Plan\n\n%s\n\n", req.Spec, req.Plan)
		if req.IntentSummary != "" {
			fmt.Fprintf(&b, "## Builder Intent\n\n%s\n\n", req.IntentSummary)
		}
		fmt.Fprintf(&b, "## Diff\n\n```diff\n%s\n```\n\n", req.Artifact)
	}

	b.WriteString(verdictInstruction)
	return b.String()
}
