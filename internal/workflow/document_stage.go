package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iambrandonn/featforge/internal/checksum"
	"github.com/iambrandonn/featforge/internal/feature"
	"github.com/iambrandonn/featforge/internal/review"
	"github.com/iambrandonn/featforge/internal/session"
)

// ErrReviewFailed indicates the review provider failed mid-loop. The last
// generated artifact is preserved; lifecycle state does not advance.
var ErrReviewFailed = errors.New("review provider failed mid-loop")

// ErrGenerationFailed indicates a generation session failed. The whole
// lifecycle action aborts with no state advancement.
var ErrGenerationFailed = errors.New("generation failed")

// documentStage describes a single-artifact generate/review loop: the
// specification and plan stages differ only in these parameters.
type documentStage struct {
	label      string
	artifact   string
	reviewType review.Type
	from       feature.Status
	to         feature.Status
	prompt     func(f *feature.Feature) string
}

// GenerateSpec drives the specification stage: one architect session
// drafts the spec, then the review loop refines it. On completion the
// feature moves from requested to draft.
func (e *Engine) GenerateSpec(ctx context.Context, id string) error {
	return e.runDocumentStage(ctx, id, documentStage{
		label:      "specification",
		artifact:   SpecArtifact,
		reviewType: review.TypeSpec,
		from:       feature.StatusRequested,
		to:         feature.StatusDraft,
		prompt:     e.specPrompt,
	})
}

// GeneratePlan drives the planning stage: the approved spec is expanded
// into a phased implementation plan. On completion the feature moves from
// spec-reviewed to plan-created.
func (e *Engine) GeneratePlan(ctx context.Context, id string) error {
	specText, err := e.store.ReadArtifact(id, SpecArtifact)
	if err != nil {
		return fmt.Errorf("read specification artifact: %w", err)
	}

	return e.runDocumentStage(ctx, id, documentStage{
		label:      "plan",
		artifact:   PlanArtifact,
		reviewType: review.TypePlan,
		from:       feature.StatusSpecReviewed,
		to:         feature.StatusPlanCreated,
		prompt: func(f *feature.Feature) string {
			return e.planPrompt(f, string(specText))
		},
	})
}

func (e *Engine) runDocumentStage(ctx context.Context, id string, st documentStage) error {
	f, err := e.requireStatus(id, st.from)
	if err != nil {
		return err
	}
	if err := e.preflight(); err != nil {
		e.notify(fmt.Sprintf("%s generation aborted: %v", st.label, err))
		return err
	}

	// One persistent generation session per stage; review feedback resumes
	// it so the conversation keeps its context across iterations.
	sessionID := uuid.New().String()

	e.logger.Info("generating document",
		"feature", id,
		"stage", st.label,
		"session_id", sessionID)

	result := e.runner.Run(ctx, session.Request{
		Prompt:    st.prompt(f),
		Dir:       e.workDir,
		Persona:   session.PersonaArchitect,
		SessionID: sessionID,
		OnProgress: func(preview string) {
			e.logger.Info("generation progress", "feature", id, "text", preview)
		},
	})
	if !result.Succeeded {
		message := fmt.Sprintf("%s generation failed: %v", st.label, result.Err)
		e.logHistory(id, feature.SourceSystem, message)
		e.notify(message)
		return fmt.Errorf("%w: %v", ErrGenerationFailed, result.Err)
	}

	current := result.Output
	if err := e.store.WriteArtifact(id, st.artifact, []byte(current)); err != nil {
		return fmt.Errorf("write %s artifact: %w", st.label, err)
	}
	e.logHistory(id, e.generatorTag(),
		fmt.Sprintf("Drafted %s (%s)", st.label, checksum.Short([]byte(current))))

	reviewer := e.primaryReviewer()
	steps := loopSteps{
		maxIterations: e.cfg.Loop.MaxIterations,
		review: func(ctx context.Context, iteration int) review.Outcome {
			return reviewer.Review(ctx, review.Request{
				Type:       st.reviewType,
				FeatureID:  id,
				Artifact:   current,
				Iteration:  iteration,
				RecordName: fmt.Sprintf("%s-review-%d.md", st.label, iteration),
			})
		},
		incorporate: func(ctx context.Context, feedback string) error {
			res := e.runner.Run(ctx, session.Request{
				Prompt:    incorporatePrompt(feedback),
				Dir:       e.workDir,
				Persona:   session.PersonaArchitect,
				SessionID: sessionID,
				Resume:    true,
			})
			if !res.Succeeded {
				return fmt.Errorf("%w: %v", ErrGenerationFailed, res.Err)
			}
			current = res.Output
			return e.store.WriteArtifact(id, st.artifact, []byte(current))
		},
	}

	loopRes, err := e.runReviewLoop(ctx, st.label, steps)
	if err != nil {
		message := fmt.Sprintf("%s loop aborted: %v", st.label, err)
		e.logHistory(id, feature.SourceSystem, message)
		e.notify(message)
		return err
	}

	if !loopRes.outcome.advances() {
		message := fmt.Sprintf("%s drafted but review failed; status unchanged", st.label)
		e.logHistory(id, reviewer.Name(), message)
		e.notify(message)
		return ErrReviewFailed
	}

	message := fmt.Sprintf("%s complete: %s (%d review iterations)",
		st.label, loopRes.outcome, loopRes.iterations)
	if _, err := e.advance(id, st.to, feature.SourceSystem, message); err != nil {
		return err
	}
	e.notify(message)
	return nil
}
