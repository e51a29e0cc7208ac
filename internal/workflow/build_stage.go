package workflow

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iambrandonn/featforge/internal/config"
	"github.com/iambrandonn/featforge/internal/feature"
	"github.com/iambrandonn/featforge/internal/plan"
	"github.com/iambrandonn/featforge/internal/review"
	"github.com/iambrandonn/featforge/internal/runstate"
	"github.com/iambrandonn/featforge/internal/session"
)

// intentSummaryLimit bounds the builder's final output when it is embedded
// in a code-review request as the intent summary.
const intentSummaryLimit = 1000

// clipIntent truncates on a rune boundary so the embedded summary stays
// valid UTF-8.
func clipIntent(s string) string {
	if len(s) <= intentSummaryLimit {
		return s
	}
	cut := intentSummaryLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Build drives code generation phase by phase. The plan is decomposed into
// an ordered queue of phases; each phase runs its own builder session and
// review loop. A feature in ready-for-build moves to building at the start;
// a feature already in building resumes after an earlier aborted build. On
// completion of all phases the feature moves to code-review.
func (e *Engine) Build(ctx context.Context, id string) error {
	f, err := e.requireStatus(id, feature.StatusReadyForBuild, feature.StatusBuilding)
	if err != nil {
		return err
	}
	if err := e.preflight(); err != nil {
		e.notify(fmt.Sprintf("build aborted: %v", err))
		return err
	}

	specText, err := e.store.ReadArtifact(id, SpecArtifact)
	if err != nil {
		return fmt.Errorf("read specification artifact: %w", err)
	}
	planText, err := e.store.ReadArtifact(id, PlanArtifact)
	if err != nil {
		return fmt.Errorf("read plan artifact: %w", err)
	}

	phases := plan.ExtractPhases(string(planText))
	if len(phases) == 0 {
		message := "build aborted: plan is not decomposable into phases"
		e.logHistory(id, feature.SourceSystem, message)
		e.notify(message)
		return ErrNoPhases
	}

	featureDir := e.store.Dir(id)
	state, err := runstate.Load(featureDir)
	if err != nil {
		return err
	}

	if f.Status == feature.StatusReadyForBuild {
		if _, err := e.advance(id, feature.StatusBuilding, feature.SourceSystem,
			fmt.Sprintf("Build started (%d phases)", len(phases))); err != nil {
			return err
		}
	}

	// Progress is keyed by queue position, not header number: a plan that
	// repeats "Phase 1" still has every entry built exactly once.
	for i, p := range phases {
		if state.Completed(i) {
			e.logger.Info("skipping completed phase",
				"feature", id, "position", i, "phase", p.Number)
			continue
		}
		if err := e.buildPhase(ctx, id, string(specText), string(planText), p); err != nil {
			return err
		}
		state.MarkComplete(i)
		if err := runstate.Save(featureDir, state); err != nil {
			return err
		}
	}

	message := "Build complete: all phases implemented"
	if _, err := e.advance(id, feature.StatusCodeReview, feature.SourceSystem, message); err != nil {
		return err
	}
	if err := runstate.Clear(featureDir); err != nil {
		e.logger.Warn("failed to clear build state", "feature", id, "error", err)
	}
	e.notify(message)
	return nil
}

func (e *Engine) buildPhase(ctx context.Context, id, specText, planText string, p plan.Phase) error {
	sessionID := uuid.New().String()

	e.logger.Info("building phase",
		"feature", id,
		"phase", p.Number,
		"description", p.Description,
		"session_id", sessionID)

	result := e.runner.Run(ctx, session.Request{
		Prompt:    e.buildPrompt(specText, planText, p),
		Dir:       e.workDir,
		Persona:   session.PersonaBuilder,
		SessionID: sessionID,
		OnProgress: func(preview string) {
			e.logger.Info("build progress", "feature", id, "phase", p.Number, "text", preview)
		},
	})
	if !result.Succeeded {
		message := fmt.Sprintf("Phase %d generation failed: %v", p.Number, result.Err)
		e.logHistory(id, feature.SourceSystem, message)
		e.notify(message)
		return fmt.Errorf("%w: phase %d: %v", ErrGenerationFailed, p.Number, result.Err)
	}

	intent := clipIntent(result.Output)

	steps := loopSteps{
		maxIterations:    e.cfg.Loop.MaxIterations,
		minorRemediation: true,
		review: func(ctx context.Context, iteration int) review.Outcome {
			return e.reviewPhase(ctx, id, specText, planText, intent, p, iteration)
		},
		incorporate: func(ctx context.Context, feedback string) error {
			res := e.runner.Run(ctx, session.Request{
				Prompt:    incorporatePrompt(feedback),
				Dir:       e.workDir,
				Persona:   session.PersonaBuilder,
				SessionID: sessionID,
				Resume:    true,
			})
			if !res.Succeeded {
				return fmt.Errorf("%w: %v", ErrGenerationFailed, res.Err)
			}
			if len(res.Output) > 0 {
				intent = clipIntent(res.Output)
			}
			return nil
		},
	}

	loopRes, err := e.runReviewLoop(ctx, fmt.Sprintf("phase %d", p.Number), steps)
	if err != nil {
		message := fmt.Sprintf("Phase %d loop aborted: %v", p.Number, err)
		e.logHistory(id, feature.SourceSystem, message)
		e.notify(message)
		return err
	}

	if !loopRes.outcome.advances() {
		message := fmt.Sprintf("Phase %d implemented but review failed; stopping build", p.Number)
		e.logHistory(id, feature.SourceSystem, message)
		e.notify(message)
		return ErrReviewFailed
	}

	e.logHistory(id, feature.SourceSystem,
		fmt.Sprintf("Phase %d complete: %s (%d review iterations)",
			p.Number, loopRes.outcome, loopRes.iterations))
	return nil
}

// reviewPhase acquires the current diff and runs one code review iteration,
// with the dual-reviewer merge when both providers are configured.
func (e *Engine) reviewPhase(ctx context.Context, id, specText, planText, intent string, p plan.Phase, iteration int) review.Outcome {
	diff, err := e.diff.Diff(ctx, e.workDir)
	if err != nil {
		return review.Outcome{
			Classification: review.SeverityMajor,
			ErrorDetail:    fmt.Sprintf("acquire diff: %v", err),
		}
	}

	makeRequest := func(tag string) review.Request {
		return review.Request{
			Type:          review.TypeCode,
			FeatureID:     id,
			Artifact:      diff,
			Spec:          specText,
			Plan:          planText,
			IntentSummary: intent,
			Phase:         p.Number,
			Iteration:     iteration,
			RecordName:    fmt.Sprintf("code-review-phase-%d-iter-%d-%s.md", p.Number, iteration, tag),
		}
	}

	if e.cfg.Review.Provider != config.ReviewProviderBoth || e.apiReviewer == nil {
		reviewer := e.primaryReviewer()
		return reviewer.Review(ctx, makeRequest(reviewer.Name()))
	}

	var agentOut, apiOut review.Outcome
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		agentOut = e.agentReviewer.Review(gctx, makeRequest(e.agentReviewer.Name()))
		return nil
	})
	g.Go(func() error {
		apiOut = e.apiReviewer.Review(gctx, makeRequest(e.apiReviewer.Name()))
		return nil
	})
	_ = g.Wait()

	return mergeOutcomes(e.agentReviewer.Name(), agentOut, e.apiReviewer.Name(), apiOut)
}

// mergeOutcomes combines two reviewers' results: MAJOR if either says
// MAJOR, else MINOR if either says MINOR, else NONE. Either failure makes
// the merged outcome a failure. The combined report keeps both reviews
// under separate headings for the builder.
func mergeOutcomes(nameA string, a review.Outcome, nameB string, b review.Outcome) review.Outcome {
	if !a.Succeeded || !b.Succeeded {
		detail := strings.TrimSpace(strings.Join([]string{a.ErrorDetail, b.ErrorDetail}, " "))
		return review.Outcome{
			Classification: review.SeverityMajor,
			ErrorDetail:    detail,
		}
	}

	var report strings.Builder
	fmt.Fprintf(&report, "## Review by %s\n\n%s\n\n", nameA, a.Report)
	fmt.Fprintf(&report, "## Review by %s\n\n%s\n", nameB, b.Report)

	return review.Outcome{
		Classification: review.Merge(a.Classification, b.Classification),
		Summary:        a.Summary,
		Report:         report.String(),
		Succeeded:      true,
	}
}
