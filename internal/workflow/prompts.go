package workflow

import (
	"fmt"
	"strings"

	"github.com/iambrandonn/featforge/internal/feature"
	"github.com/iambrandonn/featforge/internal/plan"
)

// Default prompt templates. A template override from the configuration
// replaces the corresponding instruction block; the feature context is
// always appended.
const (
	defaultSpecPrompt = `Write a complete feature specification in markdown. Cover: overview, user-visible behavior, data model, edge cases, and acceptance criteria. Be precise enough that a builder could implement the feature without asking questions. Output only the specification document.`

	defaultPlanPrompt = `Write an implementation plan in markdown for the specification below. Break the work into numbered phases, each starting with a header of the form "## Phase <n>: <description>". Each phase must be independently implementable and reviewable. Output only the plan document.`

	defaultBuildPrompt = `Implement the phase described below by editing files in the current workspace. Follow the specification and plan exactly. When you are done, summarize what you changed and why.`
)

func (e *Engine) specPrompt(f *feature.Feature) string {
	instruction := defaultSpecPrompt
	if e.cfg.Prompts.Spec != "" {
		instruction = e.cfg.Prompts.Spec
	}

	var b strings.Builder
	b.WriteString(instruction)
	fmt.Fprintf(&b, "\n\n## Feature\n\nName: %s\n", f.Name)
	if f.Owner != "" {
		fmt.Fprintf(&b, "Owner: %s\n", f.Owner)
	}
	return b.String()
}

func (e *Engine) planPrompt(f *feature.Feature, specText string) string {
	instruction := defaultPlanPrompt
	if e.cfg.Prompts.Plan != "" {
		instruction = e.cfg.Prompts.Plan
	}

	var b strings.Builder
	b.WriteString(instruction)
	fmt.Fprintf(&b, "\n\n## Feature\n\nName: %s\n\n## Specification\n\n%s\n", f.Name, specText)
	return b.String()
}

func (e *Engine) buildPrompt(specText, planText string, p plan.Phase) string {
	instruction := defaultBuildPrompt
	if e.cfg.Prompts.Build != "" {
		instruction = e.cfg.Prompts.Build
	}

	var b strings.Builder
	b.WriteString(instruction)
	fmt.Fprintf(&b, "\n\n## Specification\n\n%s\n\n## Plan\n\n%s\n", specText, planText)
	fmt.Fprintf(&b, "\n## Current Phase (%d: %s)\n\n%s\n", p.Number, p.Description, p.Content)
	return b.String()
}

// incorporatePrompt frames review feedback for a resumed generation session
func incorporatePrompt(feedback string) string {
	return fmt.Sprintf(`A reviewer raised issues with your previous output. Address every issue below, then produce the corrected result.

%s`, feedback)
}
