package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/iambrandonn/featforge/internal/config"
	"github.com/iambrandonn/featforge/internal/feature"
	"github.com/iambrandonn/featforge/internal/review"
	"github.com/iambrandonn/featforge/internal/session"
)

// Artifact file names within a feature directory
const (
	SpecArtifact = "spec.md"
	PlanArtifact = "plan.md"
)

// ErrNoPhases indicates a plan with no recognizable phase headers. Fatal
// for build start; the feature's status is unchanged.
var ErrNoPhases = errors.New("plan contains no phases")

// ErrWrongStatus indicates a lifecycle action invoked on a feature whose
// current status does not allow it.
var ErrWrongStatus = errors.New("feature is not in the required status")

// DiffProvider acquires the unified diff of uncommitted workspace changes
type DiffProvider interface {
	Diff(ctx context.Context, dir string) (string, error)
}

// Notifier receives user-visible progress and outcome messages. The history
// log remains the durable record; notifications are best-effort display.
type Notifier func(message string)

// Options configures an Engine
type Options struct {
	Store         *feature.Store
	Runner        session.Runner
	AgentReviewer review.Provider
	// APIReviewer may be nil when no API credential is configured
	APIReviewer review.Provider
	Diff        DiffProvider
	Config      *config.Config
	// WorkDir is the workspace the builder persona edits code in
	WorkDir string
	Logger  *slog.Logger
	Notify  Notifier
}

// Engine drives the feature lifecycle: specification, planning and build,
// each as a generate/review/refine loop gated by the status state machine.
//
// Callers must not run two lifecycle actions for the same feature
// concurrently; the store serializes status writes but the engine does not
// queue whole actions.
type Engine struct {
	store         *feature.Store
	runner        session.Runner
	agentReviewer review.Provider
	apiReviewer   review.Provider
	diff          DiffProvider
	cfg           *config.Config
	workDir       string
	logger        *slog.Logger
	notify        Notifier
}

// New creates an engine. Callers are expected to hand in a runner already
// wrapped with the per-call timeout budget (session.WithTimeout); timeouts
// bound individual generation and review calls, not whole loops.
func New(opts Options) *Engine {
	notify := opts.Notify
	if notify == nil {
		notify = func(string) {}
	}

	return &Engine{
		store:         opts.Store,
		runner:        opts.Runner,
		agentReviewer: opts.AgentReviewer,
		apiReviewer:   opts.APIReviewer,
		diff:          opts.Diff,
		cfg:           opts.Config,
		workDir:       opts.WorkDir,
		logger:        opts.Logger,
		notify:        notify,
	}
}

// generatorTag is the history source for generation agent activity
func (e *Engine) generatorTag() string {
	return filepath.Base(e.cfg.Agent.Cmd[0])
}

// requireStatus loads a feature and checks it is in one of the given states
func (e *Engine) requireStatus(id string, allowed ...feature.Status) (*feature.Feature, error) {
	f, err := e.store.Load(id)
	if err != nil {
		return nil, err
	}
	for _, s := range allowed {
		if f.Status == s {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is %s", ErrWrongStatus, id, f.Status)
}

// logHistory appends a history entry without a status change
func (e *Engine) logHistory(id, source, message string) {
	if _, err := e.store.Mutate(id, func(f *feature.Feature) error {
		f.Log(source, message, time.Now())
		return nil
	}); err != nil {
		e.logger.Warn("failed to append history", "feature", id, "error", err)
	}
}

// advance applies a state machine transition and persists it
func (e *Engine) advance(id string, to feature.Status, actor, message string) (*feature.Feature, error) {
	return e.store.Mutate(id, func(f *feature.Feature) error {
		return f.ApplyTransition(to, actor, message, time.Now())
	})
}

// approvalNext maps each human-gated status to the state approval moves it to
var approvalNext = map[feature.Status]feature.Status{
	feature.StatusDraft:        feature.StatusSpecReviewed,
	feature.StatusPlanCreated:  feature.StatusPlanReviewed,
	feature.StatusPlanReviewed: feature.StatusReadyForBuild,
	feature.StatusCodeReview:   feature.StatusTesting,
	feature.StatusTesting:      feature.StatusImplemented,
}

// CreateFeature registers a new feature in the requested state
func (e *Engine) CreateFeature(id, name, owner string) (*feature.Feature, error) {
	f := feature.New(id, name, owner, time.Now())
	if err := e.store.Create(f); err != nil {
		return nil, err
	}
	e.notify(fmt.Sprintf("Feature %s created", id))
	return f, nil
}

// Approve applies the next human-gated transition for the feature's current
// status, with the user as actor.
func (e *Engine) Approve(id string) (*feature.Feature, error) {
	return e.store.Mutate(id, func(f *feature.Feature) error {
		to, ok := approvalNext[f.Status]
		if !ok {
			return fmt.Errorf("%w: %s -> ?", feature.ErrInvalidTransition, f.Status)
		}
		return f.ApplyTransition(to, feature.SourceUser,
			fmt.Sprintf("Approved: %s", to), time.Now())
	})
}

// Rework sends a feature in code-review or testing back to building
func (e *Engine) Rework(id, reason string) (*feature.Feature, error) {
	return e.store.Mutate(id, func(f *feature.Feature) error {
		message := "Sent back for rework"
		if reason != "" {
			message = fmt.Sprintf("Sent back for rework: %s", reason)
		}
		return f.ApplyTransition(feature.StatusBuilding, feature.SourceUser, message, time.Now())
	})
}

// preflight fails a lifecycle action before any generation call when the
// agent executable or a configured review provider cannot run at all.
func (e *Engine) preflight() error {
	if len(e.cfg.Agent.Cmd) == 0 {
		return fmt.Errorf("%w: agent command not configured", review.ErrProviderUnavailable)
	}
	if _, err := exec.LookPath(e.cfg.Agent.Cmd[0]); err != nil {
		return fmt.Errorf("%w: agent executable: %v", review.ErrProviderUnavailable, err)
	}

	switch e.cfg.Review.Provider {
	case config.ReviewProviderAPI, config.ReviewProviderBoth:
		if e.apiReviewer == nil {
			return fmt.Errorf("%w: API reviewer not configured", review.ErrProviderUnavailable)
		}
		type availabler interface{ Available() error }
		if a, ok := e.apiReviewer.(availabler); ok {
			if err := a.Available(); err != nil {
				return err
			}
		}
	}
	return nil
}

// primaryReviewer returns the provider used for single-reviewer stages
func (e *Engine) primaryReviewer() review.Provider {
	if e.cfg.Review.Provider == config.ReviewProviderAPI && e.apiReviewer != nil {
		return e.apiReviewer
	}
	return e.agentReviewer
}
