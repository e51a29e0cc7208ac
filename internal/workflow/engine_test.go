package workflow

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iambrandonn/featforge/internal/config"
	"github.com/iambrandonn/featforge/internal/feature"
	"github.com/iambrandonn/featforge/internal/review"
	"github.com/iambrandonn/featforge/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedRunner replays canned session results in order and records every
// request it served.
type scriptedRunner struct {
	results  []session.Result
	requests []session.Request
}

func (r *scriptedRunner) Run(ctx context.Context, req session.Request) session.Result {
	r.requests = append(r.requests, req)
	if len(r.results) == 0 {
		return session.Result{Succeeded: true, Output: "generated output"}
	}
	res := r.results[0]
	r.results = r.results[1:]
	return res
}

// scriptedReviewer replays canned review outcomes in order
type scriptedReviewer struct {
	name     string
	outcomes []review.Outcome
	requests []review.Request
}

func (p *scriptedReviewer) Name() string { return p.name }

func (p *scriptedReviewer) Review(ctx context.Context, req review.Request) review.Outcome {
	p.requests = append(p.requests, req)
	if len(p.outcomes) == 0 {
		return review.Outcome{Classification: review.SeverityNone, Succeeded: true, Report: "fine"}
	}
	out := p.outcomes[0]
	p.outcomes = p.outcomes[1:]
	return out
}

func pass() review.Outcome {
	return review.Outcome{Classification: review.SeverityNone, Succeeded: true, Report: "fine"}
}

func flagged(sev review.Severity, report string) review.Outcome {
	return review.Outcome{Classification: sev, Succeeded: true, Report: report}
}

func reviewFailure() review.Outcome {
	return review.Outcome{Classification: review.SeverityMajor, ErrorDetail: "provider down"}
}

type staticDiff struct{ diff string }

func (d staticDiff) Diff(ctx context.Context, dir string) (string, error) {
	return d.diff, nil
}

type testEnv struct {
	engine   *Engine
	store    *feature.Store
	runner   *scriptedRunner
	reviewer *scriptedReviewer
	cfg      *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.FeaturesDir = t.TempDir()
	// Preflight checks that the agent executable resolves; the test binary
	// itself is always present.
	cfg.Agent.Cmd = []string{os.Args[0]}

	store := feature.NewStore(cfg.FeaturesDir, discardLogger())
	runner := &scriptedRunner{}
	reviewer := &scriptedReviewer{name: "agent-reviewer"}

	engine := New(Options{
		Store:         store,
		Runner:        runner,
		AgentReviewer: reviewer,
		Diff:          staticDiff{diff: "diff --git a/a.go b/a.go\n+change\n"},
		Config:        cfg,
		WorkDir:       t.TempDir(),
		Logger:        discardLogger(),
	})

	return &testEnv{engine: engine, store: store, runner: runner, reviewer: reviewer, cfg: cfg}
}

func (env *testEnv) createFeature(t *testing.T, status feature.Status) {
	t.Helper()

	f := feature.New("F-001", "Search filters", "alice", time.Now())
	require.NoError(t, env.store.Create(f))

	// Walk the forward path to reach the requested starting status
	path := []feature.Status{
		feature.StatusDraft,
		feature.StatusSpecReviewed,
		feature.StatusPlanCreated,
		feature.StatusPlanReviewed,
		feature.StatusReadyForBuild,
		feature.StatusBuilding,
		feature.StatusCodeReview,
		feature.StatusTesting,
		feature.StatusImplemented,
	}
	for _, next := range path {
		if f.Status == status {
			break
		}
		_, err := env.store.Mutate("F-001", func(f *feature.Feature) error {
			return f.ApplyTransition(next, feature.SourceSystem, "setup", time.Now())
		})
		require.NoError(t, err)
		f.Status = next
	}
}

func (env *testEnv) status(t *testing.T) feature.Status {
	t.Helper()
	f, err := env.store.Load("F-001")
	require.NoError(t, err)
	return f.Status
}

func (env *testEnv) historyMessages(t *testing.T) []string {
	t.Helper()
	f, err := env.store.Load("F-001")
	require.NoError(t, err)
	var messages []string
	for _, e := range f.History {
		messages = append(messages, e.Message)
	}
	return messages
}

func TestCreateFeature(t *testing.T) {
	env := newTestEnv(t)

	f, err := env.engine.CreateFeature("F-001", "Search filters", "alice")
	require.NoError(t, err)
	require.Equal(t, feature.StatusRequested, f.Status)

	_, err = env.engine.CreateFeature("F-001", "Search filters", "alice")
	require.Error(t, err)
}

func TestApproveWalksGatedTransitions(t *testing.T) {
	cases := []struct {
		from feature.Status
		to   feature.Status
	}{
		{feature.StatusDraft, feature.StatusSpecReviewed},
		{feature.StatusPlanCreated, feature.StatusPlanReviewed},
		{feature.StatusPlanReviewed, feature.StatusReadyForBuild},
		{feature.StatusCodeReview, feature.StatusTesting},
		{feature.StatusTesting, feature.StatusImplemented},
	}

	for _, tc := range cases {
		t.Run(string(tc.from), func(t *testing.T) {
			env := newTestEnv(t)
			env.createFeature(t, tc.from)

			f, err := env.engine.Approve("F-001")
			require.NoError(t, err)
			require.Equal(t, tc.to, f.Status)

			messages := env.historyMessages(t)
			require.Contains(t, messages[len(messages)-1], "Approved")
		})
	}
}

func TestApproveHasNoEffectOutsideGates(t *testing.T) {
	env := newTestEnv(t)
	env.createFeature(t, feature.StatusRequested)

	_, err := env.engine.Approve("F-001")
	require.ErrorIs(t, err, feature.ErrInvalidTransition)
	require.Equal(t, feature.StatusRequested, env.status(t))
}

func TestReworkFromCodeReviewAndTesting(t *testing.T) {
	for _, from := range []feature.Status{feature.StatusCodeReview, feature.StatusTesting} {
		t.Run(string(from), func(t *testing.T) {
			env := newTestEnv(t)
			env.createFeature(t, from)

			f, err := env.engine.Rework("F-001", "flaky tests")
			require.NoError(t, err)
			require.Equal(t, feature.StatusBuilding, f.Status)

			messages := env.historyMessages(t)
			require.Contains(t, messages[len(messages)-1], "flaky tests")
		})
	}
}

func TestReworkRejectedElsewhere(t *testing.T) {
	env := newTestEnv(t)
	env.createFeature(t, feature.StatusDraft)

	_, err := env.engine.Rework("F-001", "")
	require.ErrorIs(t, err, feature.ErrInvalidTransition)
	require.Equal(t, feature.StatusDraft, env.status(t))
}

func TestPreflightFailsWhenAgentExecutableMissing(t *testing.T) {
	env := newTestEnv(t)
	env.createFeature(t, feature.StatusRequested)
	env.cfg.Agent.Cmd = []string{filepath.Join(t.TempDir(), "absent-agent")}

	err := env.engine.GenerateSpec(context.Background(), "F-001")
	require.ErrorIs(t, err, review.ErrProviderUnavailable)
	require.Equal(t, feature.StatusRequested, env.status(t))
	require.Empty(t, env.runner.requests, "aborted before any generation call")
}

func TestPreflightFailsWhenAPIProviderMissing(t *testing.T) {
	env := newTestEnv(t)
	env.createFeature(t, feature.StatusRequested)
	env.cfg.Review.Provider = config.ReviewProviderAPI

	err := env.engine.GenerateSpec(context.Background(), "F-001")
	require.ErrorIs(t, err, review.ErrProviderUnavailable)
	require.Equal(t, feature.StatusRequested, env.status(t))
	require.Empty(t, env.runner.requests, "no generation call before preflight passes")
}
