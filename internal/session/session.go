package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/iambrandonn/featforge/internal/stream"
)

// Persona tags the role a session plays. It selects the prompt framing and
// the continuity rules: generation personas may be resumed, reviewer
// sessions are always fresh.
type Persona string

const (
	PersonaArchitect Persona = "architect"
	PersonaBuilder   Persona = "builder"
	PersonaReviewer  Persona = "reviewer"
)

// progressPreviewLen bounds the assistant-text preview passed to OnProgress
const progressPreviewLen = 80

// Request describes one turn with a generation agent: the full prompt goes
// in over stdin, the full streamed output comes back.
type Request struct {
	Prompt  string
	Dir     string
	Persona Persona

	// SessionID is either a never-before-used identity (Resume false) or
	// the identity of a prior session to continue (Resume true). The two
	// modes are mutually exclusive flags on the agent CLI.
	SessionID string
	Resume    bool

	// OnProgress, if set, receives a truncated preview of each
	// assistant-text event as it streams in.
	OnProgress func(preview string)
}

// Result is the outcome of one session turn
type Result struct {
	Succeeded bool
	// Output is the final assistant text seen before exit
	Output string
	Err    error
}

// Runner is the capability of executing one session turn
type Runner interface {
	Run(ctx context.Context, req Request) Result
}

// Transcript receives every decoded stream event for audit
type Transcript interface {
	Write(sessionID, persona string, ev stream.Event) error
}

// Manager spawns one agent subprocess per Run call. Each call is
// independent; many sessions may be in flight at once. Cancelling the
// context kills the subprocess and reports the turn as failed.
type Manager struct {
	cmd        []string
	env        map[string]string
	logger     *slog.Logger
	transcript Transcript
}

// NewManager creates a session manager around the agent command line
func NewManager(cmd []string, env map[string]string, logger *slog.Logger) *Manager {
	return &Manager{cmd: cmd, env: env, logger: logger}
}

// SetTranscript attaches a transcript sink for decoded events
func (m *Manager) SetTranscript(t Transcript) {
	m.transcript = t
}

// Run executes one turn. Exit code 0 yields a succeeded result carrying the
// final assistant text; a spawn failure or nonzero exit yields a failed
// result with captured stderr in the error.
func (m *Manager) Run(ctx context.Context, req Request) Result {
	if len(m.cmd) == 0 {
		return Result{Err: errors.New("agent command not configured")}
	}
	if req.SessionID == "" {
		return Result{Err: errors.New("session id is required")}
	}

	args := append([]string{}, m.cmd[1:]...)
	args = append(args,
		"-p",
		"--output-format", "stream-json",
		"--verbose",
		"--dangerously-skip-permissions",
	)
	if req.Resume {
		args = append(args, "--resume", req.SessionID)
	} else {
		args = append(args, "--session-id", req.SessionID)
	}

	proc := exec.CommandContext(ctx, m.cmd[0], args...)
	proc.Dir = req.Dir
	proc.Env = os.Environ()
	proc.Env = append(proc.Env, fmt.Sprintf("FEATFORGE_PERSONA=%s", req.Persona))
	for k, v := range m.env {
		proc.Env = append(proc.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stdin, err := proc.StdinPipe()
	if err != nil {
		return Result{Err: fmt.Errorf("create stdin pipe: %w", err)}
	}
	stdout, err := proc.StdoutPipe()
	if err != nil {
		stdin.Close()
		return Result{Err: fmt.Errorf("create stdout pipe: %w", err)}
	}
	var stderr bytes.Buffer
	proc.Stderr = &stderr

	if err := proc.Start(); err != nil {
		stdin.Close()
		return Result{Err: fmt.Errorf("spawn agent: %w", err)}
	}

	m.logger.Info("session started",
		"persona", req.Persona,
		"session_id", req.SessionID,
		"resume", req.Resume,
		"pid", proc.Process.Pid)

	// One turn: deliver the whole prompt, then close stdin. There is no
	// interactive back-and-forth within a single call.
	if _, err := io.WriteString(stdin, req.Prompt); err != nil {
		m.logger.Warn("failed to write prompt", "error", err)
	}
	stdin.Close()

	parser := stream.NewParser(m.logger)
	buf := make([]byte, 32*1024)
	for {
		n, readErr := stdout.Read(buf)
		if n > 0 {
			m.handleEvents(req, parser.Feed(buf[:n]))
		}
		if readErr != nil {
			break
		}
	}
	m.handleEvents(req, parser.Flush())

	waitErr := proc.Wait()

	if ctx.Err() != nil {
		m.logger.Warn("session cancelled",
			"persona", req.Persona,
			"session_id", req.SessionID)
		return Result{Err: fmt.Errorf("session cancelled: %w", ctx.Err())}
	}

	if waitErr != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = waitErr.Error()
		}
		m.logger.Warn("session failed",
			"persona", req.Persona,
			"session_id", req.SessionID,
			"error", waitErr)
		return Result{Err: fmt.Errorf("agent exited: %s", detail)}
	}

	m.logger.Info("session completed",
		"persona", req.Persona,
		"session_id", req.SessionID)

	return Result{Succeeded: true, Output: parser.FinalText()}
}

func (m *Manager) handleEvents(req Request, events []stream.Event) {
	for _, ev := range events {
		if m.transcript != nil {
			if err := m.transcript.Write(req.SessionID, string(req.Persona), ev); err != nil {
				m.logger.Warn("failed to write transcript", "error", err)
			}
		}

		switch ev.Kind {
		case stream.KindAssistantText:
			if req.OnProgress != nil {
				req.OnProgress(Preview(ev.Text))
			}
		case stream.KindToolInvocation:
			m.logger.Debug("tool invocation",
				"session_id", req.SessionID,
				"tool", ev.ToolName)
		case stream.KindRunSummary:
			m.logger.Debug("run summary",
				"session_id", req.SessionID,
				"duration_ms", ev.DurationMS,
				"turns", ev.NumTurns,
				"is_error", ev.IsError)
		}
	}
}

// Preview collapses whitespace and truncates text for progress display.
// Truncation backs up to a rune boundary so the preview stays valid UTF-8.
func Preview(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if len(collapsed) <= progressPreviewLen {
		return collapsed
	}
	cut := progressPreviewLen - 3
	for cut > 0 && !utf8.RuneStart(collapsed[cut]) {
		cut--
	}
	return collapsed[:cut] + "..."
}
