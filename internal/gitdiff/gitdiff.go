package gitdiff

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Provider produces unified diffs of uncommitted changes in a working tree
type Provider struct {
	logger *slog.Logger
}

// New creates a git-backed diff provider
func New(logger *slog.Logger) *Provider {
	return &Provider{logger: logger}
}

// Diff returns the unified diff of all uncommitted changes in dir,
// including untracked files (registered with intent-to-add so they show up
// in the diff).
func (p *Provider) Diff(ctx context.Context, dir string) (string, error) {
	if out, err := p.git(ctx, dir, "add", "-N", "."); err != nil {
		return "", fmt.Errorf("register untracked files: %s", out)
	}

	out, err := p.git(ctx, dir, "diff", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git diff: %s", out)
	}
	return out, nil
}

func (p *Provider) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	if err != nil {
		p.logger.Debug("git command failed", "args", args, "error", err)
	}
	return buf.String(), err
}
