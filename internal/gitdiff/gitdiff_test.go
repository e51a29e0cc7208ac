package gitdiff

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func initRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.txt"), []byte("base\n"), 0644))
	run("add", ".")
	run("commit", "-m", "base")
	return dir
}

func TestDiffIncludesModifiedFiles(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.txt"), []byte("changed\n"), 0644))

	diff, err := New(testLogger()).Diff(context.Background(), dir)
	require.NoError(t, err)
	require.Contains(t, diff, "base.txt")
	require.Contains(t, diff, "+changed")
	require.Contains(t, diff, "-base")
}

func TestDiffIncludesUntrackedFiles(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("fresh\n"), 0644))

	diff, err := New(testLogger()).Diff(context.Background(), dir)
	require.NoError(t, err)
	require.Contains(t, diff, "new.txt")
	require.Contains(t, diff, "+fresh")
}

func TestDiffCleanTreeIsEmpty(t *testing.T) {
	dir := initRepo(t)

	diff, err := New(testLogger()).Diff(context.Background(), dir)
	require.NoError(t, err)
	require.Empty(t, diff)
}

func TestDiffOutsideRepositoryFails(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	_, err := New(testLogger()).Diff(context.Background(), t.TempDir())
	require.Error(t, err)
}
