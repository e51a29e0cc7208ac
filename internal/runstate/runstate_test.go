package runstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingIsEmptyState(t *testing.T) {
	st, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, st.CompletedSteps)
	require.False(t, st.Completed(0))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	st := &State{}
	st.MarkComplete(0)
	st.MarkComplete(2)
	st.MarkComplete(0)
	require.NoError(t, Save(dir, st))

	got, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, got.CompletedSteps, "marking is idempotent")
	require.True(t, got.Completed(0))
	require.True(t, got.Completed(2))
	require.False(t, got.Completed(1))
}

func TestClear(t *testing.T) {
	dir := t.TempDir()

	st := &State{}
	st.MarkComplete(0)
	require.NoError(t, Save(dir, st))
	require.NoError(t, Clear(dir))

	_, err := os.Stat(filepath.Join(dir, FileName))
	require.True(t, os.IsNotExist(err))

	require.NoError(t, Clear(dir), "clearing twice is fine")
}

func TestLoadCorruptFileIsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{broken"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
}
