package testharness

import (
	"bytes"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runFake(t *testing.T, f *FakeCLI, prompt string, args ...string) string {
	t.Helper()

	cmd := exec.Command(f.Path(), args...)
	cmd.Stdin = strings.NewReader(prompt)
	var out bytes.Buffer
	cmd.Stdout = &out
	require.NoError(t, cmd.Run())
	return out.String()
}

func TestFakeCLIReplaysResponsesInOrder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake agent script requires a POSIX shell")
	}

	f := NewFakeCLI(t)
	f.AddResponse(AssistantText("first call"))
	f.AddResponse(AssistantText("second call"))

	out1 := runFake(t, f, "prompt one", "--session-id", "a")
	out2 := runFake(t, f, "prompt two", "--resume", "a")
	out3 := runFake(t, f, "prompt three")

	require.Contains(t, out1, "first call")
	require.Contains(t, out2, "second call")
	require.Contains(t, out3, `"result"`, "calls beyond the queue fall back to the default response")

	require.Equal(t, 3, f.Calls())
	require.Equal(t, []string{"prompt one", "prompt two", "prompt three"}, f.Prompts())

	args := f.Args()
	require.Contains(t, args[0], "--session-id a")
	require.Contains(t, args[1], "--resume a")
}

func TestStreamLineBuilders(t *testing.T) {
	require.Contains(t, AssistantText("hi"), `"type":"assistant"`)
	require.Contains(t, AssistantText("hi"), `"text":"hi"`)
	require.Contains(t, ToolUse("Edit", map[string]any{"f": 1}), `"tool_use"`)
	require.Contains(t, ResultLine("done"), `"result":"done"`)
}
