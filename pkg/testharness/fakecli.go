// Package testharness provides a scripted stand-in for the agent CLI so
// session and workflow tests can run real subprocesses without a model.
package testharness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// FakeCLI is an executable that mimics the agent CLI's stream-json
// contract: it consumes the prompt on stdin, records how it was invoked,
// and replays a canned response for each call in order.
type FakeCLI struct {
	t   *testing.T
	dir string
	n   int
}

// NewFakeCLI builds the fake executable in a test temp directory
func NewFakeCLI(t *testing.T) *FakeCLI {
	t.Helper()

	dir := t.TempDir()
	for _, sub := range []string{"responses", "prompts", "args"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatalf("testharness: mkdir %s: %v", sub, err)
		}
	}

	script := fmt.Sprintf(`#!/bin/sh
dir=%q
n=$(cat "$dir/calls" 2>/dev/null || echo 0)
n=$((n+1))
echo "$n" > "$dir/calls"
echo "$@" > "$dir/args/$n.txt"
cat > "$dir/prompts/$n.txt"
if [ -f "$dir/responses/$n.ndjson" ]; then
  cat "$dir/responses/$n.ndjson"
else
  cat "$dir/responses/default.ndjson"
fi
`, dir)

	path := filepath.Join(dir, "fake-agent")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("testharness: write script: %v", err)
	}

	f := &FakeCLI{t: t, dir: dir}
	f.writeResponse("default.ndjson", AssistantText("ok"), ResultLine("ok"))
	return f
}

// Path returns the fake executable's path, suitable as the agent command
func (f *FakeCLI) Path() string {
	return filepath.Join(f.dir, "fake-agent")
}

// AddResponse queues the stream-json lines emitted by the next unqueued
// invocation. Calls beyond the queue replay a trivial default response.
func (f *FakeCLI) AddResponse(lines ...string) {
	f.n++
	f.writeResponse(fmt.Sprintf("%d.ndjson", f.n), lines...)
}

func (f *FakeCLI) writeResponse(name string, lines ...string) {
	f.t.Helper()
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(f.dir, "responses", name), []byte(data), 0644); err != nil {
		f.t.Fatalf("testharness: write response: %v", err)
	}
}

// Calls returns how many times the fake executable ran
func (f *FakeCLI) Calls() int {
	data, err := os.ReadFile(filepath.Join(f.dir, "calls"))
	if err != nil {
		return 0
	}
	n := 0
	fmt.Sscanf(string(data), "%d", &n)
	return n
}

// Prompts returns the prompt each invocation received, in call order
func (f *FakeCLI) Prompts() []string {
	return f.readRecords("prompts")
}

// Args returns the command-line arguments of each invocation, in call order
func (f *FakeCLI) Args() []string {
	return f.readRecords("args")
}

func (f *FakeCLI) readRecords(sub string) []string {
	f.t.Helper()

	entries, err := os.ReadDir(filepath.Join(f.dir, sub))
	if err != nil {
		f.t.Fatalf("testharness: read %s: %v", sub, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		return callNumber(names[i]) < callNumber(names[j])
	})

	var out []string
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(f.dir, sub, name))
		if err != nil {
			f.t.Fatalf("testharness: read %s/%s: %v", sub, name, err)
		}
		out = append(out, strings.TrimRight(string(data), "\n"))
	}
	return out
}

func callNumber(name string) int {
	n := 0
	fmt.Sscanf(name, "%d", &n)
	return n
}

// AssistantText builds a stream-json line carrying assistant prose
func AssistantText(text string) string {
	return mustLine(map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
		},
	})
}

// ToolUse builds a stream-json line reporting a tool invocation
func ToolUse(name string, input map[string]any) string {
	return mustLine(map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"content": []map[string]any{
				{"type": "tool_use", "name": name, "input": input},
			},
		},
	})
}

// ResultLine builds the final stream-json result record
func ResultLine(text string) string {
	return mustLine(map[string]any{
		"type":           "result",
		"subtype":        "success",
		"result":         text,
		"duration_ms":    12.5,
		"total_cost_usd": 0.001,
		"num_turns":      1,
	})
}

func mustLine(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
