package transcript

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iambrandonn/featforge/internal/stream"
	"github.com/iambrandonn/featforge/internal/translog"
)

// Formatter formats transcript records for console output
type Formatter struct{}

// NewFormatter creates a new transcript formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatRecord formats one transcript record for console display
func (f *Formatter) FormatRecord(rec translog.Record) string {
	prefix := fmt.Sprintf("%s [%s]",
		rec.Timestamp.Format("15:04:05"), rec.Persona)

	switch rec.Kind {
	case stream.KindAssistantText:
		return fmt.Sprintf("%s %s", prefix, collapse(rec.Text))

	case stream.KindToolInvocation:
		detail := rec.ToolName
		if len(rec.ToolInput) > 0 {
			detail += fmt.Sprintf(" %s", truncate(string(rec.ToolInput), 120))
		}
		return fmt.Sprintf("%s tool: %s", prefix, detail)

	case stream.KindToolResult:
		if rec.IsError {
			return fmt.Sprintf("%s tool result: error", prefix)
		}
		return fmt.Sprintf("%s tool result: ok", prefix)

	case stream.KindRunSummary:
		var parts []string
		if rec.DurationMS > 0 {
			parts = append(parts, fmt.Sprintf("duration=%.1fs", rec.DurationMS/1000))
		}
		if rec.CostUSD > 0 {
			parts = append(parts, fmt.Sprintf("cost=$%.4f", rec.CostUSD))
		}
		if rec.IsError {
			parts = append(parts, "error")
		}
		return fmt.Sprintf("%s session finished %s", prefix, strings.Join(parts, " "))

	case stream.KindSystemNotice:
		return fmt.Sprintf("%s system: %s", prefix, collapse(rec.Text))

	default:
		return fmt.Sprintf("%s %s", prefix, rec.Kind)
	}
}

// collapse flattens whitespace so one record stays on one console line
func collapse(s string) string {
	return truncate(strings.Join(strings.Fields(s), " "), 160)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
