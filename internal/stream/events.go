package stream

import "encoding/json"

// Kind classifies a decoded stream event
type Kind string

const (
	// KindAssistantText carries a chunk of assistant prose. The last one
	// seen before process exit is the session's final textual output.
	KindAssistantText Kind = "assistant_text"
	// KindToolInvocation reports a tool call, used only for progress display
	KindToolInvocation Kind = "tool_invocation"
	// KindToolResult reports the outcome of a tool call
	KindToolResult Kind = "tool_result"
	// KindSystemNotice carries agent-side system messages (init and similar)
	KindSystemNotice Kind = "system_notice"
	// KindRunSummary carries completion metadata emitted once at the end
	KindRunSummary Kind = "run_summary"
)

// Event is one decoded record from an agent's streamed output
type Event struct {
	Kind Kind

	// Text holds assistant prose (KindAssistantText) or the final result
	// text (KindRunSummary).
	Text string

	// Tool call details (KindToolInvocation / KindToolResult)
	ToolName  string
	ToolInput json.RawMessage

	// Session metadata (KindSystemNotice init records)
	SessionID string
	Model     string

	// Completion metadata (KindRunSummary)
	DurationMS float64
	CostUSD    float64
	NumTurns   int
	IsError    bool
}

// envelope is the wire shape of one stream-json line from the agent CLI.
// Unknown fields are ignored; the agent adds new ones routinely.
type envelope struct {
	Type         string          `json:"type"`
	Subtype      string          `json:"subtype,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`
	Model        string          `json:"model,omitempty"`
	Message      *messagePayload `json:"message,omitempty"`
	Result       string          `json:"result,omitempty"`
	IsError      bool            `json:"is_error,omitempty"`
	DurationMS   float64         `json:"duration_ms,omitempty"`
	TotalCostUSD float64         `json:"total_cost_usd,omitempty"`
	NumTurns     int             `json:"num_turns,omitempty"`
}

type messagePayload struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}
