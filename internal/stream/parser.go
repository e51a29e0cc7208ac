package stream

import (
	"bytes"
	"encoding/json"
	"log/slog"
)

// Parser decodes an agent subprocess's streamed stdout into typed events.
//
// Input arrives as raw byte chunks that are not aligned to line boundaries.
// The parser keeps an incomplete trailing fragment between Feed calls and
// only decodes complete lines. Lines that are not valid stream records are
// diagnostic noise from the agent, not errors: they are logged and skipped.
type Parser struct {
	logger  *slog.Logger
	buf     []byte
	lineNum int

	finalText string
}

// NewParser creates a parser writing diagnostics to logger
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Feed consumes one chunk of raw output and returns the events decoded from
// every complete line it contains, in input order.
func (p *Parser) Feed(chunk []byte) []Event {
	p.buf = append(p.buf, chunk...)

	var events []Event
	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSpace(p.buf[:idx])
		p.buf = p.buf[idx+1:]
		events = append(events, p.parseLine(line)...)
	}
	return events
}

// Flush decodes whatever remains in the carry-over buffer. Call once after
// the subprocess closes its output; the final line may lack a newline.
func (p *Parser) Flush() []Event {
	line := bytes.TrimSpace(p.buf)
	p.buf = nil
	return p.parseLine(line)
}

// FinalText returns the last assistant text payload seen, which stands as
// the session's final textual output even if later lines were unparsable.
func (p *Parser) FinalText() string {
	return p.finalText
}

func (p *Parser) parseLine(line []byte) []Event {
	if len(line) == 0 {
		return nil
	}
	p.lineNum++

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		preview := line
		if len(preview) > 120 {
			preview = preview[:120]
		}
		p.logger.Debug("skipping unparsable stream line",
			"line", p.lineNum,
			"data", string(preview))
		return nil
	}

	switch env.Type {
	case "assistant":
		return p.assistantEvents(env)

	case "user":
		// Tool results come back wrapped in user-role messages.
		return []Event{{Kind: KindToolResult}}

	case "system":
		return []Event{{
			Kind:      KindSystemNotice,
			SessionID: env.SessionID,
			Model:     env.Model,
			Text:      env.Subtype,
		}}

	case "result":
		if env.Result != "" {
			p.finalText = env.Result
		}
		return []Event{{
			Kind:       KindRunSummary,
			Text:       env.Result,
			DurationMS: env.DurationMS,
			CostUSD:    env.TotalCostUSD,
			NumTurns:   env.NumTurns,
			IsError:    env.IsError,
		}}

	default:
		p.logger.Debug("skipping unknown stream record",
			"line", p.lineNum,
			"type", env.Type)
		return nil
	}
}

func (p *Parser) assistantEvents(env envelope) []Event {
	if env.Message == nil {
		return nil
	}

	var events []Event
	for _, block := range env.Message.Content {
		switch block.Type {
		case "text":
			if block.Text == "" {
				continue
			}
			p.finalText = block.Text
			events = append(events, Event{
				Kind: KindAssistantText,
				Text: block.Text,
			})
		case "tool_use":
			events = append(events, Event{
				Kind:      KindToolInvocation,
				ToolName:  block.Name,
				ToolInput: block.Input,
			})
		}
	}
	return events
}
