package translog

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iambrandonn/featforge/internal/ndjson"
	"github.com/iambrandonn/featforge/internal/stream"
)

// Record is one transcript line: a stream event tagged with its session and
// the time it was observed.
type Record struct {
	Timestamp  time.Time       `json:"ts"`
	SessionID  string          `json:"session_id"`
	Persona    string          `json:"persona"`
	Kind       stream.Kind     `json:"kind"`
	Text       string          `json:"text,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	ToolInput  json.RawMessage `json:"tool_input,omitempty"`
	DurationMS float64         `json:"duration_ms,omitempty"`
	CostUSD    float64         `json:"cost_usd,omitempty"`
	IsError    bool            `json:"is_error,omitempty"`
}

// Log appends stream events to an NDJSON transcript file. It is the durable
// record of everything the agents said and did, independent of the status
// file's one-line history entries.
type Log struct {
	file   *os.File
	enc    *ndjson.Encoder
	logger *slog.Logger
	mu     sync.Mutex
}

// Open creates or appends to the transcript at path
func Open(path string, logger *slog.Logger) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}

	return &Log{
		file:   file,
		enc:    ndjson.NewEncoder(file, logger),
		logger: logger,
	}, nil
}

// ReadAll decodes every record from an existing transcript file
func ReadAll(path string, logger *slog.Logger) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()

	dec := ndjson.NewDecoder(file, logger)
	var records []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return records, nil
			}
			return nil, err
		}
		records = append(records, rec)
	}
}

// Write appends one event to the transcript
func (l *Log) Write(sessionID, persona string, ev stream.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.enc.Encode(Record{
		Timestamp:  time.Now().UTC(),
		SessionID:  sessionID,
		Persona:    persona,
		Kind:       ev.Kind,
		Text:       ev.Text,
		ToolName:   ev.ToolName,
		ToolInput:  ev.ToolInput,
		DurationMS: ev.DurationMS,
		CostUSD:    ev.CostUSD,
		IsError:    ev.IsError,
	})
}

// Close closes the transcript file
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
