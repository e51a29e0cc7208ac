package feature

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// metadataSeparator divides the status file's metadata block from its
// history body.
const metadataSeparator = "---"

// metadata is the leading key-value block of a status file
type metadata struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Status    string `yaml:"status"`
	Owner     string `yaml:"owner,omitempty"`
	CreatedAt string `yaml:"created_at"`
}

// EncodeStatusFile renders a feature as its on-disk status document:
// a YAML metadata block, a separator line, then history entries
// newest-first, one per line.
func EncodeStatusFile(f *Feature) ([]byte, error) {
	meta := metadata{
		ID:        f.ID,
		Name:      f.Name,
		Status:    string(f.Status),
		Owner:     f.Owner,
		CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
	}

	head, err := yaml.Marshal(&meta)
	if err != nil {
		return nil, fmt.Errorf("marshal status metadata: %w", err)
	}

	var b strings.Builder
	b.Write(head)
	b.WriteString(metadataSeparator + "\n")

	for i := len(f.History) - 1; i >= 0; i-- {
		e := f.History[i]
		fmt.Fprintf(&b, "%s  [%s]  %s\n",
			e.Timestamp.UTC().Format(time.RFC3339), e.Source, e.Message)
	}

	return []byte(b.String()), nil
}

// DecodeStatusFile parses a status document back into a feature.
// History lines that do not match the expected shape are skipped rather
// than failing the whole read.
func DecodeStatusFile(data []byte) (*Feature, error) {
	text := string(data)
	sep := "\n" + metadataSeparator + "\n"
	idx := strings.Index(text, sep)
	if idx < 0 {
		return nil, fmt.Errorf("status file missing metadata separator")
	}

	var meta metadata
	if err := yaml.Unmarshal([]byte(text[:idx]), &meta); err != nil {
		return nil, fmt.Errorf("parse status metadata: %w", err)
	}

	status := Status(meta.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("status file has unknown status %q", meta.Status)
	}

	f := &Feature{
		ID:     meta.ID,
		Name:   meta.Name,
		Status: status,
		Owner:  meta.Owner,
	}
	if meta.CreatedAt != "" {
		created, err := time.Parse(time.RFC3339, meta.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		f.CreatedAt = created
	}

	body := text[idx+len(sep):]
	for _, line := range strings.Split(body, "\n") {
		entry, ok := parseHistoryLine(line)
		if !ok {
			continue
		}
		// Body is newest-first; prepend to restore chronological order.
		f.History = append([]Entry{entry}, f.History...)
	}

	return f, nil
}

func parseHistoryLine(line string) (Entry, bool) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return Entry{}, false
	}

	open := strings.Index(line, "  [")
	if open < 0 {
		return Entry{}, false
	}
	close := strings.Index(line[open:], "]  ")
	if close < 0 {
		return Entry{}, false
	}
	close += open

	ts, err := time.Parse(time.RFC3339, line[:open])
	if err != nil {
		return Entry{}, false
	}

	return Entry{
		Timestamp: ts,
		Source:    line[open+3 : close],
		Message:   line[close+3:],
	}, true
}
