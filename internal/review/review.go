package review

import (
	"context"
	"errors"
)

// Severity is the classified action level extracted from a review
type Severity string

const (
	SeverityNone  Severity = "NONE"
	SeverityMinor Severity = "MINOR"
	SeverityMajor Severity = "MAJOR"
)

// Merge combines two severities: MAJOR wins over MINOR wins over NONE
func Merge(a, b Severity) Severity {
	if a == SeverityMajor || b == SeverityMajor {
		return SeverityMajor
	}
	if a == SeverityMinor || b == SeverityMinor {
		return SeverityMinor
	}
	return SeverityNone
}

// ErrProviderUnavailable indicates a provider cannot run at all (missing
// credential or executable). Callers abort the lifecycle action before any
// generation call is made.
var ErrProviderUnavailable = errors.New("review provider unavailable")

// Type selects the review schema and instructions
type Type string

const (
	TypeSpec Type = "spec"
	TypePlan Type = "plan"
	TypeCode Type = "code"
)

// Request bundles an artifact with the context a reviewer needs
type Request struct {
	Type      Type
	FeatureID string

	// Artifact is the content under review: the spec or plan text, or a
	// unified diff for code reviews.
	Artifact string

	// Context for code reviews
	Spec          string
	Plan          string
	IntentSummary string
	Phase         int

	Iteration int

	// RecordName is the file name under which the rendered review record
	// is persisted before the provider returns.
	RecordName string
}

// Outcome is a classified review result
type Outcome struct {
	Classification Severity
	Summary        string
	// Report is the rendered (or raw) review text fed back to the builder
	Report      string
	Succeeded   bool
	ErrorDetail string
}

// Effective returns the severity callers must act on. A failed review is
// blocking, never a silent pass.
func (o Outcome) Effective() Severity {
	if !o.Succeeded {
		return SeverityMajor
	}
	return o.Classification
}

// Provider is the abstract capability of critiquing an artifact
type Provider interface {
	// Name is the source tag used in history entries and review records
	Name() string
	Review(ctx context.Context, req Request) Outcome
}

// RecordSink persists rendered review records
type RecordSink interface {
	WriteReview(featureID, name string, data []byte) error
}
