package feature

import (
	"errors"
	"fmt"
	"time"
)

// Status represents the lifecycle state of a feature
type Status string

const (
	StatusRequested     Status = "requested"
	StatusDraft         Status = "draft"
	StatusSpecReviewed  Status = "spec-reviewed"
	StatusPlanCreated   Status = "plan-created"
	StatusPlanReviewed  Status = "plan-reviewed"
	StatusReadyForBuild Status = "ready-for-build"
	StatusBuilding      Status = "building"
	StatusCodeReview    Status = "code-review"
	StatusTesting       Status = "testing"
	StatusImplemented   Status = "implemented"
)

// AllStatuses lists every valid status in lifecycle order
var AllStatuses = []Status{
	StatusRequested,
	StatusDraft,
	StatusSpecReviewed,
	StatusPlanCreated,
	StatusPlanReviewed,
	StatusReadyForBuild,
	StatusBuilding,
	StatusCodeReview,
	StatusTesting,
	StatusImplemented,
}

// transitions is the fixed adjacency table. Every status change, whether
// driven by a workflow loop or a manual approval, must match an edge here.
var transitions = map[Status][]Status{
	StatusRequested:     {StatusDraft},
	StatusDraft:         {StatusSpecReviewed},
	StatusSpecReviewed:  {StatusPlanCreated},
	StatusPlanCreated:   {StatusPlanReviewed},
	StatusPlanReviewed:  {StatusReadyForBuild},
	StatusReadyForBuild: {StatusBuilding},
	StatusBuilding:      {StatusCodeReview},
	StatusCodeReview:    {StatusTesting, StatusBuilding},
	StatusTesting:       {StatusImplemented, StatusBuilding},
	StatusImplemented:   {},
}

// ErrInvalidTransition indicates an attempted status move outside the
// adjacency table. The feature is left unchanged.
var ErrInvalidTransition = errors.New("invalid status transition")

// IsValid returns true if s is a member of the enumerated status set
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the edge from -> to exists in the table
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Entry is one line of a feature's history log
type Entry struct {
	Timestamp time.Time
	Source    string
	Message   string
}

// Well-known history entry sources. Provider implementations tag entries
// with their own source strings.
const (
	SourceSystem = "system"
	SourceUser   = "user"
)

// Feature is a unit of work moving through the lifecycle
type Feature struct {
	ID        string
	Name      string
	Status    Status
	Owner     string
	CreatedAt time.Time

	// History is stored in chronological order; rendering reverses it.
	History []Entry
}

// New creates a feature in the requested state with an initial history entry
func New(id, name, owner string, now time.Time) *Feature {
	f := &Feature{
		ID:        id,
		Name:      name,
		Status:    StatusRequested,
		Owner:     owner,
		CreatedAt: now.UTC(),
	}
	f.Log(SourceUser, fmt.Sprintf("Feature %q requested", name), now)
	return f
}

// Log appends a history entry without changing status
func (f *Feature) Log(source, message string, now time.Time) {
	f.History = append(f.History, Entry{
		Timestamp: now.UTC(),
		Source:    source,
		Message:   message,
	})
}

// ApplyTransition moves the feature to a new status and records exactly one
// history entry for the move. Fails with ErrInvalidTransition if the edge is
// not in the adjacency table; the feature is untouched on failure.
func (f *Feature) ApplyTransition(to Status, actor, message string, now time.Time) error {
	if !CanTransition(f.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.Status, to)
	}

	f.Status = to
	f.Log(actor, message, now)
	return nil
}
