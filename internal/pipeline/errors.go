package pipeline

import "fmt"

// Kind classifies what went wrong with one step of a run. Fatal input
// aborts the invocation; every other kind degrades the run summary while
// the remaining outputs proceed.
type Kind string

const (
	// KindFatalInput means the base feed was absent or malformed.
	KindFatalInput Kind = "fatal-input"
	// KindSourceFailure means one secondary source contributed nothing.
	KindSourceFailure Kind = "partial-source-failure"
	// KindDataQuality means an item field fell back to its default.
	KindDataQuality Kind = "data-quality"
	// KindCollaborator means an external process or fetch failed.
	KindCollaborator Kind = "collaborator-failure"
)

// Error attaches a Kind to an underlying failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func fatal(err error) *Error        { return &Error{Kind: KindFatalInput, Err: err} }
func collaborator(err error) *Error { return &Error{Kind: KindCollaborator, Err: err} }
