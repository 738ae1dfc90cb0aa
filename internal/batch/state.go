package batch

import (
	"errors"

	"github.com/jackzampolin/stamper/internal/compose"
	"github.com/jackzampolin/stamper/internal/manifest"
	"github.com/jackzampolin/stamper/internal/pdfdoc"
)

// State is a step of the per-record lifecycle:
//
//	pending → located → read → annotated → composited → assembled → written → done
//
// with skipped (source absent) and failed (any step errors) as the other
// terminal states.
type State string

const (
	StatePending    State = "pending"
	StateLocated    State = "located"
	StateRead       State = "read"
	StateAnnotated  State = "annotated"
	StateComposited State = "composited"
	StateAssembled  State = "assembled"
	StateWritten    State = "written"
	StateDone       State = "done"
	StateSkipped    State = "skipped"
	StateFailed     State = "failed"
)

// Outcome is the terminal result of a record.
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Kind classifies why a record did not complete.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindParse            Kind = "parse"
	KindEmptyDocument    Kind = "empty_document"
	KindGeometryMismatch Kind = "geometry_mismatch"
	KindWrite            Kind = "write"
	KindInvalidRecord    Kind = "invalid_record"
	KindCollision        Kind = "collision"
	KindInternal         Kind = "internal"
)

// terminal maps the state process stopped in and its error onto the
// record's terminal state.
func terminal(state State, err error) State {
	switch {
	case err == nil:
		return StateDone
	case state == StateSkipped:
		return StateSkipped
	default:
		return StateFailed
	}
}

// classify maps a record error onto its kind.
func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrCollision):
		return KindCollision
	case errors.Is(err, pdfdoc.ErrNotFound):
		return KindNotFound
	case errors.Is(err, pdfdoc.ErrEmptyDocument):
		return KindEmptyDocument
	case errors.Is(err, pdfdoc.ErrParse):
		return KindParse
	case errors.Is(err, compose.ErrGeometryMismatch):
		return KindGeometryMismatch
	case errors.Is(err, ErrWrite):
		return KindWrite
	case errors.Is(err, manifest.ErrInvalidRecord):
		return KindInvalidRecord
	default:
		return KindInternal
	}
}
