package persistence

import (
	"context"
	"slices"

	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/structure"
)

type pathKind uint8

const (
	pathUnit pathKind = iota + 1
	pathUnitLesson
	pathDirectLesson
)

// FieldPath locates one editable field in a course structure
type FieldPath struct {
	kind     pathKind
	UnitID   identity.ID
	LessonID identity.ID
	Field    models.Field
}

// UnitFieldPath locates a field of a unit
func UnitFieldPath(unitID identity.ID, field models.Field) FieldPath {
	return FieldPath{kind: pathUnit, UnitID: unitID, Field: field}
}

// UnitLessonFieldPath locates a field of a lesson owned by a unit
func UnitLessonFieldPath(unitID, lessonID identity.ID, field models.Field) FieldPath {
	return FieldPath{kind: pathUnitLesson, UnitID: unitID, LessonID: lessonID, Field: field}
}

// DirectLessonFieldPath locates a field of a direct lesson
func DirectLessonFieldPath(lessonID identity.ID, field models.Field) FieldPath {
	return FieldPath{kind: pathDirectLesson, LessonID: lessonID, Field: field}
}

// persisted reports whether every id of the path exists on the backend
func (p FieldPath) persisted() bool {
	switch p.kind {
	case pathUnit:
		return p.UnitID.IsPersisted()
	case pathUnitLesson:
		return p.UnitID.IsPersisted() && p.LessonID.IsPersisted()
	case pathDirectLesson:
		return p.LessonID.IsPersisted()
	}
	return false
}

// FieldTransaction is one optimistic field update: a mutation of the model, its inverse, and the
// remote write confirming it.
//
// Mutate sets the field to value and returns what it held before; calling it again with that
// previous value is the inverse. Commit performs the remote write.
type FieldTransaction struct {
	Path   FieldPath
	Value  string
	Mutate func(m *structure.Model, value string) (previous string, ok bool)
	Commit func(ctx context.Context) error
}

// write is one remote write that has not settled yet
type write struct {
	snapshot string
}

// ledger tracks in-flight writes per field so that a late callback never clobbers a later edit
type ledger struct {
	pending map[FieldPath][]*write
}

func newLedger() *ledger {
	return &ledger{pending: make(map[FieldPath][]*write)}
}

// begin registers a write whose field held snapshot before the mutation
func (l *ledger) begin(path FieldPath, snapshot string) *write {
	w := &write{snapshot: snapshot}
	l.pending[path] = append(l.pending[path], w)
	return w
}

// succeed settles w. Earlier writes of the same field no longer matter for rollback:
// the backend holds a value at least as recent as theirs.
func (l *ledger) succeed(path FieldPath, w *write) {
	queue := l.pending[path]
	i := slices.Index(queue, w)
	if i < 0 {
		return
	}
	l.store(path, queue[i+1:])
}

// fail settles w and tells whether the field must be reverted, and to which value.
//
// When a later write of the same field is still in flight the field keeps its newer local value,
// and that later write inherits w's snapshot as its own rollback target.
func (l *ledger) fail(path FieldPath, w *write) (revert bool, snapshot string) {
	queue := l.pending[path]
	i := slices.Index(queue, w)
	if i < 0 {
		return false, ""
	}
	if i+1 < len(queue) {
		queue[i+1].snapshot = w.snapshot
		l.store(path, slices.Delete(queue, i, i+1))
		return false, ""
	}
	l.store(path, queue[:i])
	return true, w.snapshot
}

func (l *ledger) store(path FieldPath, queue []*write) {
	if len(queue) == 0 {
		delete(l.pending, path)
		return
	}
	l.pending[path] = queue
}

// inFlight returns the number of unsettled writes for path
func (l *ledger) inFlight(path FieldPath) int {
	return len(l.pending[path])
}
