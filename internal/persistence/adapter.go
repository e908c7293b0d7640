// Package persistence keeps an editing session's course structure in sync with the backend.
//
// Field edits are applied locally at once and written to the backend in the background; a failed
// write reverts only the field it changed. Structural edits (add, delete, reorder) stay local until
// Save submits the whole structure in one request.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/structure"
	"go.uber.org/zap"
)

// ErrSaveRejected is returned when the backend answers a save without success
var ErrSaveRejected = errors.New("save rejected by backend")

// Snapshot is a read-only copy of the session state
type Snapshot struct {
	StructureType models.StructureType
	Units         []models.Unit
	DirectLessons []models.Lesson
	Unified       []models.UnifiedItem
}

// Adapter is one editing session of one course structure
type Adapter struct {
	mu       sync.Mutex
	model    *structure.Model
	ledger   *ledger
	inflight sync.WaitGroup

	courseID  int
	backend   Backend
	notifier  Notifier
	confirmer Confirmer
	ids       structure.IDSource
	logger    *zap.Logger
}

// NewAdapter creates an editing session.
//
// model may be nil, in which case the session starts empty until Load is called.
func NewAdapter(courseID int, model *structure.Model, backend Backend, notifier Notifier, confirmer Confirmer, logger *zap.Logger) *Adapter {
	ids := identity.NewGenerator()
	if model == nil {
		model = structure.New(models.StructureTypeUnified, nil, nil, ids)
	}
	return &Adapter{
		model:     model,
		ledger:    newLedger(),
		courseID:  courseID,
		backend:   backend,
		notifier:  notifier,
		confirmer: confirmer,
		ids:       ids,
		logger:    logger,
	}
}

// Load fetches the course and replaces the session state with it
func (a *Adapter) Load(ctx context.Context) (*models.CourseStructure, error) {
	course, err := a.backend.FetchCourse(ctx, a.courseID)
	if err != nil {
		a.logger.Error("failed to fetch course", zap.Int("course_id", a.courseID), zap.Error(err))
		a.notify(LevelError, "Could not load the course")
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}

	model := structure.FromCourse(course, a.ids)

	a.mu.Lock()
	a.model = model
	a.mu.Unlock()

	a.logger.Debug("course loaded",
		zap.Int("course_id", a.courseID),
		zap.String("structure_type", string(course.StructureType)),
	)
	return course, nil
}

// Snapshot returns a copy of the current state
func (a *Adapter) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		StructureType: a.model.StructureType(),
		Units:         a.model.Units(),
		DirectLessons: a.model.DirectLessons(),
		Unified:       a.model.Unified(),
	}
}

// Lookup resolves an id value typed by the user to the id stored in the session
func (a *Adapter) Lookup(raw string) (identity.ID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.Lookup(raw)
}

// AddUnit adds an empty unit after the item with id after (or at the end) and returns its id
func (a *Adapter) AddUnit(after identity.ID) identity.ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.AddUnit(after)
}

// AddLessonToUnit adds an empty lesson to a unit. It is a no-op when the unit does not exist.
func (a *Adapter) AddLessonToUnit(unitID, after identity.ID) (identity.ID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.AddLessonToUnit(unitID, after)
}

// AddDirectLesson adds an empty direct lesson after the item with id after (or at the end)
func (a *Adapter) AddDirectLesson(after identity.ID) identity.ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.AddDirectLesson(after)
}

// Reorder moves an element of the list named by scope
func (a *Adapter) Reorder(scope structure.Scope, from, to int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.Reorder(scope, from, to)
}

// SetStructureType switches the session between unified and legacy mode
func (a *Adapter) SetStructureType(t models.StructureType) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.SetStructureType(t)
}

// DeleteUnit removes a unit and its lessons after the user confirms.
// It returns false when the user declines or the unit does not exist.
func (a *Adapter) DeleteUnit(ctx context.Context, unitID identity.ID) bool {
	if !a.confirm(ctx, "Delete this unit and all of its lessons?") {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.DeleteUnit(unitID)
}

// DeleteLessonFromUnit removes a lesson from a unit after the user confirms
func (a *Adapter) DeleteLessonFromUnit(ctx context.Context, unitID, lessonID identity.ID) bool {
	if !a.confirm(ctx, "Delete this lesson?") {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.DeleteLessonFromUnit(unitID, lessonID)
}

// DeleteDirectLesson removes a direct lesson after the user confirms
func (a *Adapter) DeleteDirectLesson(ctx context.Context, lessonID identity.ID) bool {
	if !a.confirm(ctx, "Delete this lesson?") {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.DeleteDirectLesson(lessonID)
}

// UpdateUnit changes one field of a unit locally and writes it to the backend in the background
func (a *Adapter) UpdateUnit(ctx context.Context, unitID identity.ID, field models.Field, value string) *Pending {
	upd := models.FieldUpdate{Field: field, Value: value}
	return a.Apply(ctx, FieldTransaction{
		Path:  UnitFieldPath(unitID, field),
		Value: value,
		Mutate: func(m *structure.Model, v string) (string, bool) {
			return m.UpdateUnit(unitID, field, v)
		},
		Commit: func(ctx context.Context) error {
			return a.backend.UpdateUnitField(ctx, a.courseID, unitID, upd)
		},
	})
}

// UpdateLessonInUnit changes one field of a lesson owned by a unit
func (a *Adapter) UpdateLessonInUnit(ctx context.Context, unitID, lessonID identity.ID, field models.Field, value string) *Pending {
	upd := models.FieldUpdate{Field: field, Value: value}
	return a.Apply(ctx, FieldTransaction{
		Path:  UnitLessonFieldPath(unitID, lessonID, field),
		Value: value,
		Mutate: func(m *structure.Model, v string) (string, bool) {
			return m.UpdateLessonInUnit(unitID, lessonID, field, v)
		},
		Commit: func(ctx context.Context) error {
			return a.backend.UpdateUnitLessonField(ctx, a.courseID, unitID, lessonID, upd)
		},
	})
}

// UpdateDirectLesson changes one field of a direct lesson
func (a *Adapter) UpdateDirectLesson(ctx context.Context, lessonID identity.ID, field models.Field, value string) *Pending {
	upd := models.FieldUpdate{Field: field, Value: value}
	return a.Apply(ctx, FieldTransaction{
		Path:  DirectLessonFieldPath(lessonID, field),
		Value: value,
		Mutate: func(m *structure.Model, v string) (string, bool) {
			return m.UpdateDirectLesson(lessonID, field, v)
		},
		Commit: func(ctx context.Context) error {
			return a.backend.UpdateDirectLessonField(ctx, a.courseID, lessonID, upd)
		},
	})
}

// Apply runs an optimistic field transaction.
//
// The mutation is applied immediately. Lookup misses are silent no-ops, and items that have not
// been saved yet are only changed locally. Otherwise Commit runs in the background; if it fails
// the field is put back to the value it held right before this transaction, unless a later edit
// of the same field is still in flight.
func (a *Adapter) Apply(ctx context.Context, tx FieldTransaction) *Pending {
	a.mu.Lock()
	previous, ok := tx.Mutate(a.model, tx.Value)
	if !ok {
		a.mu.Unlock()
		a.logger.Debug("field update ignored, item not found",
			zap.Stringer("unit_id", tx.Path.UnitID),
			zap.Stringer("lesson_id", tx.Path.LessonID),
			zap.String("field", string(tx.Path.Field)),
		)
		return settled(nil)
	}
	if !tx.Path.persisted() {
		a.mu.Unlock()
		return settled(nil)
	}
	w := a.ledger.begin(tx.Path, previous)
	a.mu.Unlock()

	p := newPending()
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()

		err := tx.Commit(context.WithoutCancel(ctx))

		a.mu.Lock()
		if err == nil {
			a.ledger.succeed(tx.Path, w)
		} else if revert, snapshot := a.ledger.fail(tx.Path, w); revert {
			tx.Mutate(a.model, snapshot)
		}
		a.mu.Unlock()

		if err != nil {
			a.logger.Warn("field update failed, local change rolled back",
				zap.Int("course_id", a.courseID),
				zap.Stringer("unit_id", tx.Path.UnitID),
				zap.Stringer("lesson_id", tx.Path.LessonID),
				zap.String("field", string(tx.Path.Field)),
				zap.Error(err),
			)
			a.notify(LevelError, fmt.Sprintf("Could not save %s, the previous value was restored", tx.Path.Field))
		}
		p.finish(err)
	}()
	return p
}

// Save validates the structure and submits it as one payload. On success the persisted ids
// returned by the backend replace the temporary ones. Edits made while the request is in flight
// are kept.
func (a *Adapter) Save(ctx context.Context) error {
	a.mu.Lock()
	if err := a.model.Validate(); err != nil {
		a.mu.Unlock()
		a.notify(LevelWarning, "Please fill in the required fields before saving")
		return err
	}
	req := a.model.Payload()
	a.mu.Unlock()

	resp, err := a.backend.SaveStructure(ctx, a.courseID, req)
	if err == nil && (resp == nil || !resp.Success) {
		err = ErrSaveRejected
	}
	if err != nil {
		a.logger.Error("failed to save course structure", zap.Int("course_id", a.courseID), zap.Error(err))
		a.notify(LevelError, "Could not save the course structure")
		return fmt.Errorf("failed to save course structure: %w", err)
	}

	mapping := identity.NewMapping(resp.IDMappings)

	a.mu.Lock()
	replaced := a.model.ApplyMapping(mapping)
	a.mu.Unlock()

	a.logger.Info("course structure saved",
		zap.Int("course_id", a.courseID),
		zap.String("structure_type", string(req.StructureType)),
		zap.Int("ids_reconciled", replaced),
	)
	a.notify(LevelSuccess, "Course structure saved")
	return nil
}

// Wait blocks until every background write has settled
func (a *Adapter) Wait() {
	a.inflight.Wait()
}

func (a *Adapter) confirm(ctx context.Context, prompt string) bool {
	if a.confirmer == nil {
		return false
	}
	return a.confirmer.Confirm(ctx, prompt)
}

func (a *Adapter) notify(level Level, message string) {
	if a.notifier == nil {
		return
	}
	a.notifier.Notify(Notification{Level: level, Message: message})
}
