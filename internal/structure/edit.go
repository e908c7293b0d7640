package structure

import (
	"github.com/learnhub/backend/internal/converter"
	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/ordering"
)

// AddUnit creates an empty unit right after the item with id after, or at the end when after is
// zero or unknown. In unified mode after may name a unit or a direct lesson of the unified
// sequence. It returns the id of the new unit.
func (m *Model) AddUnit(after identity.ID) identity.ID {
	u := models.Unit{ID: m.ids.New(), Lessons: []models.Lesson{}}

	if m.structureType == models.StructureTypeUnified {
		m.insertUnified(models.UnitItem(u, 0), after)
		return u.ID
	}

	m.units, _ = ordering.InsertAfter(m.units, u, func(x models.Unit) bool {
		return !after.IsZero() && x.ID == after
	}, setUnitOrder)
	return u.ID
}

// AddLessonToUnit creates an empty lesson inside a unit, right after the lesson with id after or
// at the end. It is a no-op when the unit does not exist.
func (m *Model) AddLessonToUnit(unitID, after identity.ID) (identity.ID, bool) {
	ui := m.unitIndex(unitID)
	if ui < 0 {
		return identity.ID{}, false
	}

	l := models.Lesson{ID: m.ids.New()}
	m.units[ui].Lessons, _ = ordering.InsertAfter(m.units[ui].Lessons, l, matchLesson(after), setLessonOrder)
	return l.ID, true
}

// AddDirectLesson creates an empty direct lesson right after the item with id after, or at the end
// when after is zero or unknown. In unified mode after may name any item of the unified sequence.
func (m *Model) AddDirectLesson(after identity.ID) identity.ID {
	l := models.Lesson{ID: m.ids.New()}

	if m.structureType == models.StructureTypeUnified {
		m.insertUnified(models.LessonItem(l, 0), after)
		return l.ID
	}

	m.directLessons, _ = ordering.InsertAfter(m.directLessons, l, matchLesson(after), setLessonOrder)
	return l.ID
}

// UpdateUnit replaces one field of a unit and returns the previous value.
// ok is false when the unit or the field does not exist.
func (m *Model) UpdateUnit(unitID identity.ID, field models.Field, value string) (previous string, ok bool) {
	ui := m.unitIndex(unitID)
	if ui < 0 {
		return "", false
	}
	u := &m.units[ui]
	if previous, ok = u.Get(field); !ok {
		return "", false
	}
	u.Set(field, value)
	return previous, true
}

// UpdateLessonInUnit replaces one field of a lesson owned by a unit and returns the previous value
func (m *Model) UpdateLessonInUnit(unitID, lessonID identity.ID, field models.Field, value string) (previous string, ok bool) {
	ui := m.unitIndex(unitID)
	if ui < 0 {
		return "", false
	}
	li := lessonIndex(m.units[ui].Lessons, lessonID)
	if li < 0 {
		return "", false
	}
	return updateLesson(&m.units[ui].Lessons[li], field, value)
}

// UpdateDirectLesson replaces one field of a direct lesson and returns the previous value
func (m *Model) UpdateDirectLesson(lessonID identity.ID, field models.Field, value string) (previous string, ok bool) {
	li := lessonIndex(m.directLessons, lessonID)
	if li < 0 {
		return "", false
	}
	return updateLesson(&m.directLessons[li], field, value)
}

// DeleteUnit removes a unit together with all of its lessons
func (m *Model) DeleteUnit(unitID identity.ID) bool {
	ui := m.unitIndex(unitID)
	if ui < 0 {
		return false
	}
	m.units = append(m.units[:ui:ui], m.units[ui+1:]...)
	m.renumberTopLevel()
	return true
}

// DeleteLessonFromUnit removes a lesson from a unit
func (m *Model) DeleteLessonFromUnit(unitID, lessonID identity.ID) bool {
	ui := m.unitIndex(unitID)
	if ui < 0 {
		return false
	}
	lessons := m.units[ui].Lessons
	li := lessonIndex(lessons, lessonID)
	if li < 0 {
		return false
	}
	m.units[ui].Lessons = append(lessons[:li:li], lessons[li+1:]...)
	ordering.Renumber(m.units[ui].Lessons, setLessonOrder)
	return true
}

// DeleteDirectLesson removes a direct lesson
func (m *Model) DeleteDirectLesson(lessonID identity.ID) bool {
	li := lessonIndex(m.directLessons, lessonID)
	if li < 0 {
		return false
	}
	m.directLessons = append(m.directLessons[:li:li], m.directLessons[li+1:]...)
	m.renumberTopLevel()
	return true
}

// Reorder moves the element at index from to index to inside the list named by scope, then
// renumbers that list. It returns false when nothing changed: no destination, an unknown unit,
// an index out of range, or a unified reorder while the model is in legacy mode.
//
// In unified mode a units-only or direct-lessons-only reorder permutes those items among the
// positions they already hold in the unified sequence.
func (m *Model) Reorder(scope Scope, from, to int) bool {
	if to == ordering.NoDestination {
		return false
	}
	unified := m.structureType == models.StructureTypeUnified

	switch scope.Kind {
	case ScopeUnified:
		if !unified {
			return false
		}
		items, err := ordering.Move(m.unified(), from, to, converter.SetItemOrder)
		if err != nil {
			return false
		}
		m.setUnified(items)
	case ScopeUnits:
		if unified {
			return m.reorderWithinUnified(models.ItemTypeUnit, from, to)
		}
		units, err := ordering.Move(m.units, from, to, setUnitOrder)
		if err != nil {
			return false
		}
		m.units = units
	case ScopeDirectLessons:
		if unified {
			return m.reorderWithinUnified(models.ItemTypeLesson, from, to)
		}
		lessons, err := ordering.Move(m.directLessons, from, to, setLessonOrder)
		if err != nil {
			return false
		}
		m.directLessons = lessons
	case ScopeUnitLessons:
		ui := m.unitIndex(scope.UnitID)
		if ui < 0 {
			return false
		}
		lessons, err := ordering.Move(m.units[ui].Lessons, from, to, setLessonOrder)
		if err != nil {
			return false
		}
		m.units[ui].Lessons = lessons
	default:
		return false
	}
	return true
}

func (m *Model) reorderWithinUnified(t models.ItemType, from, to int) bool {
	items, err := ordering.MoveWithinSlots(m.unified(), func(it models.UnifiedItem) bool {
		return it.Type == t
	}, from, to, converter.SetItemOrder)
	if err != nil {
		return false
	}
	m.setUnified(items)
	return true
}

func (m *Model) insertUnified(item models.UnifiedItem, after identity.ID) {
	items, _ := ordering.InsertAfter(m.unified(), item, func(x models.UnifiedItem) bool {
		return !after.IsZero() && x.ID() == after
	}, converter.SetItemOrder)
	m.setUnified(items)
}

func (m *Model) renumberTopLevel() {
	if m.structureType == models.StructureTypeUnified {
		m.setUnified(m.unified())
		return
	}
	ordering.Renumber(m.units, setUnitOrder)
	ordering.Renumber(m.directLessons, setLessonOrder)
}

func updateLesson(l *models.Lesson, field models.Field, value string) (string, bool) {
	previous, ok := l.Get(field)
	if !ok {
		return "", false
	}
	l.Set(field, value)
	return previous, true
}

func matchLesson(after identity.ID) func(models.Lesson) bool {
	return func(l models.Lesson) bool {
		return !after.IsZero() && l.ID == after
	}
}
