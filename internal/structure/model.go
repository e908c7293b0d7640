// Package structure holds the in-memory structure of one course being edited.
package structure

import (
	"slices"

	"github.com/learnhub/backend/internal/converter"
	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/ordering"
)

// IDSource creates identifiers for new units and lessons
type IDSource interface {
	New() identity.ID
}

// Model is the canonical separate representation of a course structure: ordered units, each with
// ordered lessons, plus ordered direct lessons. Its methods are the only write path.
//
// In unified mode units and direct lessons share one order space (their positions in the unified
// sequence); in legacy mode each list is numbered on its own.
//
// Model is not safe for concurrent use.
type Model struct {
	structureType models.StructureType
	units         []models.Unit
	directLessons []models.Lesson
	ids           IDSource
}

// New creates a model from units and direct lessons. Lists are sorted by order (array index when
// absent, ties keep array position); nested lessons are sorted the same way.
func New(structureType models.StructureType, units []models.Unit, directLessons []models.Lesson, ids IDSource) *Model {
	if !structureType.IsValid() {
		structureType = models.StructureTypeLegacy
	}
	m := &Model{
		structureType: structureType,
		ids:           ids,
	}

	if structureType == models.StructureTypeUnified {
		m.units, m.directLessons = converter.ToSeparate(converter.ToUnified(units, directLessons))
	} else {
		m.units = sortedUnits(units)
		m.directLessons = sortedLessons(directLessons)
		ordering.Renumber(m.units, setUnitOrder)
		ordering.Renumber(m.directLessons, setLessonOrder)
	}
	for i := range m.units {
		m.units[i].Lessons = sortedLessons(m.units[i].Lessons)
		ordering.Renumber(m.units[i].Lessons, setLessonOrder)
	}
	return m
}

// FromCourse creates a model from a fetched course. The unified structure is authoritative when
// the course is in unified mode and sends one.
func FromCourse(c *models.CourseStructure, ids IDSource) *Model {
	if c.StructureType == models.StructureTypeUnified && len(c.UnifiedStructure) > 0 {
		items := slices.Clone(c.UnifiedStructure)
		ordering.SortStable(items, func(it models.UnifiedItem) int { return it.Order })
		units, lessons := converter.ToSeparate(items)
		return New(models.StructureTypeUnified, units, lessons, ids)
	}
	return New(c.StructureType, c.Units, c.DirectLessons, ids)
}

// StructureType returns the current structure type
func (m *Model) StructureType() models.StructureType {
	return m.structureType
}

// SetStructureType switches between unified and legacy mode.
//
// Switching to unified keeps the current unified view, switching to legacy renumbers units and
// direct lessons separately while keeping their relative order inside each list.
func (m *Model) SetStructureType(t models.StructureType) bool {
	if !t.IsValid() {
		return false
	}
	if t == m.structureType {
		return true
	}
	if t == models.StructureTypeUnified {
		m.units, m.directLessons = converter.ToSeparate(m.unified())
	} else {
		ordering.Renumber(m.units, setUnitOrder)
		ordering.Renumber(m.directLessons, setLessonOrder)
	}
	m.structureType = t
	return true
}

// Units returns a deep copy of the units
func (m *Model) Units() []models.Unit {
	return models.CloneUnits(m.units)
}

// DirectLessons returns a copy of the direct lessons
func (m *Model) DirectLessons() []models.Lesson {
	return slices.Clone(m.directLessons)
}

// Unified returns the unified view of the structure
func (m *Model) Unified() []models.UnifiedItem {
	return m.unified()
}

// Unit returns a copy of the unit with the given id
func (m *Model) Unit(unitID identity.ID) (models.Unit, bool) {
	i := m.unitIndex(unitID)
	if i < 0 {
		return models.Unit{}, false
	}
	return m.units[i].Clone(), true
}

// DirectLesson returns a copy of the direct lesson with the given id
func (m *Model) DirectLesson(lessonID identity.ID) (models.Lesson, bool) {
	i := lessonIndex(m.directLessons, lessonID)
	if i < 0 {
		return models.Lesson{}, false
	}
	return m.directLessons[i], true
}

// LessonInUnit returns a copy of a lesson owned by a unit
func (m *Model) LessonInUnit(unitID, lessonID identity.ID) (models.Lesson, bool) {
	ui := m.unitIndex(unitID)
	if ui < 0 {
		return models.Lesson{}, false
	}
	li := lessonIndex(m.units[ui].Lessons, lessonID)
	if li < 0 {
		return models.Lesson{}, false
	}
	return m.units[ui].Lessons[li], true
}

// Lookup finds the unit or lesson whose id value is raw and returns its id with the kind it
// is stored under. Units are searched first, then their lessons, then direct lessons.
func (m *Model) Lookup(raw string) (identity.ID, bool) {
	for _, u := range m.units {
		if u.ID.Value() == raw {
			return u.ID, true
		}
	}
	for _, u := range m.units {
		for _, l := range u.Lessons {
			if l.ID.Value() == raw {
				return l.ID, true
			}
		}
	}
	for _, l := range m.directLessons {
		if l.ID.Value() == raw {
			return l.ID, true
		}
	}
	return identity.ID{}, false
}

// Payload builds the save request for the current structure
func (m *Model) Payload() *models.SaveStructureRequest {
	if m.structureType == models.StructureTypeUnified {
		return &models.SaveStructureRequest{
			StructureType:    models.StructureTypeUnified,
			UnifiedStructure: m.unified(),
		}
	}
	return &models.SaveStructureRequest{
		StructureType: models.StructureTypeLegacy,
		Units:         m.Units(),
		DirectLessons: m.DirectLessons(),
	}
}

// ApplyMapping replaces temporary ids by their persisted ids in units, nested lessons and direct
// lessons in one pass. Everything else is left untouched. It returns the number of replaced ids.
func (m *Model) ApplyMapping(mapping identity.Mapping) int {
	if len(mapping) == 0 {
		return 0
	}
	replaced := 0
	resolve := func(id *identity.ID) {
		if next := mapping.Resolve(*id); next != *id {
			*id = next
			replaced++
		}
	}
	for i := range m.units {
		resolve(&m.units[i].ID)
		for j := range m.units[i].Lessons {
			resolve(&m.units[i].Lessons[j].ID)
		}
	}
	for i := range m.directLessons {
		resolve(&m.directLessons[i].ID)
	}
	return replaced
}

func (m *Model) unified() []models.UnifiedItem {
	return converter.ToUnified(m.units, m.directLessons)
}

func (m *Model) setUnified(items []models.UnifiedItem) {
	m.units, m.directLessons = converter.ToSeparate(items)
}

func (m *Model) unitIndex(unitID identity.ID) int {
	if unitID.IsZero() {
		return -1
	}
	return ordering.IndexOf(m.units, func(u models.Unit) bool { return u.ID == unitID })
}

func lessonIndex(lessons []models.Lesson, lessonID identity.ID) int {
	if lessonID.IsZero() {
		return -1
	}
	return ordering.IndexOf(lessons, func(l models.Lesson) bool { return l.ID == lessonID })
}

func setUnitOrder(u *models.Unit, order int) {
	u.Order = models.IntPtr(order)
}

func setLessonOrder(l *models.Lesson, order int) {
	l.Order = models.IntPtr(order)
}

func sortedUnits(units []models.Unit) []models.Unit {
	out := models.CloneUnits(units)
	if out == nil {
		out = []models.Unit{}
	}
	keys := indexKeys(len(out), func(i int) *int { return out[i].Order })
	sortByKeys(out, keys)
	return out
}

func sortedLessons(lessons []models.Lesson) []models.Lesson {
	out := slices.Clone(lessons)
	if out == nil {
		out = []models.Lesson{}
	}
	keys := indexKeys(len(out), func(i int) *int { return out[i].Order })
	sortByKeys(out, keys)
	return out
}

// indexKeys returns the sort key of each element: its order, or its index when absent
func indexKeys(n int, order func(i int) *int) []int {
	keys := make([]int, n)
	for i := 0; i < n; i++ {
		keys[i] = models.OrderOr(order(i), i)
	}
	return keys
}

func sortByKeys[T any](items []T, keys []int) {
	type keyed struct {
		item T
		key  int
	}
	tmp := make([]keyed, len(items))
	for i := range items {
		tmp[i] = keyed{items[i], keys[i]}
	}
	ordering.SortStable(tmp, func(k keyed) int { return k.key })
	for i := range tmp {
		items[i] = tmp[i].item
	}
}
