// Package converter transforms a course structure between its separate shape
// (units plus direct lessons) and the unified sequence used for mixed reordering.
package converter

import (
	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/ordering"
)

// ToUnified wraps every unit and direct lesson in a UnifiedItem and sorts them by order.
//
// A unit without an order uses its index. A direct lesson without an order uses its index plus the
// number of units, so index-only data puts direct lessons after all units. Ties keep units first,
// in their array order, followed by direct lessons in theirs. Nested unit lessons are never flattened.
// The inputs are not modified.
func ToUnified(units []models.Unit, directLessons []models.Lesson) []models.UnifiedItem {
	items := make([]models.UnifiedItem, 0, len(units)+len(directLessons))
	for i, u := range units {
		items = append(items, models.UnitItem(u.Clone(), models.OrderOr(u.Order, i)))
	}
	for i, l := range directLessons {
		items = append(items, models.LessonItem(l, models.OrderOr(l.Order, i+len(units))))
	}

	ordering.SortStable(items, func(it models.UnifiedItem) int { return it.Order })
	return items
}

// ToSeparate splits a unified sequence into units and direct lessons.
//
// The sequence is walked in slice order; each unit and each direct lesson takes its walk index as
// order, so the relative order of units against direct lessons survives in the order values.
// Units keep their nested lessons unchanged.
func ToSeparate(items []models.UnifiedItem) ([]models.Unit, []models.Lesson) {
	units := make([]models.Unit, 0, len(items))
	lessons := make([]models.Lesson, 0, len(items))

	for i, it := range items {
		switch it.Type {
		case models.ItemTypeUnit:
			if it.Unit == nil {
				continue
			}
			u := it.Unit.Clone()
			u.Order = models.IntPtr(i)
			units = append(units, u)
		case models.ItemTypeLesson:
			if it.Lesson == nil {
				continue
			}
			l := *it.Lesson
			l.Order = models.IntPtr(i)
			lessons = append(lessons, l)
		}
	}

	return units, lessons
}

// SetItemOrder is the ordering setter for unified items
func SetItemOrder(it *models.UnifiedItem, order int) {
	it.Order = order
	switch it.Type {
	case models.ItemTypeUnit:
		if it.Unit != nil {
			u := it.Unit.Clone()
			u.Order = models.IntPtr(order)
			it.Unit = &u
		}
	case models.ItemTypeLesson:
		if it.Lesson != nil {
			l := *it.Lesson
			l.Order = models.IntPtr(order)
			it.Lesson = &l
		}
	}
}

// ApplyMapping returns a copy of items where every temporary id found in mapping, on the item
// payloads and on lessons nested in units, is replaced by its persisted id.
func ApplyMapping(items []models.UnifiedItem, mapping identity.Mapping) []models.UnifiedItem {
	out := make([]models.UnifiedItem, len(items))
	for i, it := range items {
		out[i] = it
		switch it.Type {
		case models.ItemTypeUnit:
			if it.Unit == nil {
				continue
			}
			u := it.Unit.Clone()
			u.ID = mapping.Resolve(u.ID)
			for j := range u.Lessons {
				u.Lessons[j].ID = mapping.Resolve(u.Lessons[j].ID)
			}
			out[i].Unit = &u
		case models.ItemTypeLesson:
			if it.Lesson == nil {
				continue
			}
			l := *it.Lesson
			l.ID = mapping.Resolve(l.ID)
			out[i].Lesson = &l
		}
	}
	return out
}
