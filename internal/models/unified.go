package models

import (
	"encoding/json"
	"fmt"

	"github.com/learnhub/backend/internal/identity"
)

// ItemType discriminates the payload of a UnifiedItem
type ItemType string

const (
	ItemTypeUnit   ItemType = "unit"
	ItemTypeLesson ItemType = "lesson"
)

// UnifiedItem wraps a unit or a direct lesson so both can share one ordered sequence.
// Exactly one of Unit and Lesson is set, according to Type.
type UnifiedItem struct {
	Type   ItemType
	Unit   *Unit
	Lesson *Lesson
	Order  int
}

// UnitItem wraps a unit
func UnitItem(u Unit, order int) UnifiedItem {
	return UnifiedItem{Type: ItemTypeUnit, Unit: &u, Order: order}
}

// LessonItem wraps a direct lesson
func LessonItem(l Lesson, order int) UnifiedItem {
	return UnifiedItem{Type: ItemTypeLesson, Lesson: &l, Order: order}
}

// ID returns the id of the wrapped payload
func (it UnifiedItem) ID() identity.ID {
	switch {
	case it.Type == ItemTypeUnit && it.Unit != nil:
		return it.Unit.ID
	case it.Type == ItemTypeLesson && it.Lesson != nil:
		return it.Lesson.ID
	}
	return identity.ID{}
}

type unifiedItemJSON struct {
	Type ItemType `json:"type"`
	identity.Fields
	Data  json.RawMessage `json:"data"`
	Order int             `json:"order"`
}

// MarshalJSON writes {type, id|tempId, data, order}
func (it UnifiedItem) MarshalJSON() ([]byte, error) {
	var payload any
	switch it.Type {
	case ItemTypeUnit:
		payload = it.Unit
	case ItemTypeLesson:
		payload = it.Lesson
	default:
		return nil, fmt.Errorf("unknown unified item type: %q", it.Type)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(unifiedItemJSON{
		Type:   it.Type,
		Fields: identity.FieldsOf(it.ID()),
		Data:   data,
		Order:  it.Order,
	})
}

// UnmarshalJSON reads {type, id|tempId, data, order}.
// When the payload carries no id of its own, the item-level id is used.
func (it *UnifiedItem) UnmarshalJSON(data []byte) error {
	var raw unifiedItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		raw.Data = []byte("{}")
	}

	itemID := raw.Fields.Resolve()
	*it = UnifiedItem{Type: raw.Type, Order: raw.Order}
	switch raw.Type {
	case ItemTypeUnit:
		var u Unit
		if err := json.Unmarshal(raw.Data, &u); err != nil {
			return fmt.Errorf("failed to decode unit item: %w", err)
		}
		if u.ID.IsZero() {
			u.ID = itemID
		}
		it.Unit = &u
	case ItemTypeLesson:
		var l Lesson
		if err := json.Unmarshal(raw.Data, &l); err != nil {
			return fmt.Errorf("failed to decode lesson item: %w", err)
		}
		if l.ID.IsZero() {
			l.ID = itemID
		}
		it.Lesson = &l
	default:
		return fmt.Errorf("unknown unified item type: %q", raw.Type)
	}
	return nil
}
