package models

import (
	"encoding/json"

	"github.com/learnhub/backend/internal/identity"
)

// Unit represents a named group of lessons
type Unit struct {
	ID          identity.ID `json:"-"`
	Title       string      `json:"title" validate:"required" example:"Getting started"`
	Description string      `json:"description" example:"Tooling and a first program"`
	Lessons     []Lesson    `json:"lessons" validate:"dive"`
	Order       *int        `json:"order,omitempty" example:"0"`
}

type unitAlias Unit

// Get returns the value of an editable field. Units have a title and a description only.
func (u *Unit) Get(f Field) (string, bool) {
	switch f {
	case FieldTitle:
		return u.Title, true
	case FieldDescription:
		return u.Description, true
	}
	return "", false
}

// Set changes an editable field. It returns false for fields a unit does not have.
func (u *Unit) Set(f Field, value string) bool {
	switch f {
	case FieldTitle:
		u.Title = value
	case FieldDescription:
		u.Description = value
	default:
		return false
	}
	return true
}

// Clone returns a copy that shares no memory with u
func (u Unit) Clone() Unit {
	out := u
	out.Order = clonePtr(u.Order)
	if u.Lessons != nil {
		out.Lessons = make([]Lesson, len(u.Lessons))
		for i, l := range u.Lessons {
			l.Order = clonePtr(l.Order)
			out.Lessons[i] = l
		}
	}
	return out
}

// MarshalJSON writes the id as "id" or "tempId"; missing lessons are written as an empty array
func (u Unit) MarshalJSON() ([]byte, error) {
	alias := unitAlias(u)
	if alias.Lessons == nil {
		alias.Lessons = []Lesson{}
	}
	return json.Marshal(struct {
		identity.Fields
		unitAlias
	}{
		Fields:    identity.FieldsOf(u.ID),
		unitAlias: alias,
	})
}

// UnmarshalJSON reads the id from "id", falling back to "tempId"
func (u *Unit) UnmarshalJSON(data []byte) error {
	aux := struct {
		identity.Fields
		*unitAlias
	}{
		unitAlias: (*unitAlias)(u),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.ID = aux.Fields.Resolve()
	return nil
}

// CloneUnits deep-copies a list of units
func CloneUnits(units []Unit) []Unit {
	if units == nil {
		return nil
	}
	out := make([]Unit, len(units))
	for i, u := range units {
		out[i] = u.Clone()
	}
	return out
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// OrderOr returns *order, or fallback when order is nil
func OrderOr(order *int, fallback int) int {
	if order == nil {
		return fallback
	}
	return *order
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	return IntPtr(*p)
}
