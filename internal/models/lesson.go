package models

import (
	"encoding/json"

	"github.com/learnhub/backend/internal/identity"
)

// Lesson represents a lesson, either owned by a unit or placed directly in a course
type Lesson struct {
	ID          identity.ID `json:"-"`
	Title       string      `json:"title" validate:"required" example:"Variables and types"`
	Description string      `json:"description" example:"Declaring and assigning variables"`
	Lecture     string      `json:"lecture,omitempty" example:"<p>Lecture text</p>"`
	Duration    string      `json:"duration,omitempty" example:"15"`
	Order       *int        `json:"order,omitempty" example:"0"`
}

type lessonAlias Lesson

// Get returns the value of an editable field
func (l *Lesson) Get(f Field) (string, bool) {
	switch f {
	case FieldTitle:
		return l.Title, true
	case FieldDescription:
		return l.Description, true
	case FieldLecture:
		return l.Lecture, true
	case FieldDuration:
		return l.Duration, true
	}
	return "", false
}

// Set changes an editable field. It returns false for unknown fields.
func (l *Lesson) Set(f Field, value string) bool {
	switch f {
	case FieldTitle:
		l.Title = value
	case FieldDescription:
		l.Description = value
	case FieldLecture:
		l.Lecture = value
	case FieldDuration:
		l.Duration = value
	default:
		return false
	}
	return true
}

// MarshalJSON writes the id as "id" when persisted and "tempId" when temporary
func (l Lesson) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		identity.Fields
		lessonAlias
	}{
		Fields:      identity.FieldsOf(l.ID),
		lessonAlias: lessonAlias(l),
	})
}

// UnmarshalJSON reads the id from "id", falling back to "tempId"
func (l *Lesson) UnmarshalJSON(data []byte) error {
	aux := struct {
		identity.Fields
		*lessonAlias
	}{
		lessonAlias: (*lessonAlias)(l),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.ID = aux.Fields.Resolve()
	return nil
}
