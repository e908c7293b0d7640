package models

import "fmt"

// Field names an editable field of a unit or lesson
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldLecture     Field = "lecture"
	FieldDuration    Field = "duration"
)

// FieldUpdate is a single field-level change
type FieldUpdate struct {
	Field Field
	Value string
}

// ParseFieldUpdate extracts the single {field: value} pair of an update request body
func ParseFieldUpdate(body map[string]string) (FieldUpdate, error) {
	if len(body) != 1 {
		return FieldUpdate{}, fmt.Errorf("exactly one field must be provided, got %d", len(body))
	}
	for k, v := range body {
		return FieldUpdate{Field: Field(k), Value: v}, nil
	}
	return FieldUpdate{}, nil
}

// ValidUnitField reports whether f can be edited on a unit
func ValidUnitField(f Field) bool {
	return f == FieldTitle || f == FieldDescription
}

// ValidLessonField reports whether f can be edited on a lesson
func ValidLessonField(f Field) bool {
	switch f {
	case FieldTitle, FieldDescription, FieldLecture, FieldDuration:
		return true
	}
	return false
}
