package models

import "errors"

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrUnitNotFound   = errors.New("unit not found")
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrInvalidField is returned for a field name the item does not have
	ErrInvalidField = errors.New("invalid field")
	// ErrInvalidRequest is returned when a request body fails validation
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidID is returned for an id that cannot name a stored item
	ErrInvalidID = errors.New("invalid id")
)
