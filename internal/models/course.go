package models

import "github.com/learnhub/backend/internal/identity"

// StructureType selects which representation of a course structure is authoritative
type StructureType string

const (
	StructureTypeUnified StructureType = "unified"
	StructureTypeLegacy  StructureType = "legacy"
)

// IsValid reports whether the structure type is known
func (t StructureType) IsValid() bool {
	return t == StructureTypeUnified || t == StructureTypeLegacy
}

// Course represents a course row
type Course struct {
	ID            int           `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	StructureType StructureType `json:"structureType"`
}

// CourseStructure represents a course together with its teachable content
type CourseStructure struct {
	ID               int           `json:"id,omitempty"`
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	StructureType    StructureType `json:"structureType"`
	Units            []Unit        `json:"units"`
	DirectLessons    []Lesson      `json:"directLessons"`
	UnifiedStructure []UnifiedItem `json:"unifiedStructure,omitempty"`
}

// CreateCourseRequest represents a request to create a course
type CreateCourseRequest struct {
	Title         string        `json:"title" validate:"required" example:"Intro to programming"`
	Description   string        `json:"description" validate:"required" example:"Variables, loops and functions"`
	StructureType StructureType `json:"structureType,omitempty" validate:"omitempty,oneof=unified legacy" example:"unified"`
}

// CreateCourseResponse is returned after a course is created
type CreateCourseResponse struct {
	ID int `json:"id"`
}

// SaveStructureRequest carries the whole structure of a course.
//
// Either UnifiedStructure (with StructureType "unified") or Units and DirectLessons are sent.
type SaveStructureRequest struct {
	StructureType    StructureType `json:"structureType" validate:"required,oneof=unified legacy"`
	Units            []Unit        `json:"units,omitempty" validate:"dive"`
	DirectLessons    []Lesson      `json:"directLessons,omitempty" validate:"dive"`
	UnifiedStructure []UnifiedItem `json:"unifiedStructure,omitempty" validate:"dive"`
}

// SaveStructureResponse is returned after a structure is saved.
// IDMappings lists the persisted id assigned to every item that was sent with a temporary id.
type SaveStructureResponse struct {
	Success    bool             `json:"success"`
	Course     *CourseStructure `json:"course"`
	IDMappings []identity.Pair  `json:"idMappings"`
}

// SuccessResponse is returned by field updates and deletes
type SuccessResponse struct {
	Success bool `json:"success"`
}
