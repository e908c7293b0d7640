package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// CourseStructureService is the interface that wraps methods for course structure business logic
type CourseStructureService interface {
	// Method CreateCourse creates an empty course.
	//
	// Returns the ID of the new course, or models.ErrInvalidRequest when the request is not valid.
	CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (int, error)
	// Method GetCourseStructure retrieves a course with units, their lessons and direct lessons.
	//
	// For unified courses UnifiedStructure is filled as well.
	// Returns models.ErrCourseNotFound together with "nil" value when the course does not exist.
	GetCourseStructure(ctx context.Context, courseID int) (*models.CourseStructure, error)
	// Method SaveStructure replaces the structure of a course.
	//
	// "req" carries either the unified sequence or units and direct lessons, depending on its structure type.
	// Returns the stored course and the persisted IDs assigned to items sent with temporary IDs.
	SaveStructure(ctx context.Context, courseID int, req *models.SaveStructureRequest) (*models.SaveStructureResponse, error)
	// Method UpdateUnitField updates one field of a unit.
	UpdateUnitField(ctx context.Context, courseID, unitID int, upd models.FieldUpdate) error
	// Method UpdateUnitLessonField updates one field of a lesson owned by a unit.
	UpdateUnitLessonField(ctx context.Context, courseID, unitID, lessonID int, upd models.FieldUpdate) error
	// Method UpdateDirectLessonField updates one field of a direct lesson.
	UpdateDirectLessonField(ctx context.Context, courseID, lessonID int, upd models.FieldUpdate) error
	// Method DeleteUnit deletes a unit together with its lessons.
	DeleteUnit(ctx context.Context, courseID, unitID int) error
	// Method DeleteUnitLesson deletes a lesson owned by a unit.
	DeleteUnitLesson(ctx context.Context, courseID, unitID, lessonID int) error
	// Method DeleteDirectLesson deletes a direct lesson.
	DeleteDirectLesson(ctx context.Context, courseID, lessonID int) error
}

// CourseHandler handles HTTP requests for courses and their structure
type CourseHandler struct {
	BaseHandler
	service CourseStructureService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(svc CourseStructureService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all course handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Route("/courses", func(r chi.Router) {
		r.Post("/", h.CreateCourse)
		r.Route("/{courseId}", func(r chi.Router) {
			r.Get("/", h.GetCourse)
			r.Put("/structure", h.SaveStructure)
			r.Patch("/units/{unitId}", h.UpdateUnit)
			r.Delete("/units/{unitId}", h.DeleteUnit)
			r.Patch("/units/{unitId}/lessons/{lessonId}", h.UpdateUnitLesson)
			r.Delete("/units/{unitId}/lessons/{lessonId}", h.DeleteUnitLesson)
			r.Patch("/lessons/{lessonId}", h.UpdateDirectLesson)
			r.Delete("/lessons/{lessonId}", h.DeleteDirectLesson)
		})
	})
}

// CreateCourse handles POST /courses
// @Summary Create a course
// @Description Create an empty course. The structure type defaults to unified.
// @Tags courses
// @Accept json
// @Produce json
// @Param request body models.CreateCourseRequest true "Course"
// @Success 201 {object} models.CreateCourseResponse "Course created"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.service.CreateCourse(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, models.CreateCourseResponse{ID: id})
}

// GetCourse handles GET /courses/{courseId}
// @Summary Get course structure
// @Description Get a course with its units, their lessons and the direct lessons. Unified courses also carry the unified sequence.
// @Tags courses
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} models.CourseStructure "Course structure"
// @Failure 400 {object} map[string]string "Invalid course ID"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseId} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := idParam(r, "courseId")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	course, err := h.service.GetCourseStructure(r.Context(), courseID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// SaveStructure handles PUT /courses/{courseId}/structure
// @Summary Save course structure
// @Description Replace the whole structure of a course. Items sent with "tempId" are created and their new ids are returned in idMappings. Stored items missing from the request are deleted.
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path int true "Course ID"
// @Param request body models.SaveStructureRequest true "Structure"
// @Success 200 {object} models.SaveStructureResponse "Saved structure"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Course, unit or lesson not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseId}/structure [put]
func (h *CourseHandler) SaveStructure(w http.ResponseWriter, r *http.Request) {
	courseID, err := idParam(r, "courseId")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.SaveStructureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("failed to decode structure", zap.Error(err))
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.SaveStructure(r.Context(), courseID, &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// UpdateUnit handles PATCH /courses/{courseId}/units/{unitId}
// @Summary Update a unit field
// @Description Update exactly one field of a unit: title or description
// @Tags units
// @Accept json
// @Produce json
// @Param courseId path int true "Course ID"
// @Param unitId path int true "Unit ID"
// @Param request body map[string]string true "Single field, e.g. {\"title\": \"Getting started\"}"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Unit not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseId}/units/{unitId} [patch]
func (h *CourseHandler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.parseIDs(w, r, "courseId", "unitId")
	if !ok {
		return
	}
	upd, ok := h.decodeFieldUpdate(w, r)
	if !ok {
		return
	}

	if err := h.service.UpdateUnitField(r.Context(), ids[0], ids[1], upd); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// UpdateUnitLesson handles PATCH /courses/{courseId}/units/{unitId}/lessons/{lessonId}
// @Summary Update a unit lesson field
// @Description Update exactly one field of a lesson owned by a unit: title, description, lecture or duration
// @Tags lessons
// @Accept json
// @Produce json
// @Param courseId path int true "Course ID"
// @Param unitId path int true "Unit ID"
// @Param lessonId path int true "Lesson ID"
// @Param request body map[string]string true "Single field"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseId}/units/{unitId}/lessons/{lessonId} [patch]
func (h *CourseHandler) UpdateUnitLesson(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.parseIDs(w, r, "courseId", "unitId", "lessonId")
	if !ok {
		return
	}
	upd, ok := h.decodeFieldUpdate(w, r)
	if !ok {
		return
	}

	if err := h.service.UpdateUnitLessonField(r.Context(), ids[0], ids[1], ids[2], upd); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// UpdateDirectLesson handles PATCH /courses/{courseId}/lessons/{lessonId}
// @Summary Update a direct lesson field
// @Description Update exactly one field of a lesson placed directly in the course
// @Tags lessons
// @Accept json
// @Produce json
// @Param courseId path int true "Course ID"
// @Param lessonId path int true "Lesson ID"
// @Param request body map[string]string true "Single field"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseId}/lessons/{lessonId} [patch]
func (h *CourseHandler) UpdateDirectLesson(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.parseIDs(w, r, "courseId", "lessonId")
	if !ok {
		return
	}
	upd, ok := h.decodeFieldUpdate(w, r)
	if !ok {
		return
	}

	if err := h.service.UpdateDirectLessonField(r.Context(), ids[0], ids[1], upd); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// DeleteUnit handles DELETE /courses/{courseId}/units/{unitId}
// @Summary Delete a unit
// @Description Delete a unit together with its lessons
// @Tags units
// @Produce json
// @Param courseId path int true "Course ID"
// @Param unitId path int true "Unit ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Unit not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseId}/units/{unitId} [delete]
func (h *CourseHandler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.parseIDs(w, r, "courseId", "unitId")
	if !ok {
		return
	}

	if err := h.service.DeleteUnit(r.Context(), ids[0], ids[1]); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// DeleteUnitLesson handles DELETE /courses/{courseId}/units/{unitId}/lessons/{lessonId}
// @Summary Delete a unit lesson
// @Tags lessons
// @Produce json
// @Param courseId path int true "Course ID"
// @Param unitId path int true "Unit ID"
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseId}/units/{unitId}/lessons/{lessonId} [delete]
func (h *CourseHandler) DeleteUnitLesson(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.parseIDs(w, r, "courseId", "unitId", "lessonId")
	if !ok {
		return
	}

	if err := h.service.DeleteUnitLesson(r.Context(), ids[0], ids[1], ids[2]); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// DeleteDirectLesson handles DELETE /courses/{courseId}/lessons/{lessonId}
// @Summary Delete a direct lesson
// @Tags lessons
// @Produce json
// @Param courseId path int true "Course ID"
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Lesson not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{courseId}/lessons/{lessonId} [delete]
func (h *CourseHandler) DeleteDirectLesson(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.parseIDs(w, r, "courseId", "lessonId")
	if !ok {
		return
	}

	if err := h.service.DeleteDirectLesson(r.Context(), ids[0], ids[1]); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// parseIDs reads the named integer URL parameters, answering 400 on the first invalid one
func (h *CourseHandler) parseIDs(w http.ResponseWriter, r *http.Request, names ...string) ([]int, bool) {
	ids := make([]int, len(names))
	for i, name := range names {
		id, err := idParam(r, name)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

// decodeFieldUpdate reads a {field: value} body
func (h *CourseHandler) decodeFieldUpdate(w http.ResponseWriter, r *http.Request) (models.FieldUpdate, bool) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return models.FieldUpdate{}, false
	}
	upd, err := models.ParseFieldUpdate(body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return models.FieldUpdate{}, false
	}
	return upd, true
}
