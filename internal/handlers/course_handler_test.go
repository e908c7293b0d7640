package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockCourseStructureService is a mock implementation of CourseStructureService
type mockCourseStructureService struct {
	course   *models.CourseStructure
	saveResp *models.SaveStructureResponse
	err      error

	gotCourseID int
	gotIDs      []int
	gotUpdate   models.FieldUpdate
	gotSave     *models.SaveStructureRequest
	gotCreate   *models.CreateCourseRequest
}

func (m *mockCourseStructureService) CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (int, error) {
	m.gotCreate = req
	return 7, m.err
}

func (m *mockCourseStructureService) GetCourseStructure(ctx context.Context, courseID int) (*models.CourseStructure, error) {
	m.gotCourseID = courseID
	return m.course, m.err
}

func (m *mockCourseStructureService) SaveStructure(ctx context.Context, courseID int, req *models.SaveStructureRequest) (*models.SaveStructureResponse, error) {
	m.gotCourseID = courseID
	m.gotSave = req
	return m.saveResp, m.err
}

func (m *mockCourseStructureService) UpdateUnitField(ctx context.Context, courseID, unitID int, upd models.FieldUpdate) error {
	m.gotIDs = []int{courseID, unitID}
	m.gotUpdate = upd
	return m.err
}

func (m *mockCourseStructureService) UpdateUnitLessonField(ctx context.Context, courseID, unitID, lessonID int, upd models.FieldUpdate) error {
	m.gotIDs = []int{courseID, unitID, lessonID}
	m.gotUpdate = upd
	return m.err
}

func (m *mockCourseStructureService) UpdateDirectLessonField(ctx context.Context, courseID, lessonID int, upd models.FieldUpdate) error {
	m.gotIDs = []int{courseID, lessonID}
	m.gotUpdate = upd
	return m.err
}

func (m *mockCourseStructureService) DeleteUnit(ctx context.Context, courseID, unitID int) error {
	m.gotIDs = []int{courseID, unitID}
	return m.err
}

func (m *mockCourseStructureService) DeleteUnitLesson(ctx context.Context, courseID, unitID, lessonID int) error {
	m.gotIDs = []int{courseID, unitID, lessonID}
	return m.err
}

func (m *mockCourseStructureService) DeleteDirectLesson(ctx context.Context, courseID, lessonID int) error {
	m.gotIDs = []int{courseID, lessonID}
	return m.err
}

func setupRouter(svc CourseStructureService) http.Handler {
	h := NewCourseHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Route("/api/v1", h.RegisterRoutes)
	return r
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestCourseHandler_CreateCourse(t *testing.T) {
	svc := &mockCourseStructureService{}
	router := setupRouter(svc)

	w := do(t, router, http.MethodPost, "/api/v1/courses", `{"title":"Go","description":"d","structureType":"legacy"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
	assert.Equal(t, models.StructureTypeLegacy, svc.gotCreate.StructureType)

	w = do(t, router, http.MethodPost, "/api/v1/courses", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandler_GetCourse(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		svc            *mockCourseStructureService
		expectedStatus int
	}{
		{
			name: "success",
			path: "/api/v1/courses/3",
			svc: &mockCourseStructureService{course: &models.CourseStructure{
				ID:            3,
				Title:         "Go",
				StructureType: models.StructureTypeLegacy,
				Units:         []models.Unit{{ID: identity.Persisted("10"), Title: "Basics"}},
				DirectLessons: []models.Lesson{},
			}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid id",
			path:           "/api/v1/courses/abc",
			svc:            &mockCourseStructureService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not found",
			path:           "/api/v1/courses/3",
			svc:            &mockCourseStructureService{err: models.ErrCourseNotFound},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "internal error",
			path:           "/api/v1/courses/3",
			svc:            &mockCourseStructureService{err: errors.New("db password wrong")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, setupRouter(tt.svc), http.MethodGet, tt.path, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.expectedStatus == http.StatusOK {
				var course models.CourseStructure
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &course))
				assert.Equal(t, identity.Persisted("10"), course.Units[0].ID)
				assert.Equal(t, 3, tt.svc.gotCourseID)
			}
			if tt.expectedStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "password")
			}
		})
	}
}

func TestCourseHandler_SaveStructure(t *testing.T) {
	svc := &mockCourseStructureService{saveResp: &models.SaveStructureResponse{
		Success:    true,
		IDMappings: []identity.Pair{{TempID: "t1", ID: "12"}},
	}}
	router := setupRouter(svc)

	body := `{"structureType":"unified","unifiedStructure":[{"type":"unit","tempId":"t1","data":{"title":"New"},"order":0}]}`
	w := do(t, router, http.MethodPut, "/api/v1/courses/3/structure", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"idMappings":[{"tempId":"t1","id":"12"}]`)
	require.Len(t, svc.gotSave.UnifiedStructure, 1)
	assert.Equal(t, identity.Temporary("t1"), svc.gotSave.UnifiedStructure[0].ID())

	w = do(t, router, http.MethodPut, "/api/v1/courses/3/structure", `{"structureType":"unified","unifiedStructure":[{"type":"quiz"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = models.ErrInvalidRequest
	w = do(t, router, http.MethodPut, "/api/v1/courses/3/structure", `{"structureType":"legacy"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandler_FieldUpdates(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		err            error
		expectedStatus int
		expectedIDs    []int
	}{
		{
			name:           "update unit",
			method:         http.MethodPatch,
			path:           "/api/v1/courses/1/units/10",
			body:           `{"title":"B"}`,
			expectedStatus: http.StatusOK,
			expectedIDs:    []int{1, 10},
		},
		{
			name:           "update unit lesson",
			method:         http.MethodPatch,
			path:           "/api/v1/courses/1/units/10/lessons/20",
			body:           `{"lecture":"<p/>"}`,
			expectedStatus: http.StatusOK,
			expectedIDs:    []int{1, 10, 20},
		},
		{
			name:           "update direct lesson",
			method:         http.MethodPatch,
			path:           "/api/v1/courses/1/lessons/30",
			body:           `{"duration":"15"}`,
			expectedStatus: http.StatusOK,
			expectedIDs:    []int{1, 30},
		},
		{
			name:           "two fields",
			method:         http.MethodPatch,
			path:           "/api/v1/courses/1/units/10",
			body:           `{"title":"B","description":"C"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid field",
			method:         http.MethodPatch,
			path:           "/api/v1/courses/1/units/10",
			body:           `{"lecture":"x"}`,
			err:            models.ErrInvalidField,
			expectedStatus: http.StatusBadRequest,
			expectedIDs:    []int{1, 10},
		},
		{
			name:           "temporary id in path",
			method:         http.MethodPatch,
			path:           "/api/v1/courses/1/units/tmp-1",
			body:           `{"title":"B"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "lesson not found",
			method:         http.MethodPatch,
			path:           "/api/v1/courses/1/lessons/30",
			body:           `{"title":"B"}`,
			err:            models.ErrLessonNotFound,
			expectedStatus: http.StatusNotFound,
			expectedIDs:    []int{1, 30},
		},
		{
			name:           "delete unit",
			method:         http.MethodDelete,
			path:           "/api/v1/courses/1/units/10",
			expectedStatus: http.StatusOK,
			expectedIDs:    []int{1, 10},
		},
		{
			name:           "delete unit lesson",
			method:         http.MethodDelete,
			path:           "/api/v1/courses/1/units/10/lessons/20",
			expectedStatus: http.StatusOK,
			expectedIDs:    []int{1, 10, 20},
		},
		{
			name:           "delete direct lesson",
			method:         http.MethodDelete,
			path:           "/api/v1/courses/1/lessons/30",
			expectedStatus: http.StatusOK,
			expectedIDs:    []int{1, 30},
		},
		{
			name:           "delete missing unit",
			method:         http.MethodDelete,
			path:           "/api/v1/courses/1/units/10",
			err:            models.ErrUnitNotFound,
			expectedStatus: http.StatusNotFound,
			expectedIDs:    []int{1, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCourseStructureService{err: tt.err}

			w := do(t, setupRouter(svc), tt.method, tt.path, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedIDs, svc.gotIDs)
			if tt.expectedStatus == http.StatusOK {
				assert.JSONEq(t, `{"success":true}`, w.Body.String())
			}
		})
	}
}
