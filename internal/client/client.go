// Package client talks to the course structure REST API
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the backend answers 404
	ErrNotFound = errors.New("not found")
	// ErrRejected is returned when the backend answers 2xx without "success": true
	ErrRejected = errors.New("rejected by backend")
)

// APIError is a non-success answer of the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrNotFound for 404 answers
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

// Client is the REST client of the course structure API
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8080
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL+"/api/v1").
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetError(&errorBody{})
	return &Client{http: rc, logger: logger}
}

// CreateCourse creates an empty course and returns its id
func (c *Client) CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (int, error) {
	var out models.CreateCourseResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/courses")
	if err := c.check(resp, err); err != nil {
		return 0, fmt.Errorf("failed to create course: %w", err)
	}
	return out.ID, nil
}

// FetchCourse retrieves a course with its structure
func (c *Client) FetchCourse(ctx context.Context, courseID int) (*models.CourseStructure, error) {
	var out models.CourseStructure
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("courseId", strconv.Itoa(courseID)).
		SetResult(&out).
		Get("/courses/{courseId}")
	if err := c.check(resp, err); err != nil {
		return nil, fmt.Errorf("failed to fetch course %d: %w", courseID, err)
	}
	return &out, nil
}

// SaveStructure replaces the whole structure of a course
func (c *Client) SaveStructure(ctx context.Context, courseID int, req *models.SaveStructureRequest) (*models.SaveStructureResponse, error) {
	var out models.SaveStructureResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("courseId", strconv.Itoa(courseID)).
		SetBody(req).
		SetResult(&out).
		Put("/courses/{courseId}/structure")
	if err := c.check(resp, err); err != nil {
		return nil, fmt.Errorf("failed to save structure of course %d: %w", courseID, err)
	}
	return &out, nil
}

// UpdateUnitField updates one field of a unit
func (c *Client) UpdateUnitField(ctx context.Context, courseID int, unitID identity.ID, upd models.FieldUpdate) error {
	return c.patch(ctx, "/courses/{courseId}/units/{unitId}", map[string]string{
		"courseId": strconv.Itoa(courseID),
		"unitId":   unitID.Value(),
	}, upd)
}

// UpdateUnitLessonField updates one field of a lesson owned by a unit
func (c *Client) UpdateUnitLessonField(ctx context.Context, courseID int, unitID, lessonID identity.ID, upd models.FieldUpdate) error {
	return c.patch(ctx, "/courses/{courseId}/units/{unitId}/lessons/{lessonId}", map[string]string{
		"courseId": strconv.Itoa(courseID),
		"unitId":   unitID.Value(),
		"lessonId": lessonID.Value(),
	}, upd)
}

// UpdateDirectLessonField updates one field of a direct lesson
func (c *Client) UpdateDirectLessonField(ctx context.Context, courseID int, lessonID identity.ID, upd models.FieldUpdate) error {
	return c.patch(ctx, "/courses/{courseId}/lessons/{lessonId}", map[string]string{
		"courseId": strconv.Itoa(courseID),
		"lessonId": lessonID.Value(),
	}, upd)
}

// DeleteUnit deletes a unit and its lessons
func (c *Client) DeleteUnit(ctx context.Context, courseID int, unitID identity.ID) error {
	return c.delete(ctx, "/courses/{courseId}/units/{unitId}", map[string]string{
		"courseId": strconv.Itoa(courseID),
		"unitId":   unitID.Value(),
	})
}

// DeleteUnitLesson deletes a lesson owned by a unit
func (c *Client) DeleteUnitLesson(ctx context.Context, courseID int, unitID, lessonID identity.ID) error {
	return c.delete(ctx, "/courses/{courseId}/units/{unitId}/lessons/{lessonId}", map[string]string{
		"courseId": strconv.Itoa(courseID),
		"unitId":   unitID.Value(),
		"lessonId": lessonID.Value(),
	})
}

// DeleteDirectLesson deletes a direct lesson
func (c *Client) DeleteDirectLesson(ctx context.Context, courseID int, lessonID identity.ID) error {
	return c.delete(ctx, "/courses/{courseId}/lessons/{lessonId}", map[string]string{
		"courseId": strconv.Itoa(courseID),
		"lessonId": lessonID.Value(),
	})
}

func (c *Client) patch(ctx context.Context, path string, params map[string]string, upd models.FieldUpdate) error {
	result := &models.SuccessResponse{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(params).
		SetBody(map[string]string{string(upd.Field): upd.Value}).
		SetResult(result).
		Patch(path)
	if err := c.checkSuccess(resp, err, result); err != nil {
		return fmt.Errorf("failed to update %s: %w", upd.Field, err)
	}
	return nil
}

func (c *Client) delete(ctx context.Context, path string, params map[string]string) error {
	result := &models.SuccessResponse{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(params).
		SetResult(result).
		Delete(path)
	if err := c.checkSuccess(resp, err, result); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// checkSuccess is check plus the "success" flag of the answer body
func (c *Client) checkSuccess(resp *resty.Response, err error, result *models.SuccessResponse) error {
	if err := c.check(resp, err); err != nil {
		return err
	}
	if !result.Success {
		return ErrRejected
	}
	return nil
}

// check turns transport failures and non-2xx answers into errors
func (c *Client) check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Error
	}
	c.logger.Debug("backend request failed",
		zap.String("method", resp.Request.Method),
		zap.String("url", resp.Request.URL),
		zap.Int("status", apiErr.StatusCode),
		zap.String("error", apiErr.Message),
	)
	return apiErr
}
