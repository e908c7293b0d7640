package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/learnhub/backend/internal/converter"
	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/ordering"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CourseStructureRepository is the interface that wraps methods for courses, units and lessons data access
type CourseStructureRepository interface {
	// Method CreateCourse inserts a course and sets its ID.
	//
	// "ctx" is the context for the request.
	// "course" is the course to insert; its ID field is filled on success.
	CreateCourse(ctx context.Context, course *models.Course) error
	// Method GetCourse retrieves a course row by its ID.
	//
	// If the course does not exist, models.ErrCourseNotFound is returned together with "nil" value.
	GetCourse(ctx context.Context, courseID int) (*models.Course, error)
	// Method GetUnits retrieves the units of a course ordered by their stored position.
	//
	// Lessons of the units are not loaded; use GetUnitLessons.
	GetUnits(ctx context.Context, courseID int) ([]models.Unit, error)
	// Method GetUnitLessons retrieves the lessons owned by units of a course grouped by unit ID.
	GetUnitLessons(ctx context.Context, courseID int) (map[identity.ID][]models.Lesson, error)
	// Method GetDirectLessons retrieves the lessons placed directly in a course.
	GetDirectLessons(ctx context.Context, courseID int) ([]models.Lesson, error)
	// Method ReplaceStructure stores the whole structure of a course in one transaction.
	//
	// "units" and "directLessons" carry their positions in the Order field.
	// Items with temporary IDs are inserted, items with persisted IDs are updated and stored items
	// that are absent are deleted.
	// Returns the mapping from every temporary ID to the assigned persisted ID.
	ReplaceStructure(ctx context.Context, courseID int, structureType models.StructureType, units []models.Unit, directLessons []models.Lesson) (identity.Mapping, error)
	// Method UpdateUnitField updates one field of a unit.
	//
	// Returns models.ErrUnitNotFound when the unit does not belong to the course.
	UpdateUnitField(ctx context.Context, courseID, unitID int, upd models.FieldUpdate) error
	// Method UpdateLessonField updates one field of a lesson.
	//
	// "unitID" is nil for a direct lesson.
	// Returns models.ErrLessonNotFound when the lesson is not found at that place.
	UpdateLessonField(ctx context.Context, courseID int, unitID *int, lessonID int, upd models.FieldUpdate) error
	// Method DeleteUnit deletes a unit and its lessons.
	DeleteUnit(ctx context.Context, courseID, unitID int) error
	// Method DeleteLesson deletes a lesson. "unitID" is nil for a direct lesson.
	DeleteLesson(ctx context.Context, courseID int, unitID *int, lessonID int) error
}

type courseStructureService struct {
	repo     CourseStructureRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCourseStructureService creates a new course structure service
func NewCourseStructureService(repo CourseStructureRepository, logger *zap.Logger) *courseStructureService {
	return &courseStructureService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// CreateCourse creates an empty course. The structure type defaults to unified.
func (s *courseStructureService) CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (int, error) {
	if err := s.validateRequest(req); err != nil {
		return 0, err
	}

	course := &models.Course{
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		StructureType: req.StructureType,
	}
	if course.StructureType == "" {
		course.StructureType = models.StructureTypeUnified
	}

	if err := s.repo.CreateCourse(ctx, course); err != nil {
		s.logger.Error("failed to create course", zap.Error(err))
		return 0, fmt.Errorf("failed to create course: %w", err)
	}

	return course.ID, nil
}

// GetCourseStructure retrieves a course with its units, their lessons and the direct lessons.
//
// Orders are returned normalized: 0..n-1 per list for legacy courses, and one shared 0..n-1
// sequence across units and direct lessons for unified courses, which also get UnifiedStructure.
func (s *courseStructureService) GetCourseStructure(ctx context.Context, courseID int) (*models.CourseStructure, error) {
	var (
		course        *models.Course
		units         []models.Unit
		unitLessons   map[identity.ID][]models.Lesson
		directLessons []models.Lesson
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		course, err = s.repo.GetCourse(gctx, courseID)
		return err
	})
	g.Go(func() (err error) {
		units, err = s.repo.GetUnits(gctx, courseID)
		return err
	})
	g.Go(func() (err error) {
		unitLessons, err = s.repo.GetUnitLessons(gctx, courseID)
		return err
	})
	g.Go(func() (err error) {
		directLessons, err = s.repo.GetDirectLessons(gctx, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, models.ErrCourseNotFound) {
			return nil, err
		}
		s.logger.Error("failed to get course structure", zap.Int("course_id", courseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get course structure: %w", err)
	}

	for i := range units {
		units[i].Lessons = append([]models.Lesson{}, unitLessons[units[i].ID]...)
		ordering.Renumber(units[i].Lessons, setLessonOrder)
	}
	if directLessons == nil {
		directLessons = []models.Lesson{}
	}

	result := &models.CourseStructure{
		ID:            course.ID,
		Title:         course.Title,
		Description:   course.Description,
		StructureType: course.StructureType,
	}

	if course.StructureType == models.StructureTypeUnified {
		units, directLessons = converter.ToSeparate(converter.ToUnified(units, directLessons))
		result.UnifiedStructure = converter.ToUnified(units, directLessons)
	} else {
		ordering.Renumber(units, setUnitOrder)
		ordering.Renumber(directLessons, setLessonOrder)
	}
	result.Units = units
	result.DirectLessons = directLessons

	return result, nil
}

// SaveStructure replaces the structure of a course.
//
// A unified request is split into units and direct lessons that keep their position in the
// unified sequence. Every item sent with a temporary ID gets a persisted ID, listed in IDMappings.
func (s *courseStructureService) SaveStructure(ctx context.Context, courseID int, req *models.SaveStructureRequest) (*models.SaveStructureResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	units, directLessons := req.Units, req.DirectLessons
	if req.StructureType == models.StructureTypeUnified {
		items := slices.Clone(req.UnifiedStructure)
		ordering.SortStable(items, func(it models.UnifiedItem) int { return it.Order })
		units, directLessons = converter.ToSeparate(items)
	}

	mapping, err := s.repo.ReplaceStructure(ctx, courseID, req.StructureType, units, directLessons)
	if err != nil {
		if errors.Is(err, models.ErrCourseNotFound) || errors.Is(err, models.ErrUnitNotFound) ||
			errors.Is(err, models.ErrLessonNotFound) || errors.Is(err, models.ErrInvalidID) {
			return nil, err
		}
		s.logger.Error("failed to save course structure", zap.Int("course_id", courseID), zap.Error(err))
		return nil, fmt.Errorf("failed to save course structure: %w", err)
	}

	course, err := s.GetCourseStructure(ctx, courseID)
	if err != nil {
		return nil, err
	}

	pairs := mapping.Pairs()
	slices.SortFunc(pairs, func(a, b identity.Pair) int { return strings.Compare(a.TempID, b.TempID) })

	s.logger.Info("course structure saved",
		zap.Int("course_id", courseID),
		zap.String("structure_type", string(req.StructureType)),
		zap.Int("new_items", len(pairs)),
	)
	return &models.SaveStructureResponse{
		Success:    true,
		Course:     course,
		IDMappings: pairs,
	}, nil
}

// UpdateUnitField updates the title or description of a unit
func (s *courseStructureService) UpdateUnitField(ctx context.Context, courseID, unitID int, upd models.FieldUpdate) error {
	if !models.ValidUnitField(upd.Field) {
		return fmt.Errorf("%w: %q", models.ErrInvalidField, upd.Field)
	}
	return s.wrap("update unit field", s.repo.UpdateUnitField(ctx, courseID, unitID, upd))
}

// UpdateUnitLessonField updates one field of a lesson owned by a unit
func (s *courseStructureService) UpdateUnitLessonField(ctx context.Context, courseID, unitID, lessonID int, upd models.FieldUpdate) error {
	if !models.ValidLessonField(upd.Field) {
		return fmt.Errorf("%w: %q", models.ErrInvalidField, upd.Field)
	}
	return s.wrap("update lesson field", s.repo.UpdateLessonField(ctx, courseID, &unitID, lessonID, upd))
}

// UpdateDirectLessonField updates one field of a direct lesson
func (s *courseStructureService) UpdateDirectLessonField(ctx context.Context, courseID, lessonID int, upd models.FieldUpdate) error {
	if !models.ValidLessonField(upd.Field) {
		return fmt.Errorf("%w: %q", models.ErrInvalidField, upd.Field)
	}
	return s.wrap("update lesson field", s.repo.UpdateLessonField(ctx, courseID, nil, lessonID, upd))
}

// DeleteUnit deletes a unit with its lessons
func (s *courseStructureService) DeleteUnit(ctx context.Context, courseID, unitID int) error {
	return s.wrap("delete unit", s.repo.DeleteUnit(ctx, courseID, unitID))
}

// DeleteUnitLesson deletes a lesson owned by a unit
func (s *courseStructureService) DeleteUnitLesson(ctx context.Context, courseID, unitID, lessonID int) error {
	return s.wrap("delete lesson", s.repo.DeleteLesson(ctx, courseID, &unitID, lessonID))
}

// DeleteDirectLesson deletes a direct lesson
func (s *courseStructureService) DeleteDirectLesson(ctx context.Context, courseID, lessonID int) error {
	return s.wrap("delete lesson", s.repo.DeleteLesson(ctx, courseID, nil, lessonID))
}

// validateRequest runs the struct validation of a request body
func (s *courseStructureService) validateRequest(req any) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", models.ErrInvalidRequest, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}
	return nil
}

// wrap passes not-found errors through and logs the rest
func (s *courseStructureService) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrUnitNotFound) || errors.Is(err, models.ErrLessonNotFound) ||
		errors.Is(err, models.ErrCourseNotFound) || errors.Is(err, models.ErrInvalidField) {
		return err
	}
	s.logger.Error("failed to "+op, zap.Error(err))
	return fmt.Errorf("failed to %s: %w", op, err)
}

func setUnitOrder(u *models.Unit, order int) {
	u.Order = models.IntPtr(order)
}

func setLessonOrder(l *models.Lesson, order int) {
	l.Order = models.IntPtr(order)
}
