package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

var unitColumns = map[models.Field]string{
	models.FieldTitle:       "title",
	models.FieldDescription: "description",
}

var lessonColumns = map[models.Field]string{
	models.FieldTitle:       "title",
	models.FieldDescription: "description",
	models.FieldLecture:     "lecture",
	models.FieldDuration:    "duration",
}

type courseStructureRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCourseStructureRepository creates a new course structure repository
func NewCourseStructureRepository(db *sql.DB, logger *zap.Logger) *courseStructureRepository {
	return &courseStructureRepository{
		db:     db,
		logger: logger,
	}
}

// CreateCourse inserts a course and sets its ID
func (r *courseStructureRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (title, description, structure_type)
		VALUES (?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, course.Title, course.Description, course.StructureType)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	course.ID = int(id)
	return nil
}

// GetCourse retrieves a course by its ID
func (r *courseStructureRepository) GetCourse(ctx context.Context, courseID int) (*models.Course, error) {
	query := `
		SELECT id, title, description, structure_type
		FROM courses
		WHERE id = ?
		LIMIT 1
	`

	var course models.Course
	err := r.db.QueryRowContext(ctx, query, courseID).Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.StructureType,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return &course, nil
}

// GetUnits retrieves the units of a course ordered by position, without their lessons
func (r *courseStructureRepository) GetUnits(ctx context.Context, courseID int) ([]models.Unit, error) {
	query := `
		SELECT id, title, description, position
		FROM units
		WHERE course_id = ?
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	units := []models.Unit{}
	for rows.Next() {
		var (
			id       int
			position int
			unit     models.Unit
		)
		if err := rows.Scan(&id, &unit.Title, &unit.Description, &position); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		unit.ID = persistedID(id)
		unit.Order = models.IntPtr(position)
		unit.Lessons = []models.Lesson{}
		units = append(units, unit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return units, nil
}

// GetUnitLessons retrieves the lessons owned by the units of a course, grouped by unit ID and
// ordered by position
func (r *courseStructureRepository) GetUnitLessons(ctx context.Context, courseID int) (map[identity.ID][]models.Lesson, error) {
	query := `
		SELECT id, unit_id, title, description, lecture, duration, position
		FROM lessons
		WHERE course_id = ? AND unit_id IS NOT NULL
		ORDER BY unit_id, position, id
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unit lessons: %w", err)
	}
	defer rows.Close()

	lessons := make(map[identity.ID][]models.Lesson)
	for rows.Next() {
		var unitID int
		lesson, err := scanLesson(rows, &unitID)
		if err != nil {
			return nil, err
		}
		key := persistedID(unitID)
		lessons[key] = append(lessons[key], lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}

// GetDirectLessons retrieves the lessons placed directly in a course ordered by position
func (r *courseStructureRepository) GetDirectLessons(ctx context.Context, courseID int) ([]models.Lesson, error) {
	query := `
		SELECT id, title, description, lecture, duration, position
		FROM lessons
		WHERE course_id = ? AND unit_id IS NULL
		ORDER BY position, id
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query direct lessons: %w", err)
	}
	defer rows.Close()

	lessons := []models.Lesson{}
	for rows.Next() {
		lesson, err := scanLesson(rows, nil)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}

// ReplaceStructure stores the complete structure of a course in one transaction.
//
// Items with a persisted ID are updated, items with a temporary ID are inserted and items of the
// course that are missing from units and directLessons are deleted. The returned mapping links
// every temporary ID to the ID assigned by the database.
func (r *courseStructureRepository) ReplaceStructure(ctx context.Context, courseID int, structureType models.StructureType, units []models.Unit, directLessons []models.Lesson) (identity.Mapping, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE courses SET structure_type = ? WHERE id = ?`, structureType, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to update course structure type: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, models.ErrCourseNotFound
	}

	mapping := make(identity.Mapping)
	var keptUnits, keptLessons []any

	for i, unit := range units {
		unitID, err := r.saveUnit(ctx, tx, courseID, unit, models.OrderOr(unit.Order, i), mapping)
		if err != nil {
			return nil, err
		}
		keptUnits = append(keptUnits, unitID)

		for j, lesson := range unit.Lessons {
			lessonID, err := r.saveLesson(ctx, tx, courseID, &unitID, lesson, models.OrderOr(lesson.Order, j), mapping)
			if err != nil {
				return nil, err
			}
			keptLessons = append(keptLessons, lessonID)
		}
	}

	for i, lesson := range directLessons {
		lessonID, err := r.saveLesson(ctx, tx, courseID, nil, lesson, models.OrderOr(lesson.Order, i), mapping)
		if err != nil {
			return nil, err
		}
		keptLessons = append(keptLessons, lessonID)
	}

	if err := deleteMissing(ctx, tx, "lessons", courseID, keptLessons); err != nil {
		return nil, err
	}
	if err := deleteMissing(ctx, tx, "units", courseID, keptUnits); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug("course structure replaced",
		zap.Int("course_id", courseID),
		zap.Int("units", len(units)),
		zap.Int("direct_lessons", len(directLessons)),
		zap.Int("inserted", len(mapping)),
	)
	return mapping, nil
}

// UpdateUnitField updates one column of a unit
func (r *courseStructureRepository) UpdateUnitField(ctx context.Context, courseID, unitID int, upd models.FieldUpdate) error {
	column, ok := unitColumns[upd.Field]
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrInvalidField, upd.Field)
	}

	query := fmt.Sprintf(`UPDATE units SET %s = ? WHERE id = ? AND course_id = ?`, column)
	result, err := r.db.ExecContext(ctx, query, upd.Value, unitID, courseID)
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}

	return expectRow(result, models.ErrUnitNotFound)
}

// UpdateLessonField updates one column of a lesson. A nil unitID addresses a direct lesson.
func (r *courseStructureRepository) UpdateLessonField(ctx context.Context, courseID int, unitID *int, lessonID int, upd models.FieldUpdate) error {
	column, ok := lessonColumns[upd.Field]
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrInvalidField, upd.Field)
	}

	where, args := lessonWhere(courseID, unitID, lessonID)
	query := fmt.Sprintf(`UPDATE lessons SET %s = ? WHERE %s`, column, where)
	result, err := r.db.ExecContext(ctx, query, append([]any{upd.Value}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	return expectRow(result, models.ErrLessonNotFound)
}

// DeleteUnit deletes a unit together with its lessons
func (r *courseStructureRepository) DeleteUnit(ctx context.Context, courseID, unitID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE unit_id = ? AND course_id = ?`, unitID, courseID); err != nil {
		return fmt.Errorf("failed to delete unit lessons: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM units WHERE id = ? AND course_id = ?`, unitID, courseID)
	if err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	if err := expectRow(result, models.ErrUnitNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteLesson deletes a lesson. A nil unitID addresses a direct lesson.
func (r *courseStructureRepository) DeleteLesson(ctx context.Context, courseID int, unitID *int, lessonID int) error {
	where, args := lessonWhere(courseID, unitID, lessonID)
	result, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE `+where, args...)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	return expectRow(result, models.ErrLessonNotFound)
}

func (r *courseStructureRepository) saveUnit(ctx context.Context, tx *sql.Tx, courseID int, unit models.Unit, position int, mapping identity.Mapping) (int, error) {
	if unit.ID.IsPersisted() {
		id, err := ParseID(unit.ID)
		if err != nil {
			return 0, err
		}
		query := `
			UPDATE units SET title = ?, description = ?, position = ?
			WHERE id = ? AND course_id = ?
		`
		result, err := tx.ExecContext(ctx, query, unit.Title, unit.Description, position, id, courseID)
		if err != nil {
			return 0, fmt.Errorf("failed to update unit %d: %w", id, err)
		}
		return id, expectRow(result, fmt.Errorf("%w: %d", models.ErrUnitNotFound, id))
	}

	query := `
		INSERT INTO units (course_id, title, description, position)
		VALUES (?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, courseID, unit.Title, unit.Description, position)
	if err != nil {
		return 0, fmt.Errorf("failed to insert unit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	if unit.ID.IsTemporary() {
		mapping.Add(unit.ID, persistedID(int(id)))
	}
	return int(id), nil
}

func (r *courseStructureRepository) saveLesson(ctx context.Context, tx *sql.Tx, courseID int, unitID *int, lesson models.Lesson, position int, mapping identity.Mapping) (int, error) {
	if lesson.ID.IsPersisted() {
		id, err := ParseID(lesson.ID)
		if err != nil {
			return 0, err
		}
		query := `
			UPDATE lessons SET unit_id = ?, title = ?, description = ?, lecture = ?, duration = ?, position = ?
			WHERE id = ? AND course_id = ?
		`
		result, err := tx.ExecContext(ctx, query, unitID, lesson.Title, lesson.Description, lesson.Lecture, lesson.Duration, position, id, courseID)
		if err != nil {
			return 0, fmt.Errorf("failed to update lesson %d: %w", id, err)
		}
		return id, expectRow(result, fmt.Errorf("%w: %d", models.ErrLessonNotFound, id))
	}

	query := `
		INSERT INTO lessons (course_id, unit_id, title, description, lecture, duration, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, courseID, unitID, lesson.Title, lesson.Description, lesson.Lecture, lesson.Duration, position)
	if err != nil {
		return 0, fmt.Errorf("failed to insert lesson: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	if lesson.ID.IsTemporary() {
		mapping.Add(lesson.ID, persistedID(int(id)))
	}
	return int(id), nil
}

// deleteMissing removes the rows of a course whose id is not in kept
func deleteMissing(ctx context.Context, tx *sql.Tx, table string, courseID int, kept []any) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE course_id = ?`, table)
	args := []any{courseID}
	if len(kept) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(kept)), ",")
		query += fmt.Sprintf(" AND id NOT IN (%s)", placeholders)
		args = append(args, kept...)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete removed %s: %w", table, err)
	}
	return nil
}

func lessonWhere(courseID int, unitID *int, lessonID int) (string, []any) {
	if unitID == nil {
		return "id = ? AND course_id = ? AND unit_id IS NULL", []any{lessonID, courseID}
	}
	return "id = ? AND course_id = ? AND unit_id = ?", []any{lessonID, courseID, *unitID}
}

// expectRow maps an update or delete that touched no row to notFound.
// The connection is opened with clientFoundRows, so unchanged matching rows still count.
func expectRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(rows rowScanner, unitID *int) (models.Lesson, error) {
	var (
		id       int
		position int
		lesson   models.Lesson
		lecture  sql.NullString
		duration sql.NullString
	)
	dest := []any{&id}
	if unitID != nil {
		dest = append(dest, unitID)
	}
	dest = append(dest, &lesson.Title, &lesson.Description, &lecture, &duration, &position)
	if err := rows.Scan(dest...); err != nil {
		return models.Lesson{}, fmt.Errorf("failed to scan lesson: %w", err)
	}
	lesson.ID = persistedID(id)
	lesson.Lecture = lecture.String
	lesson.Duration = duration.String
	lesson.Order = models.IntPtr(position)
	return lesson, nil
}

func persistedID(id int) identity.ID {
	return identity.Persisted(strconv.Itoa(id))
}

// ParseID converts a persisted identity to a database ID
func ParseID(id identity.ID) (int, error) {
	if !id.IsPersisted() {
		return 0, fmt.Errorf("%w: %s is not persisted", models.ErrInvalidID, id)
	}
	n, err := strconv.Atoi(id.Value())
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidID, id.Value())
	}
	return n, nil
}
