package persistence

import (
	"context"

	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

// Backend is the course structure API the editing session talks to
type Backend interface {
	// FetchCourse retrieves a course with its structure
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns the course structure and an error if any.
	FetchCourse(ctx context.Context, courseID int) (*models.CourseStructure, error)
	// SaveStructure replaces the whole structure of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "req" is the structure to store, either unified or separate.
	//
	// Returns the stored course with the persisted ids of new items and an error if any.
	SaveStructure(ctx context.Context, courseID int, req *models.SaveStructureRequest) (*models.SaveStructureResponse, error)
	// UpdateUnitField updates one field of a persisted unit
	UpdateUnitField(ctx context.Context, courseID int, unitID identity.ID, upd models.FieldUpdate) error
	// UpdateUnitLessonField updates one field of a persisted lesson owned by a unit
	UpdateUnitLessonField(ctx context.Context, courseID int, unitID, lessonID identity.ID, upd models.FieldUpdate) error
	// UpdateDirectLessonField updates one field of a persisted direct lesson
	UpdateDirectLessonField(ctx context.Context, courseID int, lessonID identity.ID, upd models.FieldUpdate) error
}

// Level is the severity of a user-visible notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a message shown to the person editing the course
type Notification struct {
	Level   Level
	Message string
}

// Notifier surfaces notifications to the user
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(n Notification)

// Notify calls f(n)
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a logger
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification at a level matching its severity
func (n *LogNotifier) Notify(note Notification) {
	switch note.Level {
	case LevelError:
		n.logger.Error(note.Message)
	case LevelWarning:
		n.logger.Warn(note.Message)
	default:
		n.logger.Info(note.Message)
	}
}

// Confirmer asks the user to confirm a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f(ctx, prompt)
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }
