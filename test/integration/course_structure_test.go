package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/learnhub/backend/internal/client"
	"github.com/learnhub/backend/internal/config"
	"github.com/learnhub/backend/internal/handlers"
	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/persistence"
	"github.com/learnhub/backend/internal/repositories"
	"github.com/learnhub/backend/internal/services"
	"github.com/learnhub/backend/internal/structure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
)

var (
	testDB     *sql.DB
	testServer *httptest.Server
	testLogger *zap.Logger
)

// TestMain sets up the database and an in-process API server when TEST_DB_* is configured
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	if !cfg.Configured() {
		os.Exit(m.Run())
	}

	testDB, err = sql.Open("mysql", cfg.DSN())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}
	if err = testDB.Ping(); err != nil {
		panic(fmt.Sprintf("Failed to ping test database: %v", err))
	}
	if err = migrateUp(testDB); err != nil {
		panic(fmt.Sprintf("Failed to migrate test database: %v", err))
	}

	testServer = httptest.NewServer(setupTestRouter(testDB, testLogger))

	code := m.Run()

	testServer.Close()
	testDB.Close()
	os.Exit(code)
}

func migrateUp(db *sql.DB) error {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{
		MigrationsTable: "course_structure_schema_migrations",
	})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "mysql", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// setupTestRouter creates a router with the course handler mounted the way the API does it
func setupTestRouter(db *sql.DB, logger *zap.Logger) chi.Router {
	repo := repositories.NewCourseStructureRepository(db, logger)
	svc := services.NewCourseStructureService(repo, logger)
	h := handlers.NewCourseHandler(svc, logger)

	r := chi.NewRouter()
	r.Route("/api/v1", h.RegisterRoutes)
	return r
}

func skipUnlessConfigured(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	if testDB == nil {
		t.Skip("TEST_DB_* is not set")
	}
}

func newCourse(t *testing.T, c *client.Client, structureType models.StructureType) int {
	t.Helper()
	id, err := c.CreateCourse(context.Background(), &models.CreateCourseRequest{
		Title:         "Intro to programming",
		Description:   "Variables, loops and functions",
		StructureType: structureType,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = testDB.Exec("DELETE FROM courses WHERE id = ?", id)
	})
	return id
}

func recorder() (persistence.Notifier, *[]persistence.Notification) {
	var got []persistence.Notification
	return persistence.NotifierFunc(func(n persistence.Notification) { got = append(got, n) }), &got
}

func TestIntegration_UnifiedSessionRoundTrip(t *testing.T) {
	skipUnlessConfigured(t)
	ctx := context.Background()
	c := client.New(testServer.URL, 10*time.Second, testLogger)
	courseID := newCourse(t, c, models.StructureTypeUnified)

	notifier, notes := recorder()
	confirm := persistence.ConfirmFunc(func(context.Context, string) bool { return true })
	session := persistence.NewAdapter(courseID, nil, c, notifier, confirm, testLogger)
	_, err := session.Load(ctx)
	require.NoError(t, err)

	lessonID := session.AddDirectLesson(identity.ID{})
	unitID := session.AddUnit(identity.ID{})
	inner, ok := session.AddLessonToUnit(unitID, identity.ID{})
	require.True(t, ok)

	require.NoError(t, session.UpdateDirectLesson(ctx, lessonID, models.FieldTitle, "Final project").Wait())
	require.NoError(t, session.UpdateUnit(ctx, unitID, models.FieldTitle, "Getting started").Wait())
	require.NoError(t, session.UpdateLessonInUnit(ctx, unitID, inner, models.FieldTitle, "Course overview").Wait())

	// unit first, then the direct lesson
	require.True(t, session.Reorder(structure.UnifiedScope(), 1, 0))
	require.NoError(t, session.Save(ctx))
	assert.Equal(t, persistence.LevelSuccess, (*notes)[len(*notes)-1].Level)

	snap := session.Snapshot()
	require.Len(t, snap.Unified, 2)
	for _, it := range snap.Unified {
		assert.True(t, it.ID().IsPersisted(), "id %s should be reconciled", it.ID())
	}

	course, err := c.FetchCourse(ctx, courseID)
	require.NoError(t, err)
	require.Len(t, course.UnifiedStructure, 2)
	assert.Equal(t, models.ItemTypeUnit, course.UnifiedStructure[0].Type)
	assert.Equal(t, "Getting started", course.UnifiedStructure[0].Unit.Title)
	require.Len(t, course.UnifiedStructure[0].Unit.Lessons, 1)
	assert.Equal(t, "Course overview", course.UnifiedStructure[0].Unit.Lessons[0].Title)
	assert.Equal(t, models.ItemTypeLesson, course.UnifiedStructure[1].Type)
	assert.Equal(t, "Final project", course.UnifiedStructure[1].Lesson.Title)
	assert.Equal(t, 1, course.UnifiedStructure[1].Order)

	// persisted field edits go straight to the backend
	persistedUnit := snap.Unified[0].ID()
	require.NoError(t, session.UpdateUnit(ctx, persistedUnit, models.FieldDescription, "The first alphabet").Wait())
	course, err = c.FetchCourse(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, "The first alphabet", course.UnifiedStructure[0].Unit.Description)
}

func TestIntegration_LegacyDeleteAndNotFound(t *testing.T) {
	skipUnlessConfigured(t)
	ctx := context.Background()
	c := client.New(testServer.URL, 10*time.Second, testLogger)
	courseID := newCourse(t, c, models.StructureTypeLegacy)

	resp, err := c.SaveStructure(ctx, courseID, &models.SaveStructureRequest{
		StructureType: models.StructureTypeLegacy,
		Units: []models.Unit{{
			ID:      identity.Temporary("temp-unit"),
			Title:   "Basics",
			Lessons: []models.Lesson{{ID: identity.Temporary("temp-lesson"), Title: "Course overview"}},
		}},
		DirectLessons: []models.Lesson{{ID: identity.Temporary("temp-direct"), Title: "Intro"}},
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	mapping := identity.NewMapping(resp.IDMappings)
	require.Len(t, mapping, 3)

	unitID := mapping.Resolve(identity.Temporary("temp-unit"))
	lessonID := mapping.Resolve(identity.Temporary("temp-lesson"))
	directID := mapping.Resolve(identity.Temporary("temp-direct"))

	require.NoError(t, c.DeleteUnitLesson(ctx, courseID, unitID, lessonID))
	require.NoError(t, c.DeleteDirectLesson(ctx, courseID, directID))

	course, err := c.FetchCourse(ctx, courseID)
	require.NoError(t, err)
	require.Len(t, course.Units, 1)
	assert.Empty(t, course.Units[0].Lessons)
	assert.Empty(t, course.DirectLessons)

	require.NoError(t, c.DeleteUnit(ctx, courseID, unitID))
	err = c.UpdateUnitField(ctx, courseID, unitID, models.FieldUpdate{Field: models.FieldTitle, Value: "gone"})
	assert.ErrorIs(t, err, client.ErrNotFound)

	_, err = c.FetchCourse(ctx, courseID+1_000_000)
	assert.ErrorIs(t, err, client.ErrNotFound)
}
