package main

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAPI is an in-memory course API
type fakeAPI struct {
	mu      sync.Mutex
	course  *models.CourseStructure
	saved   *models.SaveStructureRequest
	updates []models.FieldUpdate
	created *models.CreateCourseRequest
	failOn  models.Field
}

func (f *fakeAPI) CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (int, error) {
	f.created = req
	return 42, nil
}

func (f *fakeAPI) FetchCourse(ctx context.Context, courseID int) (*models.CourseStructure, error) {
	if f.course == nil {
		return nil, errors.New("not found")
	}
	return f.course, nil
}

func (f *fakeAPI) SaveStructure(ctx context.Context, courseID int, req *models.SaveStructureRequest) (*models.SaveStructureResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = req

	var pairs []identity.Pair
	next := 100
	for _, it := range req.UnifiedStructure {
		if it.ID().IsTemporary() {
			pairs = append(pairs, identity.Pair{TempID: it.ID().Value(), ID: strconv.Itoa(next)})
			next++
		}
	}
	return &models.SaveStructureResponse{Success: true, IDMappings: pairs}, nil
}

func (f *fakeAPI) UpdateUnitField(ctx context.Context, courseID int, unitID identity.ID, upd models.FieldUpdate) error {
	return f.update(upd)
}

func (f *fakeAPI) UpdateUnitLessonField(ctx context.Context, courseID int, unitID, lessonID identity.ID, upd models.FieldUpdate) error {
	return f.update(upd)
}

func (f *fakeAPI) UpdateDirectLessonField(ctx context.Context, courseID int, lessonID identity.ID, upd models.FieldUpdate) error {
	return f.update(upd)
}

func (f *fakeAPI) update(upd models.FieldUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, upd)
	if upd.Field == f.failOn {
		return errors.New("backend down")
	}
	return nil
}

func unifiedCourse() *models.CourseStructure {
	u := models.Unit{ID: identity.Persisted("1"), Title: "Getting started", Lessons: []models.Lesson{
		{ID: identity.Persisted("10"), Title: "Course overview"},
	}}
	l := models.Lesson{ID: identity.Persisted("20"), Title: "Final project"}
	return &models.CourseStructure{
		ID:               7,
		Title:            "Intro to programming",
		StructureType:    models.StructureTypeUnified,
		Units:            []models.Unit{u},
		DirectLessons:    []models.Lesson{l},
		UnifiedStructure: []models.UnifiedItem{models.UnitItem(u, 0), models.LessonItem(l, 1)},
	}
}

func run(t *testing.T, api *fakeAPI, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(deps{
		in:  strings.NewReader(input),
		out: &out,
		connect: func() (courseAPI, *zap.Logger, error) {
			return api, zap.NewNop(), nil
		},
	})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreate(t *testing.T) {
	api := &fakeAPI{}
	out, err := run(t, api, "", "create", "--title", "Intro to programming", "--description", "Variables and loops", "--type", "legacy")

	require.NoError(t, err)
	assert.Contains(t, out, "Created course 42")
	require.NotNil(t, api.created)
	assert.Equal(t, models.StructureTypeLegacy, api.created.StructureType)
}

func TestCreate_RequiresTitle(t *testing.T) {
	_, err := run(t, &fakeAPI{}, "", "create", "--description", "Variables and loops")
	assert.Error(t, err)
}

func TestShow(t *testing.T) {
	out, err := run(t, &fakeAPI{course: unifiedCourse()}, "", "show", "7")

	require.NoError(t, err)
	assert.Contains(t, out, "[unified]")
	assert.Contains(t, out, `0. unit 1 "Getting started"`)
	assert.Contains(t, out, `   0. lesson 10 "Course overview"`)
	assert.Contains(t, out, `1. lesson 20 "Final project"`)
}

func TestShow_InvalidCourseID(t *testing.T) {
	_, err := run(t, &fakeAPI{course: unifiedCourse()}, "", "show", "abc")
	assert.ErrorContains(t, err, "invalid course id")
}

func TestEdit_FieldEditsAreWrittenImmediately(t *testing.T) {
	api := &fakeAPI{course: unifiedCourse()}
	out, err := run(t, api, "set-unit 1 title Basics\nset-direct 20 duration 15\nshow\nquit\n", "edit", "7")

	require.NoError(t, err)
	assert.Contains(t, out, `unit 1 "Basics"`)
	assert.ElementsMatch(t, []models.FieldUpdate{
		{Field: models.FieldTitle, Value: "Basics"},
		{Field: models.FieldDuration, Value: "15"},
	}, api.updates)
}

func TestEdit_FailedWriteIsReported(t *testing.T) {
	api := &fakeAPI{course: unifiedCourse(), failOn: models.FieldDescription}
	out, err := run(t, api, "set-unit 1 description Broken\n", "edit", "7")

	require.NoError(t, err)
	assert.Contains(t, out, "[error]")
}

func TestEdit_InvalidField(t *testing.T) {
	api := &fakeAPI{course: unifiedCourse()}
	out, err := run(t, api, "set-unit 1 lecture text\nquit\n", "edit", "7")

	require.NoError(t, err)
	assert.Contains(t, out, "error: invalid field: lecture")
	assert.Empty(t, api.updates)
}

func TestEdit_MoveAndSave(t *testing.T) {
	api := &fakeAPI{course: unifiedCourse()}
	out, err := run(t, api, "move unified 1 0\nsave\nquit\n", "edit", "7")

	require.NoError(t, err)
	assert.Contains(t, out, "[success]")
	require.NotNil(t, api.saved)
	require.Len(t, api.saved.UnifiedStructure, 2)
	assert.Equal(t, "20", api.saved.UnifiedStructure[0].ID().Value())
	assert.Equal(t, "1", api.saved.UnifiedStructure[1].ID().Value())
}

func TestEdit_SaveBlockedByEmptyTitle(t *testing.T) {
	api := &fakeAPI{course: unifiedCourse()}
	out, err := run(t, api, "add-unit\nsave\nquit\n", "edit", "7")

	require.NoError(t, err)
	assert.Contains(t, out, "added unit")
	assert.Contains(t, out, "[warning]")
	assert.Nil(t, api.saved)
}

func TestEdit_DeleteAsksForConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    string
		remains bool
	}{
		{name: "confirmed", answer: "y", want: "deleted", remains: false},
		{name: "declined", answer: "n", want: "nothing deleted", remains: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{course: unifiedCourse()}
			out, err := run(t, api, "rm-direct 20\n"+tt.answer+"\nshow\nquit\n", "edit", "7")

			require.NoError(t, err)
			assert.Contains(t, out, "Delete this lesson? [y/N]")
			assert.Contains(t, out, tt.want)
			assert.Equal(t, tt.remains, strings.Contains(out, `"Final project"`))
		})
	}
}

func TestEdit_UnknownCommand(t *testing.T) {
	out, err := run(t, &fakeAPI{course: unifiedCourse()}, "frobnicate\n", "edit", "7")

	require.NoError(t, err)
	assert.Contains(t, out, `unknown command "frobnicate"`)
}

func TestEdit_IDsResolveToTheirStoredKind(t *testing.T) {
	u := models.Unit{ID: identity.Persisted("u1"), Title: "Old", Lessons: []models.Lesson{
		{ID: identity.Persisted("l1"), Title: "Setup"},
	}}
	d := models.Lesson{ID: identity.Persisted("d1"), Title: "Wrap-up"}
	api := &fakeAPI{course: &models.CourseStructure{
		ID:               7,
		StructureType:    models.StructureTypeUnified,
		UnifiedStructure: []models.UnifiedItem{models.UnitItem(u, 0), models.LessonItem(d, 1)},
	}}

	out, err := run(t, api, "set-unit u1 title New\nset-lesson u1 l1 duration 10\nmove unit:u1 0 0\nshow\nquit\n", "edit", "7")

	require.NoError(t, err)
	assert.Contains(t, out, `0. unit u1 "New"`)
	assert.NotContains(t, out, "(unsaved)")
	assert.ElementsMatch(t, []models.FieldUpdate{
		{Field: models.FieldTitle, Value: "New"},
		{Field: models.FieldDuration, Value: "10"},
	}, api.updates)
}

func TestEdit_UnknownID(t *testing.T) {
	api := &fakeAPI{course: unifiedCourse()}
	out, err := run(t, api, "set-unit 99 title New\nrm-direct nope\nmove unit:nope 0 1\nquit\n", "edit", "7")

	require.NoError(t, err)
	assert.Contains(t, out, `error: unknown id "99"`)
	assert.Contains(t, out, `error: unknown id "nope"`)
	assert.NotContains(t, out, "Delete this lesson?")
	assert.Empty(t, api.updates)
}

func TestEdit_UnsavedItemsAreAddressedByTheirTemporaryID(t *testing.T) {
	api := &fakeAPI{course: unifiedCourse()}
	sh := newShell(strings.NewReader(""), &bytes.Buffer{})
	sh.session = persistence.NewAdapter(7, nil, api, sh, sh, zap.NewNop())
	_, err := sh.session.Load(context.Background())
	require.NoError(t, err)

	id := sh.session.AddUnit(identity.ID{})
	require.NoError(t, sh.exec(context.Background(), "set-unit "+id.Value()+" title Draft"))
	sh.session.Wait()

	u, ok := sh.session.Lookup(id.Value())
	require.True(t, ok)
	assert.True(t, u.IsTemporary())
	snap := sh.session.Snapshot()
	assert.Equal(t, "Draft", snap.Unified[len(snap.Unified)-1].Unit.Title)
	// unsaved items are edited locally only
	assert.Empty(t, api.updates)
}
