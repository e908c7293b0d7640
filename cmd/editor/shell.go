package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/learnhub/backend/internal/identity"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/persistence"
	"github.com/learnhub/backend/internal/structure"
)

const helpText = `Commands:
  show                                  print the structure
  add-unit [afterId]                    add a unit
  add-lesson <unitId> [afterId]         add a lesson to a unit
  add-direct [afterId]                  add a direct lesson
  set-unit <unitId> <field> <value>     edit title or description of a unit
  set-lesson <unitId> <lessonId> <field> <value>
  set-direct <lessonId> <field> <value> edit title, description, lecture or duration
  rm-unit <unitId>                      delete a unit and its lessons
  rm-lesson <unitId> <lessonId>
  rm-direct <lessonId>
  move <scope> <from> <to>              scope: unified, units, direct or unit:<unitId>
  mode <unified|legacy>                 switch the structure type
  save                                  save the structure
  quit
`

var errQuit = errors.New("quit")

// shell reads editing commands line by line and applies them to a session.
// It is also the session's Notifier and Confirmer.
type shell struct {
	in      *bufio.Scanner
	mu      sync.Mutex
	out     io.Writer
	session *persistence.Adapter
}

func newShell(in io.Reader, out io.Writer) *shell {
	return &shell{in: bufio.NewScanner(in), out: out}
}

// Notify prints a notification. It is called from background writes too.
func (s *shell) Notify(n persistence.Notification) {
	s.printf("[%s] %s\n", n.Level, n.Message)
}

// Confirm asks on the output and reads the answer from the next input line
func (s *shell) Confirm(_ context.Context, prompt string) bool {
	s.printf("%s [y/N]: ", prompt)
	if !s.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(s.in.Text()))
	return answer == "y" || answer == "yes"
}

// Run executes commands until quit or end of input and waits for background writes
func (s *shell) Run(ctx context.Context) error {
	defer s.session.Wait()

	for {
		s.printf("> ")
		if !s.in.Scan() {
			s.printf("\n")
			return s.in.Err()
		}
		err := s.exec(ctx, s.in.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			s.printf("error: %v\n", err)
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "help":
		s.printf("%s", helpText)
	case "quit", "exit":
		return errQuit
	case "show":
		s.mu.Lock()
		printSnapshot(s.out, s.session.Snapshot())
		s.mu.Unlock()
	case "add-unit":
		after, err := s.optionalID(args, 0)
		if err != nil {
			return err
		}
		id := s.session.AddUnit(after)
		s.printf("added unit %s\n", id.Value())
	case "add-direct":
		after, err := s.optionalID(args, 0)
		if err != nil {
			return err
		}
		id := s.session.AddDirectLesson(after)
		s.printf("added lesson %s\n", id.Value())
	case "add-lesson":
		if len(args) < 1 {
			return usage("add-lesson <unitId> [afterId]")
		}
		ids, err := s.resolveAll(args[:1])
		if err != nil {
			return err
		}
		after, err := s.optionalID(args, 1)
		if err != nil {
			return err
		}
		id, ok := s.session.AddLessonToUnit(ids[0], after)
		if !ok {
			return fmt.Errorf("unit %s not found", args[0])
		}
		s.printf("added lesson %s\n", id.Value())
	case "set-unit":
		if len(args) < 3 {
			return usage("set-unit <unitId> <field> <value>")
		}
		ids, err := s.resolveAll(args[:1])
		if err != nil {
			return err
		}
		field, err := parseField(args[1], models.ValidUnitField)
		if err != nil {
			return err
		}
		s.session.UpdateUnit(ctx, ids[0], field, strings.Join(args[2:], " "))
	case "set-lesson":
		if len(args) < 4 {
			return usage("set-lesson <unitId> <lessonId> <field> <value>")
		}
		ids, err := s.resolveAll(args[:2])
		if err != nil {
			return err
		}
		field, err := parseField(args[2], models.ValidLessonField)
		if err != nil {
			return err
		}
		s.session.UpdateLessonInUnit(ctx, ids[0], ids[1], field, strings.Join(args[3:], " "))
	case "set-direct":
		if len(args) < 3 {
			return usage("set-direct <lessonId> <field> <value>")
		}
		ids, err := s.resolveAll(args[:1])
		if err != nil {
			return err
		}
		field, err := parseField(args[1], models.ValidLessonField)
		if err != nil {
			return err
		}
		s.session.UpdateDirectLesson(ctx, ids[0], field, strings.Join(args[2:], " "))
	case "rm-unit":
		if len(args) != 1 {
			return usage("rm-unit <unitId>")
		}
		ids, err := s.resolveAll(args)
		if err != nil {
			return err
		}
		s.reportDelete(s.session.DeleteUnit(ctx, ids[0]))
	case "rm-lesson":
		if len(args) != 2 {
			return usage("rm-lesson <unitId> <lessonId>")
		}
		ids, err := s.resolveAll(args)
		if err != nil {
			return err
		}
		s.reportDelete(s.session.DeleteLessonFromUnit(ctx, ids[0], ids[1]))
	case "rm-direct":
		if len(args) != 1 {
			return usage("rm-direct <lessonId>")
		}
		ids, err := s.resolveAll(args)
		if err != nil {
			return err
		}
		s.reportDelete(s.session.DeleteDirectLesson(ctx, ids[0]))
	case "move":
		if len(args) != 3 {
			return usage("move <scope> <from> <to>")
		}
		var unknown error
		scope, err := structure.ParseScope(args[0], func(raw string) identity.ID {
			id, err := s.resolve(raw)
			if err != nil {
				unknown = err
			}
			return id
		})
		if err != nil {
			return err
		}
		if unknown != nil {
			return unknown
		}
		from, err1 := strconv.Atoi(args[1])
		to, err2 := strconv.Atoi(args[2])
		if err1 != nil || err2 != nil {
			return usage("move <scope> <from> <to>")
		}
		if !s.session.Reorder(scope, from, to) {
			s.printf("nothing moved\n")
		}
	case "mode":
		if len(args) != 1 {
			return usage("mode <unified|legacy>")
		}
		t := models.StructureType(args[0])
		if !t.IsValid() {
			return fmt.Errorf("unknown structure type: %q", args[0])
		}
		s.session.SetStructureType(t)
	case "save":
		// Save reports its outcome through Notify
		_ = s.session.Save(ctx)
	default:
		return fmt.Errorf("unknown command %q, type \"help\"", cmd)
	}
	return nil
}

func (s *shell) reportDelete(deleted bool) {
	if deleted {
		s.printf("deleted\n")
	} else {
		s.printf("nothing deleted\n")
	}
}

func (s *shell) printf(format string, a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, a...)
}

func usage(u string) error {
	return fmt.Errorf("usage: %s", u)
}

// resolve turns an id typed by the user into the id the session stores for it.
// The id's text says nothing about whether the item was saved.
func (s *shell) resolve(raw string) (identity.ID, error) {
	id, ok := s.session.Lookup(raw)
	if !ok {
		return identity.ID{}, fmt.Errorf("unknown id %q", raw)
	}
	return id, nil
}

func (s *shell) resolveAll(raw []string) ([]identity.ID, error) {
	ids := make([]identity.ID, len(raw))
	for i, r := range raw {
		id, err := s.resolve(r)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (s *shell) optionalID(args []string, i int) (identity.ID, error) {
	if len(args) <= i {
		return identity.ID{}, nil
	}
	return s.resolve(args[i])
}

func parseField(raw string, valid func(models.Field) bool) (models.Field, error) {
	f := models.Field(raw)
	if !valid(f) {
		return "", fmt.Errorf("%w: %s", models.ErrInvalidField, raw)
	}
	return f, nil
}

func printSnapshot(w io.Writer, snap persistence.Snapshot) {
	fmt.Fprintf(w, "[%s]\n", snap.StructureType)
	if snap.StructureType == models.StructureTypeUnified {
		for i, it := range snap.Unified {
			switch it.Type {
			case models.ItemTypeUnit:
				printUnit(w, i, *it.Unit)
			case models.ItemTypeLesson:
				printLesson(w, "", i, *it.Lesson)
			}
		}
		return
	}

	fmt.Fprintln(w, "units:")
	for i, u := range snap.Units {
		printUnit(w, i, u)
	}
	fmt.Fprintln(w, "direct lessons:")
	for i, l := range snap.DirectLessons {
		printLesson(w, "", i, l)
	}
}

func printUnit(w io.Writer, i int, u models.Unit) {
	fmt.Fprintf(w, "%d. unit %s %q%s\n", i, u.ID.Value(), u.Title, unsaved(u.ID))
	for j, l := range u.Lessons {
		printLesson(w, "   ", j, l)
	}
}

func printLesson(w io.Writer, indent string, i int, l models.Lesson) {
	fmt.Fprintf(w, "%s%d. lesson %s %q%s\n", indent, i, l.ID.Value(), l.Title, unsaved(l.ID))
}

func unsaved(id identity.ID) string {
	if id.IsTemporary() {
		return " (unsaved)"
	}
	return ""
}
