package structure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is returned when the structure is not ready to be saved
var ErrValidation = errors.New("validation failed")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the structure can be saved: every unit and every lesson needs a title.
// The returned error wraps ErrValidation and names the offending items.
func (m *Model) Validate() error {
	var problems []string

	for i, u := range m.units {
		if err := validate.Var(u.Title, "required"); err != nil {
			problems = append(problems, fmt.Sprintf("unit %d (%s): title is required", i+1, u.ID))
		}
		for j, l := range u.Lessons {
			if err := validate.Struct(l); err != nil {
				problems = append(problems, describe(fmt.Sprintf("unit %d lesson %d (%s)", i+1, j+1, l.ID), err)...)
			}
		}
	}
	for i, l := range m.directLessons {
		if err := validate.Struct(l); err != nil {
			problems = append(problems, describe(fmt.Sprintf("lesson %d (%s)", i+1, l.ID), err)...)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func describe(prefix string, err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{prefix + ": " + err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s: %s is %s", prefix, strings.ToLower(fe.Field()), fe.Tag()))
	}
	return out
}
