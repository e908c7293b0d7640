package identity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Generator synthesizes temporary identifiers.
//
// Every ID combines a nanosecond timestamp with a random suffix, so ids created in the
// same clock tick still differ.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a generator using the wall clock
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorWithClock creates a generator using the given clock
func NewGeneratorWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// New returns a fresh temporary ID
func (g *Generator) New() ID {
	ts := strconv.FormatInt(g.now().UnixNano(), 36)
	suffix := uuid.NewString()[:8]
	return Temporary(ts + "-" + suffix)
}
