package structure

import (
	"fmt"
	"strings"

	"github.com/learnhub/backend/internal/identity"
)

// ScopeKind names an ordered list of the structure
type ScopeKind uint8

const (
	ScopeUnified ScopeKind = iota + 1
	ScopeUnits
	ScopeDirectLessons
	ScopeUnitLessons
)

// Scope identifies the list a reorder applies to
type Scope struct {
	Kind   ScopeKind
	UnitID identity.ID
}

// UnifiedScope is the mixed sequence of units and direct lessons
func UnifiedScope() Scope { return Scope{Kind: ScopeUnified} }

// UnitsScope is the list of units
func UnitsScope() Scope { return Scope{Kind: ScopeUnits} }

// DirectLessonsScope is the list of direct lessons
func DirectLessonsScope() Scope { return Scope{Kind: ScopeDirectLessons} }

// UnitLessonsScope is the lesson list of one unit
func UnitLessonsScope(unitID identity.ID) Scope {
	return Scope{Kind: ScopeUnitLessons, UnitID: unitID}
}

// String returns the textual form accepted by ParseScope
func (s Scope) String() string {
	switch s.Kind {
	case ScopeUnified:
		return "unified"
	case ScopeUnits:
		return "units"
	case ScopeDirectLessons:
		return "direct"
	case ScopeUnitLessons:
		return "unit:" + s.UnitID.Value()
	}
	return "unknown"
}

// ParseScope parses "unified", "units", "direct" or "unit:<id>".
// resolve turns the raw unit id into an ID known by the model.
func ParseScope(s string, resolve func(string) identity.ID) (Scope, error) {
	switch s {
	case "unified":
		return UnifiedScope(), nil
	case "units":
		return UnitsScope(), nil
	case "direct":
		return DirectLessonsScope(), nil
	}
	if raw, ok := strings.CutPrefix(s, "unit:"); ok && raw != "" {
		return UnitLessonsScope(resolve(raw)), nil
	}
	return Scope{}, fmt.Errorf("invalid scope: %q", s)
}
