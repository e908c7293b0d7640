// Package identity provides identifiers for units and lessons that may or may not
// have been persisted yet.
package identity

// Kind tells whether an ID was synthesized locally or assigned by the backend
type Kind uint8

const (
	KindNone Kind = iota
	KindTemporary
	KindPersisted
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindTemporary:
		return "temporary"
	case KindPersisted:
		return "persisted"
	default:
		return "none"
	}
}

// ID identifies a unit or a lesson.
//
// An ID is either Temporary (created in an editing session, not saved yet) or Persisted
// (assigned by the backend). The value format carries no meaning: the kind is stored explicitly.
// The zero value is "no id" and is used by callers to say that an optional reference was not supplied.
type ID struct {
	kind  Kind
	value string
}

// Temporary wraps a client-side identifier
func Temporary(value string) ID {
	if value == "" {
		return ID{}
	}
	return ID{kind: KindTemporary, value: value}
}

// Persisted wraps a backend-assigned identifier
func Persisted(value string) ID {
	if value == "" {
		return ID{}
	}
	return ID{kind: KindPersisted, value: value}
}

// Value returns the raw identifier
func (id ID) Value() string {
	return id.value
}

// Kind returns the identifier kind
func (id ID) Kind() Kind {
	return id.kind
}

// IsZero reports whether the ID is empty
func (id ID) IsZero() bool {
	return id.kind == KindNone
}

// IsTemporary reports whether the ID has not been persisted yet
func (id ID) IsTemporary() bool {
	return id.kind == KindTemporary
}

// IsPersisted reports whether the ID was assigned by the backend
func (id ID) IsPersisted() bool {
	return id.kind == KindPersisted
}

// String implements fmt.Stringer
func (id ID) String() string {
	if id.IsZero() {
		return "<none>"
	}
	return id.kind.String() + ":" + id.value
}

// Fields is the wire form of an ID.
//
// Persisted identifiers travel in "id", temporary ones in "tempId".
type Fields struct {
	ID     string `json:"id,omitempty"`
	TempID string `json:"tempId,omitempty"`
}

// FieldsOf converts an ID to its wire form
func FieldsOf(id ID) Fields {
	switch id.kind {
	case KindPersisted:
		return Fields{ID: id.value}
	case KindTemporary:
		return Fields{TempID: id.value}
	default:
		return Fields{}
	}
}

// Resolve returns the ID carried by the wire fields.
// A persisted id wins; the temporary one is used only when the persisted one is absent.
func (f Fields) Resolve() ID {
	if f.ID != "" {
		return Persisted(f.ID)
	}
	return Temporary(f.TempID)
}
