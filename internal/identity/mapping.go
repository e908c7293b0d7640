package identity

// Pair links a temporary id to the persisted id the backend assigned to it
type Pair struct {
	TempID string `json:"tempId"`
	ID     string `json:"id"`
}

// Mapping replaces temporary ids by persisted ones after a save
type Mapping map[ID]ID

// NewMapping builds a mapping from backend pairs. Incomplete pairs are skipped.
func NewMapping(pairs []Pair) Mapping {
	m := make(Mapping, len(pairs))
	for _, p := range pairs {
		if p.TempID == "" || p.ID == "" {
			continue
		}
		m[Temporary(p.TempID)] = Persisted(p.ID)
	}
	return m
}

// Add records that temp was persisted as persisted
func (m Mapping) Add(temp, persisted ID) {
	m[temp] = persisted
}

// Resolve returns the persisted replacement of id, or id itself when there is none
func (m Mapping) Resolve(id ID) ID {
	if next, ok := m[id]; ok {
		return next
	}
	return id
}

// Pairs returns the mapping in wire form
func (m Mapping) Pairs() []Pair {
	pairs := make([]Pair, 0, len(m))
	for temp, persisted := range m {
		pairs = append(pairs, Pair{TempID: temp.Value(), ID: persisted.Value()})
	}
	return pairs
}
