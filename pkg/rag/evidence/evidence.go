package evidence

import (
	"fmt"
)

// Passage is a single retrieved chunk of the active document.
type Passage struct {
	ID       int                    `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Page returns the page number carried in the passage metadata, or 0.
func (p Passage) Page() int {
	switch v := p.Metadata["page"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Set is the ordered, read-only collection of passages retrieved for one query.
// Order is retrieval rank.
type Set struct {
	passages []Passage
	index    map[int]int
}

// ErrDuplicateID is returned when two passages of one set share an identifier
type ErrDuplicateID struct {
	ID int
}

func (e ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate evidence id %d", e.ID)
}

// NewSet copies passages into a new set. Identifiers must be unique.
func NewSet(passages []Passage) (*Set, error) {
	s := &Set{
		passages: make([]Passage, len(passages)),
		index:    make(map[int]int, len(passages)),
	}
	for i, p := range passages {
		if _, dup := s.index[p.ID]; dup {
			return nil, ErrDuplicateID{ID: p.ID}
		}
		s.index[p.ID] = i
		s.passages[i] = p.Clone()
	}
	return s, nil
}

// MustSet is NewSet for fixtures with known-unique ids.
func MustSet(passages ...Passage) *Set {
	s, err := NewSet(passages)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup finds a passage by identifier.
func (s *Set) Lookup(id int) (Passage, bool) {
	if s == nil {
		return Passage{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return Passage{}, false
	}
	return s.passages[i].Clone(), true
}

// Rank returns the 0-based retrieval rank of id, or -1.
func (s *Set) Rank(id int) int {
	if s == nil {
		return -1
	}
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.passages)
}

// Passages returns a copy of the passages in retrieval order.
func (s *Set) Passages() []Passage {
	if s == nil {
		return []Passage{}
	}
	out := make([]Passage, len(s.passages))
	for i, p := range s.passages {
		out[i] = p.Clone()
	}
	return out
}

// Clone copies the passage including its metadata map.
func (p Passage) Clone() Passage {
	if p.Metadata == nil {
		return p
	}
	md := make(map[string]interface{}, len(p.Metadata))
	for k, v := range p.Metadata {
		md[k] = v
	}
	p.Metadata = md
	return p
}
