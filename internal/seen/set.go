// Package seen tracks which listing links a monitor has already reported.
//
// A [Set] is an insertion-ordered set of links. A [Store] persists one Set
// per monitor as a JSON array in a kvstore backend, keeping only the newest
// entries.
package seen

// Set is an ordered set of listing links. The zero value is empty and ready
// to use. A Set is not safe for concurrent use.
type Set struct {
	links []string
	index map[string]struct{}
}

// NewSet builds a set from links, dropping duplicates and keeping the first
// occurrence of each.
func NewSet(links ...string) *Set {
	s := &Set{}
	for _, l := range links {
		s.Add(l)
	}
	return s
}

// Contains reports whether link is in the set.
func (s *Set) Contains(link string) bool {
	if s == nil || s.index == nil {
		return false
	}
	_, ok := s.index[link]
	return ok
}

// Add appends link. Adding a link already present changes nothing,
// including its position.
func (s *Set) Add(link string) {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[link]; ok {
		return
	}
	s.index[link] = struct{}{}
	s.links = append(s.links, link)
}

// Len returns the number of links.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.links)
}

// Links returns a copy of the links, oldest first.
func (s *Set) Links() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.links...)
}

// Truncate keeps only the newest max links. A non-positive max is a no-op.
func (s *Set) Truncate(max int) {
	if max <= 0 || len(s.links) <= max {
		return
	}
	drop := s.links[:len(s.links)-max]
	for _, l := range drop {
		delete(s.index, l)
	}
	s.links = append([]string(nil), s.links[len(s.links)-max:]...)
}
