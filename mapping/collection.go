package mapping

import "slices"

// namedSet is an insertion-ordered set of values indexed by a string key.
// It is the storage behind the exported definition collections.
type namedSet[T any] struct {
	items    []T
	index    map[string]T
	readOnly bool
}

func (s *namedSet[T]) add(key string, v T) bool {
	if s.index == nil {
		s.index = make(map[string]T)
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = v
	s.items = append(s.items, v)
	return true
}

func (s *namedSet[T]) get(key string) (T, bool) {
	v, ok := s.index[key]
	return v, ok
}

func (s *namedSet[T]) values() []T {
	return slices.Clone(s.items)
}

func (s *namedSet[T]) len() int {
	return len(s.items)
}
