// Package ds provides small generic data structures shared by the store packages.
package ds

import "fmt"

// Set is an insertion-ordered set. Iteration order is deterministic, which
// keeps diagnostics (such as lists of unhandled action variants) stable.
//
// Add and Remove mutate the receiver; Removals and Values return copies.
type Set[T comparable] struct {
	items map[T]struct{}
	order []T
}

// NewSet creates a set holding the given items in order.
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{items: make(map[T]struct{}, len(items)), order: make([]T, 0, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func (s *Set[T]) String() string { return fmt.Sprintf("%v", s.order) }

// Add inserts v and reports whether it was absent.
func (s *Set[T]) Add(v T) bool {
	if s.Contains(v) {
		return false
	}
	s.items[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

// Remove deletes v. O(n) in the set size.
func (s *Set[T]) Remove(v T) {
	if !s.Contains(v) {
		return
	}
	delete(s.items, v)
	for i, x := range s.order {
		if x == v {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether v is in the set.
func (s *Set[T]) Contains(v T) bool {
	_, ok := s.items[v]
	return ok
}

// Len returns the number of elements.
func (s *Set[T]) Len() int { return len(s.items) }

// Removals returns the elements of s that are not in other, in s's order.
func (s *Set[T]) Removals(other *Set[T]) *Set[T] {
	out := NewSet[T]()
	for _, v := range s.order {
		if !other.Contains(v) {
			out.Add(v)
		}
	}
	return out
}

// Values returns a copy of the elements in insertion order.
func (s *Set[T]) Values() []T {
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}
