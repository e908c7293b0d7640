// Package ordering implements positional insert and reorder for every ordered list of a
// course structure: units, lessons inside a unit, direct lessons and the unified sequence.
//
// Every operation returns a new slice and assigns each element its 0-based position as order.
package ordering

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// NoDestination is passed as the destination index when a drag ended outside any valid target
const NoDestination = -1

var (
	// ErrPositionOutOfRange is returned when a source or destination index is outside the list
	ErrPositionOutOfRange = errors.New("position out of range")
)

// Setter stores the order of an element
type Setter[T any] func(item *T, order int)

// Renumber assigns every element its index as order, in place
func Renumber[T any](items []T, set Setter[T]) {
	for i := range items {
		set(&items[i], i)
	}
}

// Move removes the element at from and inserts it at to, then renumbers the list.
//
// This is an array move, not a swap. A destination of NoDestination leaves the list untouched.
func Move[T any](items []T, from, to int, set Setter[T]) ([]T, error) {
	out := slices.Clone(items)
	if to == NoDestination {
		return out, nil
	}
	if from < 0 || from >= len(items) {
		return nil, fmt.Errorf("%w: source %d, length %d", ErrPositionOutOfRange, from, len(items))
	}
	if to < 0 || to >= len(items) {
		return nil, fmt.Errorf("%w: destination %d, length %d", ErrPositionOutOfRange, to, len(items))
	}

	moving := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, moving)
	Renumber(out, set)
	return out, nil
}

// InsertAfter places item right after the first element matching after, or at the end when
// nothing matches (or after is nil). It returns the new list and the index of the inserted item.
func InsertAfter[T any](items []T, item T, after func(T) bool, set Setter[T]) ([]T, int) {
	idx := len(items)
	if after != nil {
		if i := IndexOf(items, after); i >= 0 {
			idx = i + 1
		}
	}

	out := make([]T, 0, len(items)+1)
	out = append(out, items[:idx]...)
	out = append(out, item)
	out = append(out, items[idx:]...)
	Renumber(out, set)
	return out, idx
}

// IndexOf returns the index of the first element matching match, or -1
func IndexOf[T any](items []T, match func(T) bool) int {
	return slices.IndexFunc(items, match)
}

// SortStable sorts by order key ascending. Elements with equal keys keep their relative array position.
func SortStable[T any](items []T, key func(T) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}

// MoveWithinSlots reorders the elements of items that satisfy member, as if they formed their own
// list, while the positions they occupy in items stay reserved for them. Non-members keep their
// index. from and to are indexes in the member subsequence. The whole list is renumbered.
func MoveWithinSlots[T any](items []T, member func(T) bool, from, to int, set Setter[T]) ([]T, error) {
	if to == NoDestination {
		return slices.Clone(items), nil
	}

	var slots []int
	var members []T
	for i, it := range items {
		if member(it) {
			slots = append(slots, i)
			members = append(members, it)
		}
	}

	moved, err := Move(members, from, to, func(*T, int) {})
	if err != nil {
		return nil, err
	}

	out := slices.Clone(items)
	for i, slot := range slots {
		out[slot] = moved[i]
	}
	Renumber(out, set)
	return out, nil
}
