package domain

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// LockOrder returns the distinct ids sorted ascending. Every locker acquires
// in this order so two transfers over the same pair cannot deadlock.
func LockOrder(ids ...uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(out)
}
