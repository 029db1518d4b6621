// Package views computes read-only projections over live collection mirrors.
// Everything here is a pure function of its inputs.
package views

import (
	"strings"

	"github.com/loga-alumni/portal/internal/core/domain"
)

// All disables a tag filter.
const All = "all"

// FilterByTag keeps items whose tag equals selected. An empty selection or
// All keeps everything.
func FilterByTag[T any, K ~string](items []T, selected string, tag func(T) K) []T {
	if selected == "" || selected == All {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if string(tag(it)) == selected {
			out = append(out, it)
		}
	}
	return out
}

// Owned is any document with a single owning account.
type Owned interface {
	OwnerID() string
}

// Entry pairs a document with whether the current actor may edit or delete it.
type Entry[T any] struct {
	Doc       T    `json:"doc"`
	CanModify bool `json:"can_modify"`
}

func Annotate[T Owned](items []T, actor domain.Actor) []Entry[T] {
	out := make([]Entry[T], len(items))
	for i, it := range items {
		out[i] = Entry[T]{Doc: it, CanModify: actor.CanModify(it.OwnerID())}
	}
	return out
}

// SearchIdentities matches q case-insensitively against name, email and year group.
func SearchIdentities(items []domain.Identity, q string) []domain.Identity {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return items
	}
	out := make([]domain.Identity, 0, len(items))
	for _, id := range items {
		if strings.Contains(strings.ToLower(id.Name), q) ||
			strings.Contains(strings.ToLower(id.Email), q) ||
			strings.Contains(strings.ToLower(id.YearGroup), q) {
			out = append(out, id)
		}
	}
	return out
}
