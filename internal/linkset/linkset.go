// Package linkset computes the minimal add/remove delta between two sets of
// linked entity IDs. It is the reconciliation step behind every edit that
// rewrites a device's or schedule's tag links: instead of rebuilding the
// whole relationship, callers apply targeted reciprocal updates for just the
// IDs that changed.
package linkset

import (
	"sort"
	"strings"
)

// Diff returns the IDs to unlink (present before, absent from the request)
// and the IDs to link (absent before, present in the request).
//
// Both inputs are treated as sets: duplicates collapse, order is ignored.
// IDs are compared by canonical string form, so a short-hand reference and a
// fully hydrated one with the same underlying ID are the same element.
// The returned slices are sorted, never nil, and never overlap.
func Diff(previous, requested []string) (toUnlink, toLink []string) {
	prev := toSet(previous)
	req := toSet(requested)

	toUnlink = make([]string, 0, len(prev))
	for id := range prev {
		if _, ok := req[id]; !ok {
			toUnlink = append(toUnlink, id)
		}
	}

	toLink = make([]string, 0, len(req))
	for id := range req {
		if _, ok := prev[id]; !ok {
			toLink = append(toLink, id)
		}
	}

	sort.Strings(toUnlink)
	sort.Strings(toLink)
	return toUnlink, toLink
}

// Normalize collapses duplicates and returns the canonical, sorted form of a
// link list. Edits store this form so that repeated reads diff cleanly.
func Normalize(ids []string) []string {
	set := toSet(ids)
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Contains reports whether the canonical form of id is in the list.
func Contains(ids []string, id string) bool {
	id = Canonical(id)
	for _, candidate := range ids {
		if Canonical(candidate) == id {
			return true
		}
	}
	return false
}

// Add returns the list with id included, preserving set semantics. The
// result is in canonical sorted form.
func Add(ids []string, id string) []string {
	return Normalize(append(append([]string{}, ids...), id))
}

// Remove returns the list without id, in canonical sorted form.
func Remove(ids []string, id string) []string {
	id = Canonical(id)
	set := toSet(ids)
	delete(set, id)
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Canonical returns the comparison form of an ID.
func Canonical(id string) string {
	return strings.TrimSpace(id)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if c := Canonical(id); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}
