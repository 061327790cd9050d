package services

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"
)

// RemovedSuffix tags fields that existed in the previous document but are
// absent from the new one. The suffix is part of the persisted history
// format; renderers match on it to show "X removed" vs "X changed".
const RemovedSuffix = " (removed)"

// ChangedFields compares two flat settings documents and returns the field
// names that were added, changed, or removed. old may be nil (first ever
// write): every key in new is then reported as added.
//
// Value inequality is structural: both sides are canonicalized through JSON
// so that e.g. []any{"a"} and a re-decoded copy of it compare equal. Added
// and changed keys come first (sorted), removed keys after (sorted, tagged
// with RemovedSuffix). Callers must not rely on ordering for correctness.
func ChangedFields(oldDoc, newDoc map[string]any) []string {
	changed := []string{}

	for key, newVal := range newDoc {
		oldVal, ok := oldDoc[key]
		if !ok {
			changed = append(changed, key)
			continue
		}
		if canonical(oldVal) != canonical(newVal) {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)

	removed := []string{}
	for key := range oldDoc {
		if _, ok := newDoc[key]; !ok {
			removed = append(removed, key+RemovedSuffix)
		}
	}
	sort.Strings(removed)

	return append(changed, removed...)
}

// canonical renders a value in a stable textual form for comparison.
func canonical(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		// non-marshalable values fall back to best-effort equality
		return "?"
	}
	return string(b)
}

// DisplayFields drops numeric-index artifacts (keys like "3" or
// "3 (removed)") that appear when a client stored an array as a mapping.
// The engine reports raw key differences; filtering is a display concern.
func DisplayFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		name := strings.TrimSuffix(f, RemovedSuffix)
		if name != "" && isDigits(name) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
