package vector

import (
	"fmt"
	"maps"
	"slices"
)

// Filter is a conjunction of metadata conditions. A document matches when
// every Equal key is present with the given value and no NotEqual key holds
// the given value.
type Filter struct {
	Equal    map[string]string
	NotEqual map[string]string
}

// Where returns a filter with a single equality condition.
func Where(key, value string) Filter {
	return Filter{}.And(key, value)
}

// And returns a copy of f with an added equality condition.
func (f Filter) And(key, value string) Filter {
	out := f.clone()
	if out.Equal == nil {
		out.Equal = map[string]string{}
	}
	out.Equal[key] = value
	return out
}

// Not returns a copy of f with an added inequality condition.
func (f Filter) Not(key, value string) Filter {
	out := f.clone()
	if out.NotEqual == nil {
		out.NotEqual = map[string]string{}
	}
	out.NotEqual[key] = value
	return out
}

// IsEmpty reports whether f has no conditions and would match everything.
func (f Filter) IsEmpty() bool {
	return len(f.Equal) == 0 && len(f.NotEqual) == 0
}

// Matches reports whether metadata satisfies f.
func (f Filter) Matches(metadata map[string]string) bool {
	for k, v := range f.Equal {
		if got, ok := metadata[k]; !ok || got != v {
			return false
		}
	}
	for k, v := range f.NotEqual {
		if got, ok := metadata[k]; ok && got == v {
			return false
		}
	}
	return true
}

// Validate checks that all keys are usable by every driver.
func (f Filter) Validate() error {
	for _, m := range []map[string]string{f.Equal, f.NotEqual} {
		for k := range m {
			if !metadataKeyPattern.MatchString(k) {
				return fmt.Errorf("invalid filter key %q", k)
			}
		}
	}
	return nil
}

// EqualKeys returns the equality keys in sorted order so drivers build
// deterministic queries.
func (f Filter) EqualKeys() []string {
	return slices.Sorted(maps.Keys(f.Equal))
}

// NotEqualKeys returns the inequality keys in sorted order.
func (f Filter) NotEqualKeys() []string {
	return slices.Sorted(maps.Keys(f.NotEqual))
}

func (f Filter) String() string {
	return fmt.Sprintf("eq=%v ne=%v", f.Equal, f.NotEqual)
}

func (f Filter) clone() Filter {
	return Filter{
		Equal:    maps.Clone(f.Equal),
		NotEqual: maps.Clone(f.NotEqual),
	}
}
