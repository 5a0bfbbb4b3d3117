package tagweaver

import "strings"

// Assignment maps variable names to chosen values. Engine calls never mutate
// an assignment they are given.
type Assignment map[string]string

// With returns a copy of a extended with name=value; a is left untouched.
func (a Assignment) With(name, value string) Assignment {
	out := make(Assignment, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[name] = value
	return out
}

// Clone returns a shallow copy, never nil.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge returns a copy of a overlaid with every entry of b.
func (a Assignment) Merge(b Assignment) Assignment {
	out := a.Clone()
	for k, v := range b {
		out[k] = v
	}
	return out
}

// ToggleValue is the string a boolean toggle is seeded with. An off toggle is
// empty so it fails a bare {{$if name}} test.
func ToggleValue(on bool) string {
	if on {
		return "true"
	}
	return ""
}

// Toggles builds the pre-seeded assignment for a set of boolean toggles.
func Toggles(flags map[string]bool) Assignment {
	out := make(Assignment, len(flags))
	for name, on := range flags {
		out[name] = ToggleValue(on)
	}
	return out
}

// JoinFragments trims each prompt fragment, drops the empty ones and joins the
// rest with ", ".
func JoinFragments(fragments ...string) string {
	return JoinFragmentsSep(", ", fragments...)
}

// JoinFragmentsSep is JoinFragments with a custom separator.
func JoinFragmentsSep(sep string, fragments ...string) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, sep)
}
