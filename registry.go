package tagweaver

import "sort"

// Entry is one value of a tag. Entries come in two shapes: a plain value, or a
// value carrying a display label. The engine only ever looks at Value.
type Entry struct {
	Label   string
	Value   string
	labeled bool
}

// Plain returns an unlabeled entry.
func Plain(value string) Entry {
	return Entry{Label: value, Value: value}
}

// Labeled returns an entry whose Label is shown to users and whose Value is
// substituted into prompts.
func Labeled(label, value string) Entry {
	return Entry{Label: label, Value: value, labeled: true}
}

// IsLabeled reports whether the entry was built with an explicit label.
func (e Entry) IsLabeled() bool { return e.labeled }

// Registry maps tag names to their ordered entries.
// It is read-only for the engine; callers must not mutate it during a call.
type Registry struct {
	byName map[string][]Entry
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string][]Entry{}}
}

// Define sets the entries of a tag, replacing any previous definition.
// Returns the registry so definitions can be chained.
func (r *Registry) Define(name string, entries ...Entry) *Registry {
	if _, ok := r.byName[name]; !ok {
		r.order = append(r.order, name)
	}
	r.byName[name] = append([]Entry(nil), entries...)
	return r
}

// DefinePlain is Define for a list of unlabeled values.
func (r *Registry) DefinePlain(name string, values ...string) *Registry {
	entries := make([]Entry, 0, len(values))
	for _, v := range values {
		entries = append(entries, Plain(v))
	}
	return r.Define(name, entries...)
}

// Has reports whether the tag is defined, even with zero entries.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byName[name]
	return ok
}

// Entries returns a copy of the tag's entries.
func (r *Registry) Entries(name string) []Entry {
	if r == nil {
		return nil
	}
	return append([]Entry(nil), r.byName[name]...)
}

// Values returns the normalized values of a tag in insertion order.
// Undefined tags and tags without entries yield a single empty value.
func (r *Registry) Values(name string) []string {
	if r == nil || len(r.byName[name]) == 0 {
		return []string{""}
	}
	entries := r.byName[name]
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out
}

// First returns the first value of a tag, or "" when it has none.
func (r *Registry) First(name string) string {
	return r.Values(name)[0]
}

// Names returns the defined tag names in definition order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// SortedNames returns the defined tag names alphabetically.
func (r *Registry) SortedNames() []string {
	names := r.Names()
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
