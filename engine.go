package tagweaver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

func NewEngine(reg *Registry, opts ...func(*Engine)) *Engine {
	if reg == nil {
		reg = NewRegistry()
	}
	e := &Engine{reg: reg, random: RandomPerCall, log: zerolog.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

func WithRandomPolicy(p RandomPolicy) func(*Engine) {
	return func(e *Engine) { e.random = p }
}

// WithSeed makes random tag draws reproducible: every call starts from the
// same seed.
func WithSeed(seed uint64) func(*Engine) {
	return func(e *Engine) { e.seed, e.seeded = seed, true }
}

// WithGuardExpansion also expands names that only appear as conditional
// guards, provided the registry defines them. They take the required-tag
// values.
func WithGuardExpansion(on bool) func(*Engine) {
	return func(e *Engine) { e.expandGuards = on }
}

func WithLogger(l zerolog.Logger) func(*Engine) {
	return func(e *Engine) { e.log = l }
}

// Registry returns the registry the engine reads from.
func (e *Engine) Registry() *Registry { return e.reg }

// ===== Sink =====

// CombinationSink receives combinations as the generator finds them.
// Returning an error stops the walk; ErrStopWalk stops it without an error.
type CombinationSink interface {
	OnCombination(a Assignment) error
}

type CombinationSinkFunc func(a Assignment) error

func (f CombinationSinkFunc) OnCombination(a Assignment) error { return f(a) }

// ===== Operations =====

// Enumerate returns every complete assignment template can produce with the
// given toggles pre-seeded. The result is never empty.
func (e *Engine) Enumerate(template string, toggles Assignment) []Assignment {
	var out []Assignment
	_ = e.Walk(template, toggles, CombinationSinkFunc(func(a Assignment) error {
		out = append(out, a)
		return nil
	}))
	return out
}

// Count returns the number of combinations Enumerate would return.
func (e *Engine) Count(template string, toggles Assignment) int {
	n := 0
	_ = e.Walk(template, toggles, CombinationSinkFunc(func(Assignment) error {
		n++
		return nil
	}))
	return n
}

// Render produces the final prompt for one complete assignment.
func (e *Engine) Render(template string, a Assignment) string {
	return Render(template, a, Final)
}

// RenderFirst renders template with the first registry value of every tag it
// uses, on top of the given toggles.
func (e *Engine) RenderFirst(template string, toggles Assignment) string {
	a := toggles.Clone()
	for _, name := range Scan(template).Tags() {
		if _, ok := a[name]; !ok {
			a[name] = e.reg.First(name)
		}
	}
	return Render(template, a, Final)
}

// PreviewItem is one rendered combination.
type PreviewItem struct {
	Index      int // 1-based
	Assignment Assignment
	Label      string // name=value pairs, toggles excluded
	Prompt     string
}

// Preview holds the total combination count and up to a limit of rendered
// items.
type Preview struct {
	Total int
	Items []PreviewItem
}

// Truncated returns how many combinations were not rendered.
func (p Preview) Truncated() int { return p.Total - len(p.Items) }

// Preview renders the first limit combinations (all of them when limit <= 0)
// and counts the rest.
func (e *Engine) Preview(template string, toggles Assignment, limit int) Preview {
	order := Scan(template).Tags()
	var p Preview
	_ = e.Walk(template, toggles, CombinationSinkFunc(func(a Assignment) error {
		p.Total++
		if limit > 0 && len(p.Items) >= limit {
			return nil
		}
		p.Items = append(p.Items, PreviewItem{
			Index:      p.Total,
			Assignment: a,
			Label:      comboLabel(order, a, toggles),
			Prompt:     Render(template, a, Final),
		})
		return nil
	}))
	return p
}

func comboLabel(order []string, a, toggles Assignment) string {
	seen := map[string]bool{}
	var parts []string
	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if _, isToggle := toggles[name]; isToggle {
			return
		}
		v, ok := a[name]
		if !ok {
			return
		}
		if v == "" {
			v = "(empty)"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", name, v))
	}
	for _, name := range order {
		add(name)
	}
	rest := make([]string, 0, len(a))
	for name := range a {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name)
	}
	return strings.Join(parts, " | ")
}
