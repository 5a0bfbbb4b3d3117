package tagweaver

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

// Walk streams every complete assignment of template to sink, in the same
// order Enumerate returns them. toggles pre-seed the search and are never
// expanded. A sink error stops the walk and is returned, except ErrStopWalk,
// which stops it and returns nil.
func (e *Engine) Walk(template string, toggles Assignment, sink CombinationSink) error {
	start := time.Now()
	w := &walker{
		engine:   e,
		template: template,
		sink:     sink,
		rng:      e.newRand(),
		draws:    map[string]string{},
		log:      e.log,
	}
	e.log.Debug().
		Int("template_len", len(template)).
		Int("seeded", len(toggles)).
		Str("random", e.random.String()).
		Msg("Enumeration started")

	err := w.search(toggles.Clone(), 0)
	if errors.Is(err, ErrStopWalk) {
		err = nil
	}

	e.log.Debug().
		Int("combinations", w.emitted).
		Int("expansions", w.expansions).
		Dur("duration", time.Since(start)).
		Msg("Enumeration completed")
	return err
}

func (e *Engine) newRand() *rand.Rand {
	if e.seeded {
		return rand.New(rand.NewPCG(e.seed, e.seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// walker is the state of one Walk call. Nothing in it outlives the call.
type walker struct {
	engine   *Engine
	template string
	sink     CombinationSink
	rng      *rand.Rand
	draws    map[string]string // per-call random draws
	log      zerolog.Logger

	emitted    int
	expansions int
}

// search renders the template partially under a, picks the next unassigned
// tag and recurses once per candidate value. Each step assigns one more tag
// that is still visible, so the recursion ends.
func (w *walker) search(a Assignment, depth int) error {
	effective := Render(w.template, a, Partial)
	set := Scan(effective)
	guards := set.Guards()

	pending := unassigned(set.Tags(), a)
	if w.engine.expandGuards {
		for _, g := range unassigned(guards, a) {
			if w.engine.reg.Has(g) && !contains(pending, g) {
				pending = append(pending, g)
			}
		}
	}
	if len(pending) == 0 {
		w.emitted++
		return w.sink.OnCombination(a)
	}

	name := nextTag(pending, guards)
	kind, ok := set.Kind(name)
	if !ok {
		kind = Required
	}
	values := w.candidates(name, kind)
	w.expansions++
	w.log.Trace().
		Str("tag", name).
		Str("kind", kind.String()).
		Int("candidates", len(values)).
		Int("depth", depth).
		Msg("Expanding tag")

	for _, v := range values {
		if err := w.search(a.With(name, v), depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nextTag prefers a pending tag that guards a visible conditional, so dead
// branches are pruned before the tags inside them are ever discovered.
func nextTag(pending, guards []string) string {
	for _, name := range pending {
		if contains(guards, name) {
			return name
		}
	}
	return pending[0]
}

// candidates lists the values to branch on for one tag.
func (w *walker) candidates(name string, kind TagKind) []string {
	values := w.engine.reg.Values(name)
	switch kind {
	case Optional:
		if contains(values, "") {
			return values
		}
		return append([]string{""}, values...)
	case Random:
		if w.engine.random == RandomPerCall {
			if v, ok := w.draws[name]; ok {
				return []string{v}
			}
		}
		v := values[w.rng.IntN(len(values))]
		w.draws[name] = v
		return []string{v}
	}
	return values
}

func unassigned(names []string, a Assignment) []string {
	var out []string
	for _, n := range names {
		if _, ok := a[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
