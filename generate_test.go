package tagweaver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emotionRegistry() *Registry {
	return NewRegistry().Define("emotion", Labeled("Happy", "smile"), Labeled("Sad", "tears"))
}

func Test_Enumerate(t *testing.T) {
	t.Run("should enumerate and render the round trip scenario", func(t *testing.T) {
		engine := NewEngine(emotionRegistry())
		tpl := "1girl, {{emotion}}"

		got := engine.Enumerate(tpl, Assignment{})
		assert.Equal(t, []Assignment{{"emotion": "smile"}, {"emotion": "tears"}}, got)
		assert.Equal(t, "1girl, smile", engine.Render(tpl, Assignment{"emotion": "smile"}))
	})

	t.Run("should return one empty assignment for a template without tags", func(t *testing.T) {
		engine := NewEngine(emotionRegistry())
		assert.Equal(t, []Assignment{{}}, engine.Enumerate("just text, {{#comment}}", nil))
	})

	t.Run("should produce the full product for independent required tags", func(t *testing.T) {
		reg := NewRegistry().
			DefinePlain("a", "1", "2").
			DefinePlain("b", "x", "y", "z").
			DefinePlain("c", "p", "q")
		got := NewEngine(reg).Enumerate("{{a}} {{b}} {{c}}", nil)

		require.Len(t, got, 12)
		assert.Equal(t, Assignment{"a": "1", "b": "x", "c": "p"}, got[0])
		assert.Equal(t, Assignment{"a": "1", "b": "x", "c": "q"}, got[1])
		assert.Equal(t, Assignment{"a": "2", "b": "z", "c": "q"}, got[11])
	})

	t.Run("should never expand tags of a branch pruned by a toggle", func(t *testing.T) {
		reg := NewRegistry().
			DefinePlain("a", "1", "2", "3", "4", "5").
			DefinePlain("b", "x", "y")
		engine := NewEngine(reg)
		tpl := "{{$if gate}}{{a}}{{$else}}{{b}}{{$endif}}"

		off := engine.Enumerate(tpl, Toggles(map[string]bool{"gate": false}))
		assert.Equal(t, []Assignment{{"gate": "", "b": "x"}, {"gate": "", "b": "y"}}, off)

		on := engine.Enumerate(tpl, Toggles(map[string]bool{"gate": true}))
		assert.Len(t, on, 5)
		for _, a := range on {
			assert.NotContains(t, a, "b")
		}
	})

	t.Run("should prune nested blocks under a closed gate", func(t *testing.T) {
		reg := NewRegistry().DefinePlain("x", "1", "2", "3")
		got := NewEngine(reg).Enumerate("{{$if g}}{{$if h}}{{x}}{{$endif}}{{$endif}}", Assignment{"g": ""})
		assert.Equal(t, []Assignment{{"g": ""}}, got)
	})

	t.Run("should add an empty branch for optional tags", func(t *testing.T) {
		reg := NewRegistry().DefinePlain("color", "red", "blue")
		got := NewEngine(reg).Enumerate("{{?color}}", nil)
		assert.Equal(t, []Assignment{{"color": ""}, {"color": "red"}, {"color": "blue"}}, got)
	})

	t.Run("should not duplicate an empty value already in the registry", func(t *testing.T) {
		reg := NewRegistry().DefinePlain("color", "red", "", "blue")
		got := NewEngine(reg).Enumerate("{{?color}}", nil)
		assert.Equal(t, []Assignment{{"color": "red"}, {"color": ""}, {"color": "blue"}}, got)
	})

	t.Run("should give undefined tags a single empty value", func(t *testing.T) {
		engine := NewEngine(NewRegistry().Define("outfit"))
		assert.Equal(t, []Assignment{{"a": ""}}, engine.Enumerate("{{a}}", nil))
		assert.Equal(t, []Assignment{{"b": ""}}, engine.Enumerate("{{?b}}", nil))

		tpl := "{{$if outfit}}dressed{{$else}}nude{{$endif}}"
		got := engine.Enumerate(tpl, nil)
		require.Len(t, got, 1)
		assert.Equal(t, "nude", engine.Render(tpl, got[0]))
	})

	t.Run("should expand guard variables before the tags they gate", func(t *testing.T) {
		reg := NewRegistry().
			DefinePlain("a", "1", "2").
			DefinePlain("mood", "happy", "sad").
			DefinePlain("tear", "t1", "t2", "t3")
		got := NewEngine(reg).Enumerate("{{a}} {{$if mood=sad}}{{tear}}{{$endif}} {{mood}}", nil)

		require.Len(t, got, 8)
		assert.Equal(t, Assignment{"mood": "happy", "a": "1"}, got[0])
		assert.Equal(t, Assignment{"mood": "happy", "a": "2"}, got[1])
		assert.Equal(t, Assignment{"mood": "sad", "a": "1", "tear": "t1"}, got[2])
		assert.Equal(t, Assignment{"mood": "sad", "a": "2", "tear": "t3"}, got[7])
	})

	t.Run("should use the strongest kind when a tag appears twice", func(t *testing.T) {
		reg := NewRegistry().DefinePlain("c", "red")
		engine := NewEngine(reg)
		tpl := "{{c}} {{?c}}"
		got := engine.Enumerate(tpl, nil)
		assert.Equal(t, []Assignment{{"c": ""}, {"c": "red"}}, got)
		assert.Equal(t, "red red", engine.Render(tpl, got[1]))
	})

	t.Run("should be deterministic without random tags", func(t *testing.T) {
		reg := NewRegistry().DefinePlain("a", "1", "2").DefinePlain("b", "x", "y")
		engine := NewEngine(reg)
		tpl := "{{$if b=x}}{{a}}{{$else}}{{?a}}{{$endif}}{{b}}"
		assert.Equal(t, engine.Enumerate(tpl, nil), engine.Enumerate(tpl, nil))
	})

	t.Run("should include and not mutate the pre-seeded toggles", func(t *testing.T) {
		reg := NewRegistry().DefinePlain("a", "1", "2")
		toggles := Assignment{"nsfw": "true"}
		got := NewEngine(reg).Enumerate("{{$toggle nsfw}}{{$if nsfw}}{{a}}{{$endif}}", toggles)

		assert.Equal(t, []Assignment{{"nsfw": "true", "a": "1"}, {"nsfw": "true", "a": "2"}}, got)
		assert.Equal(t, Assignment{"nsfw": "true"}, toggles)
	})

	t.Run("should leave guards that are not tags unexpanded by default", func(t *testing.T) {
		reg := NewRegistry().DefinePlain("pose", "standing", "sitting")
		tpl := "{{$if pose}}P{{$else}}N{{$endif}}"

		assert.Equal(t, []Assignment{{}}, NewEngine(reg).Enumerate(tpl, nil))

		got := NewEngine(reg, WithGuardExpansion(true)).Enumerate(tpl, nil)
		assert.Equal(t, []Assignment{{"pose": "standing"}, {"pose": "sitting"}}, got)
	})
}

func Test_Enumerate_Random(t *testing.T) {
	reg := NewRegistry().DefinePlain("r", "x", "y", "z").DefinePlain("c", "1", "2", "3")

	t.Run("should draw a random tag once per call", func(t *testing.T) {
		engine := NewEngine(reg, WithSeed(7))
		got := engine.Enumerate("{{c}} {{$if r=x}}X{{$endif}} {{r:random}}", nil)

		require.Len(t, got, 3)
		drawn := got[0]["r"]
		assert.Contains(t, []string{"x", "y", "z"}, drawn)
		for _, a := range got {
			assert.Equal(t, drawn, a["r"])
		}
	})

	t.Run("should repeat draws for the same seed", func(t *testing.T) {
		tpl := "{{c}} {{r:random}}"
		first := NewEngine(reg, WithSeed(99)).Enumerate(tpl, nil)
		second := NewEngine(reg, WithSeed(99)).Enumerate(tpl, nil)
		assert.Equal(t, first, second)
	})

	t.Run("should draw in every branch under the per-branch policy", func(t *testing.T) {
		engine := NewEngine(reg, WithSeed(3), WithRandomPolicy(RandomPerBranch))
		got := engine.Enumerate("{{c}} {{r:random}}", nil)

		require.Len(t, got, 3)
		for _, a := range got {
			assert.Contains(t, []string{"x", "y", "z"}, a["r"])
		}
	})
}

func Test_Walk(t *testing.T) {
	reg := NewRegistry().DefinePlain("a", "1", "2", "3", "4")
	engine := NewEngine(reg)

	t.Run("should stop cleanly on ErrStopWalk", func(t *testing.T) {
		var seen []Assignment
		err := engine.Walk("{{a}}", nil, CombinationSinkFunc(func(a Assignment) error {
			seen = append(seen, a)
			if len(seen) == 2 {
				return ErrStopWalk
			}
			return nil
		}))
		require.NoError(t, err)
		assert.Equal(t, []Assignment{{"a": "1"}, {"a": "2"}}, seen)
	})

	t.Run("should return other sink errors", func(t *testing.T) {
		boom := errors.New("boom")
		err := engine.Walk("{{a}}", nil, CombinationSinkFunc(func(Assignment) error { return boom }))
		assert.ErrorIs(t, err, boom)
	})
}
