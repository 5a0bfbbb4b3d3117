package tagweaver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Tokenize(t *testing.T) {
	t.Run("should classify every token family", func(t *testing.T) {
		input := "Hi {{name}}, {{?opt}} {{r:random}}{{$toggle t}}{{#note}}{{$if a}}x{{$else}}y{{$endif}}{{ bad }}"
		tokens := Tokenize(input)

		kinds := make([]TokenKind, 0, len(tokens))
		for _, tok := range tokens {
			kinds = append(kinds, tok.Kind)
		}
		assert.Equal(t, []TokenKind{
			TokenLiteral, TokenTag, TokenLiteral, TokenTag, TokenLiteral, TokenTag,
			TokenToggle, TokenComment, TokenIf, TokenLiteral, TokenElse, TokenLiteral,
			TokenEndIf, TokenLiteral,
		}, kinds)

		assert.Equal(t, "name", tokens[1].Name)
		assert.Equal(t, Required, tokens[1].TagKind)
		assert.Equal(t, Optional, tokens[3].TagKind)
		assert.Equal(t, Random, tokens[5].TagKind)
		assert.Equal(t, "r", tokens[5].Name)
		assert.Equal(t, "t", tokens[6].Name)
		assert.Equal(t, "a", tokens[8].Cond)
		assert.Equal(t, "{{ bad }}", tokens[13].Raw)
	})

	t.Run("should keep raw text so tokens concatenate back to the input", func(t *testing.T) {
		input := "a {{b}} {{$if c=d}}e{{$endif}} {f} }} {{"
		var sb strings.Builder
		for _, tok := range Tokenize(input) {
			assert.Equal(t, tok.Raw, input[tok.Start:tok.End])
			sb.WriteString(tok.Raw)
		}
		assert.Equal(t, input, sb.String())
	})

	t.Run("should trim the condition of an if token", func(t *testing.T) {
		tokens := Tokenize("{{$if   a = b }}")
		require.Len(t, tokens, 1)
		assert.Equal(t, TokenIf, tokens[0].Kind)
		assert.Equal(t, "a = b", tokens[0].Cond)
	})

	t.Run("should treat unknown control tokens as malformed literals", func(t *testing.T) {
		for _, raw := range []string{"{{$if}}", "{{$iff x}}", "{{$toggle}}", "{{$elseif x}}"} {
			tokens := Tokenize(raw)
			require.Len(t, tokens, 1, raw)
			assert.Equal(t, TokenLiteral, tokens[0].Kind, raw)
			assert.True(t, tokens[0].malformed, raw)
		}
	})

	t.Run("should accept non-ascii tag names", func(t *testing.T) {
		tokens := Tokenize("{{표정}}")
		require.Len(t, tokens, 1)
		assert.Equal(t, TokenTag, tokens[0].Kind)
		assert.Equal(t, "표정", tokens[0].Name)
	})
}

func Test_Scan(t *testing.T) {
	t.Run("should report names per kind in first-appearance order", func(t *testing.T) {
		set := Scan("{{b}} {{a}} {{?c}} {{d:random}} {{b}} {{$toggle nsfw}} {{$if nsfw}}{{e}}{{$endif}} {{$if a=x}}{{$endif}}")
		assert.Equal(t, []string{"b", "a", "e"}, set.Required)
		assert.Equal(t, []string{"c"}, set.Optional)
		assert.Equal(t, []string{"d"}, set.Random)
		assert.Equal(t, []string{"nsfw"}, set.Toggles)
		assert.Equal(t, []string{"nsfw", "a=x"}, set.Conditions)
		assert.Equal(t, []string{"b", "a", "c", "d", "e"}, set.Tags())
		assert.Equal(t, []string{"nsfw", "a"}, set.Guards())
	})

	t.Run("should resolve a name used under several kinds", func(t *testing.T) {
		set := Scan("{{a}}{{a}}{{?a}} {{b:random}}{{?b}}")
		assert.Equal(t, []string{"a"}, set.Required)
		assert.Equal(t, []string{"a", "b"}, set.Optional)

		kind, ok := set.Kind("a")
		require.True(t, ok)
		assert.Equal(t, Optional, kind)

		kind, ok = set.Kind("b")
		require.True(t, ok)
		assert.Equal(t, Random, kind)

		_, ok = set.Kind("missing")
		assert.False(t, ok)
	})

	t.Run("should not treat toggles as tags", func(t *testing.T) {
		set := Scan("{{$toggle t}}")
		assert.Empty(t, set.Tags())
		assert.Equal(t, []string{"t"}, set.Toggles)
	})
}

func Test_ConditionVars(t *testing.T) {
	tests := []struct {
		cond string
		want []string
	}{
		{"a", []string{"a"}},
		{"!a", []string{"a"}},
		{"a=x", []string{"a"}},
		{"a != x y", []string{"a"}},
		{"a && !b || c=d || e != f", []string{"a", "b", "c", "e"}},
		{"a || a=b", []string{"a"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			assert.Equal(t, tt.want, ConditionVars(tt.cond))
		})
	}
}
