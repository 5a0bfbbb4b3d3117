package tagweaver

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Lint(t *testing.T) {
	t.Run("should find nothing in a well formed template", func(t *testing.T) {
		assert.Empty(t, Lint("{{a}} {{$if b}}{{?c}}{{$else}}{{d:random}}{{$endif}} {{#note}}"))
	})

	t.Run("should report an unclosed block with its position", func(t *testing.T) {
		errs := Lint("1girl,\n{{$if nsfw}} open")
		require.Len(t, errs, 1)

		var uErr *UnclosedBlockError
		require.True(t, errors.As(errs[0], &uErr))
		assert.Equal(t, "nsfw", uErr.Cond)
		assert.Equal(t, Position{Line: 2, Column: 1}, uErr.Pos)
		assert.Contains(t, uErr.Context, "-> 2: {{$if nsfw}} open")
		assert.Contains(t, uErr.Error(), "has no matching {{$endif}}")
	})

	t.Run("should report stray and duplicate branch tokens", func(t *testing.T) {
		errs := Lint("a {{$endif}} {{$if x}}A{{$else}}B{{$else}}C{{$endif}}")
		require.Len(t, errs, 2)

		var stray *UnmatchedTagError
		require.True(t, errors.As(errs[0], &stray))
		assert.Equal(t, "{{$endif}}", stray.Raw)
		assert.Equal(t, Position{Line: 1, Column: 3}, stray.Pos)

		var dup *UnmatchedTagError
		require.True(t, errors.As(errs[1], &dup))
		assert.Equal(t, "{{$else}}", dup.Raw)
		assert.Contains(t, dup.Message, "already has")
	})

	t.Run("should report malformed control tokens", func(t *testing.T) {
		errs := Lint("{{$iff x}}")
		require.Len(t, errs, 1)
		var mErr *MalformedTagError
		require.True(t, errors.As(errs[0], &mErr))
		assert.Equal(t, "{{$iff x}}", mErr.Raw)
	})

	t.Run("should list diagnostics in text order", func(t *testing.T) {
		errs := Lint("{{$if a}}x {{$bogus}}")
		require.Len(t, errs, 2)
		assert.IsType(t, &UnclosedBlockError{}, errs[0])
		assert.IsType(t, &MalformedTagError{}, errs[1])
	})
}

func Test_ExtractContext(t *testing.T) {
	content := strings.Join([]string{"one", "two", "three", "four", "five", "six"}, "\n")

	t.Run("should mark the error line and column", func(t *testing.T) {
		ctx := extractContext(content, Position{Line: 4, Column: 2})
		assert.Equal(t, "   2: two\n   3: three\n-> 4: four\n       ^\n   5: five\n   6: six\n", ctx)
	})

	t.Run("should fall back to the whole content when out of range", func(t *testing.T) {
		assert.Equal(t, content, extractContext(content, Position{Line: 40, Column: 1}))
	})

	t.Run("should return nothing for empty content", func(t *testing.T) {
		assert.Equal(t, "", extractContext("", Position{Line: 1, Column: 1}))
	})
}

func Test_PositionAt(t *testing.T) {
	text := "ab\ncd\n"
	assert.Equal(t, Position{Line: 1, Column: 1}, positionAt(text, 0))
	assert.Equal(t, Position{Line: 1, Column: 3}, positionAt(text, 2))
	assert.Equal(t, Position{Line: 2, Column: 2}, positionAt(text, 4))
	assert.Equal(t, Position{Line: 3, Column: 1}, positionAt(text, 99))
}
