package tagweaver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrStopWalk can be returned by a CombinationSink to end a walk early
// without reporting an error.
var ErrStopWalk = errors.New("stop walk")

// Position represents a position in a template.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number, in bytes
}

// String returns a string representation of the position.
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// positionAt converts a byte offset of text into a Position.
func positionAt(text string, offset int) Position {
	if offset > len(text) {
		offset = len(text)
	}
	before := text[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return Position{Line: line, Column: col}
}

// ParseError is the base type of every template diagnostic.
type ParseError struct {
	Pos     Position // Position where the problem starts
	Message string
	Context string // Surrounding lines, with the position marked
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s at %s\nContext: %s", e.Message, e.Pos, e.Context)
	}
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}

// MalformedTagError is a {{$...}} token that is not a known control token.
type MalformedTagError struct {
	ParseError
	Raw string
}

// Error implements the error interface.
func (e *MalformedTagError) Error() string {
	return fmt.Sprintf("malformed tag %s at %s: %s\nContext: %s",
		e.Raw, e.Pos, e.Message, e.Context)
}

// UnclosedBlockError is an if token without a matching endif.
type UnclosedBlockError struct {
	ParseError
	Cond string
}

// Error implements the error interface.
func (e *UnclosedBlockError) Error() string {
	return fmt.Sprintf("{{$if %s}} at %s has no matching {{$endif}}\nContext: %s",
		e.Cond, e.Pos, e.Context)
}

// UnmatchedTagError is an else or endif outside any block, or a second else
// inside one.
type UnmatchedTagError struct {
	ParseError
	Raw string
}

// Error implements the error interface.
func (e *UnmatchedTagError) Error() string {
	return fmt.Sprintf("unmatched %s at %s: %s\nContext: %s",
		e.Raw, e.Pos, e.Message, e.Context)
}

// ValidationError is a template that fails a Validator.
type ValidationError struct {
	ParseError
	Tags []string // tags involved, if any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Tags) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Message, strings.Join(e.Tags, ", "))
}

// NewParseError creates a new ParseError with context.
func NewParseError(pos Position, message, context string) *ParseError {
	return &ParseError{
		Pos:     pos,
		Message: message,
		Context: extractContext(context, pos),
	}
}

// NewMalformedTagError creates a new MalformedTagError.
func NewMalformedTagError(pos Position, raw, message, context string) *MalformedTagError {
	return &MalformedTagError{
		ParseError: *NewParseError(pos, message, context),
		Raw:        raw,
	}
}

// NewUnclosedBlockError creates a new UnclosedBlockError.
func NewUnclosedBlockError(pos Position, cond, context string) *UnclosedBlockError {
	return &UnclosedBlockError{
		ParseError: *NewParseError(pos, "block is never closed", context),
		Cond:       cond,
	}
}

// NewUnmatchedTagError creates a new UnmatchedTagError.
func NewUnmatchedTagError(pos Position, raw, message, context string) *UnmatchedTagError {
	return &UnmatchedTagError{
		ParseError: *NewParseError(pos, message, context),
		Raw:        raw,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string, tags ...string) *ValidationError {
	return &ValidationError{
		ParseError: ParseError{Message: message},
		Tags:       tags,
	}
}

// Lint reports structural problems of a template in source order. It is a
// best-effort diagnostic pass; rendering and enumeration work the same
// whatever it finds.
func Lint(template string) []error {
	_, issues := parse(template)
	// The parser reports blocks on the way out of the recursion; sort back
	// into text order.
	sortIssues(issues)

	out := make([]error, 0, len(issues))
	for _, is := range issues {
		pos := positionAt(template, is.tok.Start)
		switch is.kind {
		case issueUnclosed:
			out = append(out, NewUnclosedBlockError(pos, is.tok.Cond, template))
		case issueStray:
			out = append(out, NewUnmatchedTagError(pos, is.tok.Raw, "no open {{$if}} block", template))
		case issueDuplicateElse:
			out = append(out, NewUnmatchedTagError(pos, is.tok.Raw, "block already has an {{$else}}", template))
		case issueMalformed:
			out = append(out, NewMalformedTagError(pos, is.tok.Raw, "unknown control token", template))
		}
	}
	return out
}

func sortIssues(issues []issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].tok.Start < issues[j].tok.Start
	})
}

// extractContext extracts a snippet of text around the error position for context.
// It tries to include a few lines before and after the error.
func extractContext(content string, pos Position) string {
	if content == "" {
		return ""
	}

	lines := strings.Split(content, "\n")
	if pos.Line > len(lines) {
		return content // Fallback if position is out of range
	}

	// Determine the range of lines to include
	startLine := max(0, pos.Line-3)
	endLine := min(len(lines)-1, pos.Line+1)

	var contextBuilder strings.Builder
	for i := startLine; i <= endLine; i++ {
		lineNum := i + 1
		if lineNum == pos.Line {
			prefix := fmt.Sprintf("-> %d: ", lineNum)
			contextBuilder.WriteString(prefix + lines[i] + "\n")

			if pos.Column <= len(lines[i])+1 {
				contextBuilder.WriteString(strings.Repeat(" ", len(prefix)+pos.Column-1) + "^\n")
			}
		} else {
			contextBuilder.WriteString(fmt.Sprintf("   %d: %s\n", lineNum, lines[i]))
		}
	}

	return contextBuilder.String()
}
