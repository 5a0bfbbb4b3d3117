package tagweaver

import (
	"regexp"
	"strings"
)

var (
	// Commas separated only by whitespace. \p{Z} covers the Unicode spaces
	// RE2's \s leaves out, such as U+00A0 and U+3000.
	commaRunRe = regexp.MustCompile(`,(?:[\s\p{Z}]*,)+`)
	spaceRunRe = regexp.MustCompile(`[\s\p{Z}]+`)
)

// Render renders template against a.
//
// In Partial mode toggles and comments are stripped, every conditional whose
// outcome a decides is replaced by its chosen branch, undecided conditionals
// are kept with their branches simplified, and tags are left untouched.
//
// In Final mode every conditional is resolved, tags are substituted (a
// missing name is the empty string) and the result goes through Cleanup.
func Render(template string, a Assignment, mode Mode) string {
	var sb strings.Builder
	sb.Grow(len(template))
	renderNodes(&sb, Parse(template), a, mode)
	if mode == Final {
		return Cleanup(sb.String())
	}
	return sb.String()
}

func renderNodes(sb *strings.Builder, nodes []Node, a Assignment, mode Mode) {
	for _, n := range nodes {
		switch n.Kind {
		case NodeText:
			sb.WriteString(n.Token.Raw)
		case NodeTag:
			if mode == Partial {
				sb.WriteString(n.Token.Raw)
			} else {
				sb.WriteString(a[n.Token.Name])
			}
		case NodeBlock:
			renderBlock(sb, n.Block, a, mode)
		}
	}
}

func renderBlock(sb *strings.Builder, b *Block, a Assignment, mode Mode) {
	switch ParseCondition(b.Cond).Eval(a, mode) {
	case True:
		renderNodes(sb, b.Then, a, mode)
	case False:
		renderNodes(sb, b.Else, a, mode)
	default:
		sb.WriteString(b.open.Raw)
		renderNodes(sb, b.Then, a, mode)
		if b.HasElse {
			sb.WriteString(b.elseTok.Raw)
			renderNodes(sb, b.Else, a, mode)
		}
		sb.WriteString(b.end.Raw)
	}
}

// Cleanup normalizes a rendered prompt: comma runs become a single ", ",
// whitespace runs become one space and the ends are trimmed. Leading and
// trailing commas are kept. Cleanup(Cleanup(s)) == Cleanup(s).
func Cleanup(s string) string {
	s = commaRunRe.ReplaceAllString(s, ", ")
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
