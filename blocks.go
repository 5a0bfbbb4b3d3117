package tagweaver

// NodeKind is the category of a parsed node.
type NodeKind int

const (
	NodeText    NodeKind = iota // literal text, emitted as is
	NodeTag                     // substitution tag
	NodeToggle                  // toggle declaration
	NodeComment                 // comment
	NodeBlock                   // matched if/else/endif block
)

// Node is one element of a parsed template.
type Node struct {
	Kind  NodeKind
	Token Token  // the token behind the node; unset for NodeBlock
	Block *Block // only for NodeBlock
}

// Span is a byte range [Start, End) of the parsed text.
type Span struct {
	Start int
	End   int
}

// Block is a conditional whose if token found its endif.
type Block struct {
	Cond     string
	Then     []Node
	Else     []Node
	HasElse  bool
	ThenText string // raw text of the if branch
	ElseText string // raw text of the else branch
	Span     Span   // the whole block, if token to endif token inclusive

	open, elseTok, end Token
}

// Parse tokenizes text and pairs every if with its else/endif, respecting
// nesting. Malformed structure never fails: an unclosed if, a stray else or
// endif and a second else all turn into literal text.
func Parse(text string) []Node {
	nodes, _ := parse(text)
	return nodes
}

type issueKind int

const (
	issueUnclosed issueKind = iota
	issueStray
	issueDuplicateElse
	issueMalformed
)

type issue struct {
	kind issueKind
	tok  Token
}

type blockParser struct {
	text   string
	tokens []Token
	pos    int
	issues []issue
}

func parse(text string) ([]Node, []issue) {
	p := &blockParser{text: text, tokens: Tokenize(text)}
	nodes, _ := p.parseUntil(0)
	return nodes, p.issues
}

// parseUntil consumes tokens until an else/endif that belongs to the
// enclosing block (depth > 0) or the end of input. The terminator, if any, is
// consumed and returned.
func (p *blockParser) parseUntil(depth int) ([]Node, *Token) {
	var nodes []Node
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++

		switch tok.Kind {
		case TokenIf:
			nodes = append(nodes, p.parseBlock(tok, depth)...)
		case TokenElse, TokenEndIf:
			if depth > 0 {
				return nodes, &tok
			}
			p.issues = append(p.issues, issue{kind: issueStray, tok: tok})
			nodes = append(nodes, literal(tok))
		case TokenTag:
			nodes = append(nodes, Node{Kind: NodeTag, Token: tok})
		case TokenToggle:
			nodes = append(nodes, Node{Kind: NodeToggle, Token: tok})
		case TokenComment:
			nodes = append(nodes, Node{Kind: NodeComment, Token: tok})
		default:
			if tok.malformed {
				p.issues = append(p.issues, issue{kind: issueMalformed, tok: tok})
			}
			nodes = append(nodes, Node{Kind: NodeText, Token: tok})
		}
	}
	return nodes, nil
}

// parseBlock parses the rest of a block opened by open. When no endif is
// found the open token and any else become literals and the branch contents
// are returned flattened into the surrounding sequence.
func (p *blockParser) parseBlock(open Token, depth int) []Node {
	then, term := p.parseUntil(depth + 1)
	if term == nil {
		p.issues = append(p.issues, issue{kind: issueUnclosed, tok: open})
		return append([]Node{literal(open)}, then...)
	}

	b := &Block{Cond: open.Cond, Then: then, open: open}
	b.ThenText = p.text[open.End:term.Start]

	if term.Kind == TokenElse {
		b.HasElse = true
		b.elseTok = *term
		var elseNodes []Node
		for {
			more, next := p.parseUntil(depth + 1)
			elseNodes = append(elseNodes, more...)
			if next == nil {
				p.issues = append(p.issues, issue{kind: issueUnclosed, tok: open})
				flat := append([]Node{literal(open)}, then...)
				flat = append(flat, literal(b.elseTok))
				return append(flat, elseNodes...)
			}
			if next.Kind == TokenEndIf {
				term = next
				break
			}
			p.issues = append(p.issues, issue{kind: issueDuplicateElse, tok: *next})
			elseNodes = append(elseNodes, literal(*next))
		}
		b.Else = elseNodes
		b.ElseText = p.text[b.elseTok.End:term.Start]
	}

	b.end = *term
	b.Span = Span{Start: open.Start, End: term.End}
	return []Node{{Kind: NodeBlock, Block: b}}
}

func literal(tok Token) Node {
	tok.Kind = TokenLiteral
	return Node{Kind: NodeText, Token: tok}
}
