package tagweaver

import (
	"regexp"
	"strings"
	"unicode"
)

// TokenKind is the family of a scanned token.
type TokenKind int

const (
	TokenLiteral TokenKind = iota // plain text, including unrecognized {{...}}
	TokenTag                      // {{name}}, {{?name}}, {{name:random}}
	TokenToggle                   // {{$toggle name}}
	TokenComment                  // {{#text}}
	TokenIf                       // {{$if COND}}
	TokenElse                     // {{$else}}
	TokenEndIf                    // {{$endif}}
)

func (k TokenKind) String() string {
	switch k {
	case TokenLiteral:
		return "literal"
	case TokenTag:
		return "tag"
	case TokenToggle:
		return "toggle"
	case TokenComment:
		return "comment"
	case TokenIf:
		return "if"
	case TokenElse:
		return "else"
	case TokenEndIf:
		return "endif"
	}
	return "unknown"
}

// TagKind is how a substitution tag takes its values.
type TagKind int

const (
	Required TagKind = iota
	Optional
	Random
)

func (k TagKind) String() string {
	switch k {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case Random:
		return "random"
	}
	return "unknown"
}

// Token is one element of a template. Start and End are byte offsets of Raw in
// the scanned text.
type Token struct {
	Kind    TokenKind
	Raw     string
	Name    string  // tag or toggle name
	TagKind TagKind // only for TokenTag
	Cond    string  // only for TokenIf
	Start   int
	End     int

	malformed bool // looked like a control token but did not parse
}

var tokenRe = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// Tokenize splits text into a typed token stream in a single pass.
// Concatenating the Raw fields of the result yields text again.
func Tokenize(text string) []Token {
	var tokens []Token
	last := 0
	for _, m := range tokenRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			tokens = append(tokens, Token{Kind: TokenLiteral, Raw: text[last:m[0]], Start: last, End: m[0]})
		}
		tok := classify(text[m[2]:m[3]])
		tok.Raw = text[m[0]:m[1]]
		tok.Start, tok.End = m[0], m[1]
		tokens = append(tokens, tok)
		last = m[1]
	}
	if last < len(text) {
		tokens = append(tokens, Token{Kind: TokenLiteral, Raw: text[last:], Start: last, End: len(text)})
	}
	return tokens
}

// classify decides the token family from the content between the braces.
func classify(content string) Token {
	switch {
	case strings.HasPrefix(content, "#"):
		return Token{Kind: TokenComment}
	case content == "$else":
		return Token{Kind: TokenElse}
	case content == "$endif":
		return Token{Kind: TokenEndIf}
	case strings.HasPrefix(content, "$if") && len(content) > 3 && isSpace(content[3]):
		if cond := strings.TrimSpace(content[3:]); cond != "" {
			return Token{Kind: TokenIf, Cond: cond}
		}
	case strings.HasPrefix(content, "$toggle") && len(content) > 7 && isSpace(content[7]):
		if name := strings.TrimSpace(content[7:]); isName(name) {
			return Token{Kind: TokenToggle, Name: name}
		}
	case strings.HasPrefix(content, "?"):
		if isName(content[1:]) {
			return Token{Kind: TokenTag, TagKind: Optional, Name: content[1:]}
		}
	case strings.HasSuffix(content, ":random"):
		if name := strings.TrimSuffix(content, ":random"); isName(name) {
			return Token{Kind: TokenTag, TagKind: Random, Name: name}
		}
	case isName(content):
		return Token{Kind: TokenTag, TagKind: Required, Name: content}
	}
	return Token{Kind: TokenLiteral, malformed: strings.HasPrefix(content, "$")}
}

// isName reports whether s is a non-empty run of letters, digits and '_'.
func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// ===== Scan =====

// TagSet is what a template references. Every list keeps first-appearance
// order and holds no duplicates.
type TagSet struct {
	Required   []string
	Optional   []string
	Random     []string
	Toggles    []string
	Conditions []string // raw condition text of each if, duplicates kept

	order []string
	kinds map[string]TagKind
}

// Tags returns every substitution tag name in first-appearance order.
func (s TagSet) Tags() []string { return append([]string(nil), s.order...) }

// Kind returns the effective kind of a tag. A name used under several kinds
// resolves as random first, then optional, then required.
func (s TagSet) Kind(name string) (TagKind, bool) {
	k, ok := s.kinds[name]
	return k, ok
}

// Guards returns the variable names referenced by the scanned conditions.
func (s TagSet) Guards() []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range s.Conditions {
		for _, v := range ConditionVars(c) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Scan reports the tags, toggles and conditions found in text.
func Scan(text string) TagSet {
	return scanTokens(Tokenize(text))
}

func scanTokens(tokens []Token) TagSet {
	set := TagSet{kinds: map[string]TagKind{}}
	seen := map[TagKind]map[string]bool{Required: {}, Optional: {}, Random: {}}
	toggles := map[string]bool{}

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenTag:
			if !seen[tok.TagKind][tok.Name] {
				seen[tok.TagKind][tok.Name] = true
				switch tok.TagKind {
				case Required:
					set.Required = append(set.Required, tok.Name)
				case Optional:
					set.Optional = append(set.Optional, tok.Name)
				case Random:
					set.Random = append(set.Random, tok.Name)
				}
			}
			prev, ok := set.kinds[tok.Name]
			if !ok {
				set.order = append(set.order, tok.Name)
				set.kinds[tok.Name] = tok.TagKind
			} else if tok.TagKind > prev {
				set.kinds[tok.Name] = tok.TagKind
			}
		case TokenToggle:
			if !toggles[tok.Name] {
				toggles[tok.Name] = true
				set.Toggles = append(set.Toggles, tok.Name)
			}
		case TokenIf:
			set.Conditions = append(set.Conditions, tok.Cond)
		}
	}
	return set
}

// ConditionVars returns the variable names a condition refers to, without
// building an expression tree: operators are stripped and the left-hand side
// of each comparison is kept.
func ConditionVars(cond string) []string {
	var out []string
	seen := map[string]bool{}
	for _, or := range strings.Split(cond, "||") {
		for _, term := range strings.Split(or, "&&") {
			term = strings.TrimSpace(term)
			term = strings.TrimSpace(strings.TrimLeft(term, "!"))
			if i := strings.Index(term, "="); i >= 0 {
				term = strings.TrimSpace(strings.TrimSuffix(term[:i], "!"))
			}
			for _, name := range strings.Fields(term) {
				if !seen[name] {
					seen[name] = true
					out = append(out, name)
				}
			}
		}
	}
	return out
}
