package tagweaver

import "strings"

// Truth is a three-valued boolean.
type Truth int

const (
	False Truth = iota
	True
	Indeterminate
)

func (t Truth) String() string {
	switch t {
	case False:
		return "false"
	case True:
		return "true"
	}
	return "indeterminate"
}

func truthOf(b bool) Truth {
	if b {
		return True
	}
	return False
}

// Mode selects how much of a template the renderer resolves.
type Mode int

const (
	// Final treats every missing variable as the empty string.
	Final Mode = iota
	// Partial leaves anything that depends on a missing variable unresolved.
	Partial
)

func (m Mode) String() string {
	if m == Partial {
		return "partial"
	}
	return "final"
}

// ===== Condition tree =====

// TestOp is the kind of a leaf test.
type TestOp int

const (
	OpExists TestOp = iota
	OpNotExists
	OpEquals
	OpNotEquals
)

// Test is a leaf of a condition.
type Test struct {
	Op      TestOp
	Var     string
	Literal string // only for OpEquals and OpNotEquals
}

// Condition is a disjunction of conjunctions: Any[i] holds the tests joined
// by && and the groups are joined by ||.
type Condition struct {
	Any [][]Test
}

// ParseCondition parses the text of an if token. It accepts any input; a
// term it cannot make sense of becomes an existence test of its text.
func ParseCondition(text string) Condition {
	var c Condition
	for _, or := range strings.Split(text, "||") {
		var group []Test
		for _, term := range strings.Split(or, "&&") {
			group = append(group, parseTest(term))
		}
		c.Any = append(c.Any, group)
	}
	return c
}

func parseTest(term string) Test {
	term = strings.TrimSpace(term)
	negate := false
	if strings.HasPrefix(term, "!") {
		negate = true
		term = strings.TrimSpace(term[1:])
	}

	var t Test
	if i := strings.Index(term, "!="); i >= 0 {
		t = Test{Op: OpNotEquals, Var: strings.TrimSpace(term[:i]), Literal: strings.TrimSpace(term[i+2:])}
	} else if i := strings.Index(term, "="); i >= 0 {
		t = Test{Op: OpEquals, Var: strings.TrimSpace(term[:i]), Literal: strings.TrimSpace(term[i+1:])}
	} else {
		t = Test{Op: OpExists, Var: term}
	}
	if negate {
		t.Op = t.Op.negate()
	}
	return t
}

func (op TestOp) negate() TestOp {
	switch op {
	case OpExists:
		return OpNotExists
	case OpNotExists:
		return OpExists
	case OpEquals:
		return OpNotEquals
	}
	return OpEquals
}

// Eval evaluates c against a. In Final mode the result is never Indeterminate.
func (c Condition) Eval(a Assignment, mode Mode) Truth {
	result := False
	for _, group := range c.Any {
		switch evalAnd(group, a, mode) {
		case True:
			return True
		case Indeterminate:
			result = Indeterminate
		}
	}
	return result
}

func evalAnd(group []Test, a Assignment, mode Mode) Truth {
	result := True
	for _, t := range group {
		switch t.Eval(a, mode) {
		case False:
			return False
		case Indeterminate:
			result = Indeterminate
		}
	}
	return result
}

// Eval evaluates a single test. A missing variable is Indeterminate in
// Partial mode and the empty string otherwise.
func (t Test) Eval(a Assignment, mode Mode) Truth {
	value, ok := a[t.Var]
	if !ok && mode == Partial {
		return Indeterminate
	}
	switch t.Op {
	case OpExists:
		return truthOf(value != "")
	case OpNotExists:
		return truthOf(value == "")
	case OpEquals:
		return truthOf(value == t.Literal)
	}
	return truthOf(value != t.Literal)
}

// Evaluate parses and evaluates a condition in one step.
func Evaluate(cond string, a Assignment, mode Mode) Truth {
	return ParseCondition(cond).Eval(a, mode)
}
