package ast

import "github.com/alecthomas/participle/v2/lexer"

// Formula is a parsed formula source such as
// `metric:clicks-paid * (constant:vat-rate + 1) = Result`.
type Formula struct {
	Pos    lexer.Position
	Head   *Term     `parser:"@@"`
	Tail   []*OpTerm `parser:"@@*"`
	Result string    `parser:"('=' @'Result')?"`
}

// Terms returns the head and tail terms in order.
func (f *Formula) Terms() []*Term {
	return terms(f.Head, f.Tail)
}

// Operators returns the operator written before each term; the head has "".
func (f *Formula) Operators() []string {
	return operators(f.Tail)
}

// OpTerm is a term preceded by its operator.
type OpTerm struct {
	Pos  lexer.Position
	Op   string `parser:"@Operator"`
	Term *Term  `parser:"@@"`
}

// Term is a reference, a literal number or a parenthesized group.
type Term struct {
	Pos    lexer.Position
	Ref    *Ref     `parser:"  @@"`
	Number *float64 `parser:"| @Number"`
	Group  *Group   `parser:"| '(' @@ ')'"`
}

// Group is a parenthesized sub-expression.
type Group struct {
	Pos  lexer.Position
	Head *Term     `parser:"@@"`
	Tail []*OpTerm `parser:"@@*"`
}

// Terms returns the group's terms in order.
func (g *Group) Terms() []*Term {
	return terms(g.Head, g.Tail)
}

// Operators returns the operator written before each group term.
func (g *Group) Operators() []string {
	return operators(g.Tail)
}

// Ref is a catalog reference written as kind:id. Kind and ID are filled in
// by PostProcess.
type Ref struct {
	Pos  lexer.Position
	Raw  string `parser:"@Ref"`
	Kind string
	ID   string
}

func terms(head *Term, tail []*OpTerm) []*Term {
	out := make([]*Term, 0, len(tail)+1)
	if head != nil {
		out = append(out, head)
	}
	for _, t := range tail {
		out = append(out, t.Term)
	}
	return out
}

func operators(tail []*OpTerm) []string {
	out := make([]string, 0, len(tail)+1)
	out = append(out, "")
	for _, t := range tail {
		out = append(out, t.Op)
	}
	return out
}
