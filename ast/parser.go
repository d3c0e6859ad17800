package ast

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
)

var parser = participle.MustBuild[Formula](
	participle.Lexer(Lexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// ParseString parses formula source. name is used in error positions.
func ParseString(name, source string) (*Formula, error) {
	f, err := parser.ParseString(name, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	f.PostProcess()
	return f, nil
}
