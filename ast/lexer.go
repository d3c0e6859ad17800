package ast

import "github.com/alecthomas/participle/v2/lexer"

// Lexer defines the token rules for formula source text.
//
// Unquoted reference ids may contain '-' and '.', so a '-' directly after
// one is part of the id: `metric:cost-1` is the reference "cost-1". Write
// `metric:cost - 1`, or quote the id as in `metric:"cost"-1`, to subtract.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `#[^\n]*`, Action: nil},
		{Name: "Whitespace", Pattern: `\s+`, Action: nil},
		{Name: "Ref", Pattern: `[a-z][a-z-]*:(?:"(?:\\.|[^"])*"|[A-Za-z0-9_]+(?:[-.][A-Za-z0-9_]+)*)`, Action: nil},
		{Name: "Number", Pattern: `\d+(?:\.\d+)?`, Action: nil},
		{Name: "Operator", Pattern: `[-+*]|−|×`, Action: nil},
		{Name: "Punct", Pattern: `[()=]`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},
	},
})
