package formula

import (
	"strconv"
	"strings"
)

// ResultMarker terminates every non-empty formula label.
const ResultMarker = "= Result"

// TokenKind classifies a visual token.
type TokenKind string

const (
	TokenOperator   TokenKind = "operator"
	TokenOperand    TokenKind = "operand"
	TokenGroupOpen  TokenKind = "group-open"
	TokenGroupClose TokenKind = "group-close"
	TokenEquals     TokenKind = "equals"
	TokenResult     TokenKind = "result"
)

// Token is one element of the interactive formula display.
type Token struct {
	Kind      TokenKind `json:"kind"`
	Text      string    `json:"text"`
	OperandID string    `json:"operandId,omitempty"`
	Operator  Operator  `json:"operator,omitempty"`
	Constant  bool      `json:"constant,omitempty"`
}

// Render produces the formula label, e.g. "A × (B + C) = Result". An empty
// formula renders as "".
func Render(ops []Operand) string {
	if len(ops) == 0 {
		return ""
	}
	terms := make([]string, 0, len(ops)+1)
	for i, op := range ops {
		term := renderTerm(op)
		if i > 0 {
			term = op.Operator.Symbol() + " " + term
		}
		terms = append(terms, term)
	}
	terms = append(terms, ResultMarker)
	return strings.Join(terms, " ")
}

func renderTerm(op Operand) string {
	if !op.IsGroup() {
		return DisplayLabel(op)
	}
	parts := make([]string, 0, len(op.Children))
	for i, child := range op.Children {
		term := renderTerm(child)
		if i > 0 {
			term = child.Operator.Symbol() + " " + term
		}
		parts = append(parts, term)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// DisplayLabel is the text shown for a non-group operand: the bracketed value
// for constants and the label otherwise.
func DisplayLabel(op Operand) string {
	if op.Kind == KindConstant && op.LiteralValue != nil {
		return "[" + FormatValue(*op.LiteralValue) + "]"
	}
	return op.Label
}

// FormatValue prints v in its shortest decimal form.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Tokens projects the formula into display tokens. An empty formula has no
// tokens.
func Tokens(ops []Operand) []Token {
	if len(ops) == 0 {
		return nil
	}
	var tokens []Token
	for i, op := range ops {
		tokens = appendTokens(tokens, op, i > 0)
	}
	return append(tokens,
		Token{Kind: TokenEquals, Text: "="},
		Token{Kind: TokenResult, Text: "Result"},
	)
}

func appendTokens(tokens []Token, op Operand, withOperator bool) []Token {
	if withOperator {
		operator := op.Operator
		if operator == OperatorNone {
			operator = OperatorAdd
		}
		tokens = append(tokens, Token{
			Kind:      TokenOperator,
			Text:      operator.Symbol(),
			OperandID: op.ID,
			Operator:  operator,
		})
	}
	if !op.IsGroup() {
		return append(tokens, Token{
			Kind:      TokenOperand,
			Text:      DisplayLabel(op),
			OperandID: op.ID,
			Constant:  op.Kind == KindConstant,
		})
	}
	tokens = append(tokens, Token{Kind: TokenGroupOpen, Text: "(", OperandID: op.ID})
	for i, child := range op.Children {
		tokens = appendTokens(tokens, child, i > 0)
	}
	return append(tokens, Token{Kind: TokenGroupClose, Text: ")", OperandID: op.ID})
}
