package compiler

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	exprast "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"github.com/effectus/calcmetric-go/formula"
)

var (
	// ErrEmptyFormula is returned when exporting a formula without operands.
	ErrEmptyFormula = errors.New("formula has no operands")
	// ErrNonFinite is returned for a constant that is infinite or NaN, which
	// expr would read as an identifier.
	ErrNonFinite = errors.New("constant value is not finite")
)

// Namespaces maps reference kinds to the variable holding their values in an
// exported expression.
var Namespaces = map[formula.Kind]string{
	formula.KindMetric:           "metric",
	formula.KindCustomConversion: "conversion",
	formula.KindUTM:              "utm",
	formula.KindCustomImport:     "customImport",
	formula.KindCustomKPI:        "kpi",
}

// Exported is a formula rewritten as an expr-lang expression.
type Exported struct {
	Expression string
	// References lists "namespace:key" pairs in sorted order.
	References []string
}

// Export rewrites ops as an expr-lang expression for hosts that evaluate
// calculated metrics, e.g. `(metric["clicks-paid"] + metric["cost-paid"]) * 0.077`.
// Operands combine left to right, so the accumulated left side is
// parenthesized wherever expr precedence would otherwise regroup it.
func Export(ops []formula.Operand) (*Exported, error) {
	if len(ops) == 0 {
		return nil, ErrEmptyFormula
	}
	expression, err := exportSequence(ops)
	if err != nil {
		return nil, err
	}

	tree, err := parser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("exported expression %q does not parse: %w", expression, err)
	}
	return &Exported{Expression: expression, References: collectReferences(tree.Node)}, nil
}

func exportSequence(ops []formula.Operand) (string, error) {
	var acc string
	additive := false
	for i, op := range ops {
		term, err := exportTerm(op)
		if err != nil {
			return "", err
		}
		if i == 0 {
			acc = term
			continue
		}
		switch op.Operator {
		case formula.OperatorMultiply:
			if additive {
				acc = "(" + acc + ")"
				additive = false
			}
			acc = acc + " * " + term
		case formula.OperatorSubtract:
			acc = acc + " - " + term
			additive = true
		default:
			acc = acc + " + " + term
			additive = true
		}
	}
	return acc, nil
}

func exportTerm(op formula.Operand) (string, error) {
	switch op.Kind {
	case formula.KindGroup:
		inner, err := exportSequence(op.Children)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case formula.KindConstant:
		if op.LiteralValue == nil {
			return "", fmt.Errorf("constant %s has no value", op.ID)
		}
		if math.IsInf(*op.LiteralValue, 0) || math.IsNaN(*op.LiteralValue) {
			return "", fmt.Errorf("%w: constant %s is %v", ErrNonFinite, op.ID, *op.LiteralValue)
		}
		value := formula.FormatValue(*op.LiteralValue)
		if *op.LiteralValue < 0 {
			value = "(" + value + ")"
		}
		return value, nil
	}

	namespace, ok := Namespaces[op.Kind]
	if !ok {
		return "", fmt.Errorf("operand %s has unsupported kind %q", op.ID, op.Kind)
	}
	key := op.Ref
	if key == "" {
		key = op.Label
	}
	return namespace + "[" + strconv.Quote(key) + "]", nil
}

func collectReferences(root exprast.Node) []string {
	seen := make(map[string]struct{})

	var visit func(node exprast.Node)
	visit = func(node exprast.Node) {
		if node == nil {
			return
		}
		switch n := node.(type) {
		case *exprast.BinaryNode:
			visit(n.Left)
			visit(n.Right)
		case *exprast.UnaryNode:
			visit(n.Node)
		case *exprast.MemberNode:
			ident, okIdent := n.Node.(*exprast.IdentifierNode)
			key, okKey := n.Property.(*exprast.StringNode)
			if okIdent && okKey {
				seen[ident.Value+":"+key.Value] = struct{}{}
				return
			}
			visit(n.Node)
			visit(n.Property)
		}
	}
	visit(root)

	refs := make([]string, 0, len(seen))
	for ref := range seen {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// String returns the expression.
func (e *Exported) String() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Expression)
}
