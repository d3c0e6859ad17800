// Package formula holds the calculated-metric expression model: an ordered,
// optionally grouped sequence of operands, the store that mutates it, and the
// renderer that turns it into a formula label.
package formula

import (
	"fmt"
	"strings"
)

// Kind identifies what an operand refers to.
type Kind string

const (
	KindMetric           Kind = "metric-reference"
	KindConstant         Kind = "constant-reference"
	KindCustomConversion Kind = "custom-conversion-reference"
	KindUTM              Kind = "utm-reference"
	KindCustomImport     Kind = "custom-import-reference"
	KindCustomKPI        Kind = "custom-kpi-reference"
	KindGroup            Kind = "group"
)

// ReferenceKinds lists every kind that can be added from a catalog.
var ReferenceKinds = []Kind{
	KindMetric,
	KindConstant,
	KindCustomConversion,
	KindUTM,
	KindCustomImport,
	KindCustomKPI,
}

// IsReference reports whether k is a known non-group kind.
func (k Kind) IsReference() bool {
	for _, ref := range ReferenceKinds {
		if k == ref {
			return true
		}
	}
	return false
}

// Valid reports whether k is any known kind.
func (k Kind) Valid() bool {
	return k == KindGroup || k.IsReference()
}

// ParseKind accepts a full kind name or its short form ("metric", "constant",
// "conversion", "utm", "import", "kpi", "group").
func ParseKind(raw string) (Kind, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "metric", string(KindMetric):
		return KindMetric, nil
	case "constant", string(KindConstant):
		return KindConstant, nil
	case "conversion", "custom-conversion", string(KindCustomConversion):
		return KindCustomConversion, nil
	case "utm", string(KindUTM):
		return KindUTM, nil
	case "import", "custom-import", string(KindCustomImport):
		return KindCustomImport, nil
	case "kpi", "custom-kpi", string(KindCustomKPI):
		return KindCustomKPI, nil
	case string(KindGroup):
		return KindGroup, nil
	default:
		return "", fmt.Errorf("unknown operand kind: %s", raw)
	}
}

// Operator is the arithmetic combinator applied before an operand.
// OperatorNone marks the head of a sequence.
type Operator string

const (
	OperatorNone     Operator = ""
	OperatorAdd      Operator = "add"
	OperatorSubtract Operator = "subtract"
	OperatorMultiply Operator = "multiply"
)

// Valid reports whether o is one of add, subtract or multiply.
func (o Operator) Valid() bool {
	switch o {
	case OperatorAdd, OperatorSubtract, OperatorMultiply:
		return true
	}
	return false
}

// Symbol returns the display symbol. An absent operator renders as add.
func (o Operator) Symbol() string {
	switch o {
	case OperatorSubtract:
		return "−"
	case OperatorMultiply:
		return "×"
	default:
		return "+"
	}
}

// ParseOperator accepts operator names and symbols.
func ParseOperator(raw string) (Operator, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "add", "+":
		return OperatorAdd, nil
	case "subtract", "-", "−":
		return OperatorSubtract, nil
	case "multiply", "*", "×":
		return OperatorMultiply, nil
	default:
		return OperatorNone, fmt.Errorf("unknown operator: %s", raw)
	}
}

// DefaultOperator is the operator assigned to a newly appended operand of
// the given kind when the sequence is not empty.
func DefaultOperator(kind Kind) Operator {
	if kind == KindConstant {
		return OperatorMultiply
	}
	return OperatorAdd
}

// Operand is one term of a formula. LiteralValue is set only for constants
// and Children only for groups.
type Operand struct {
	ID           string    `json:"id" yaml:"id"`
	Kind         Kind      `json:"kind" yaml:"kind"`
	Label        string    `json:"label" yaml:"label"`
	Source       string    `json:"source,omitempty" yaml:"source,omitempty"`
	Ref          string    `json:"ref,omitempty" yaml:"ref,omitempty"`
	LiteralValue *float64  `json:"literalValue,omitempty" yaml:"literalValue,omitempty"`
	Operator     Operator  `json:"operator,omitempty" yaml:"operator,omitempty"`
	Children     []Operand `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsGroup reports whether the operand wraps a sub-sequence.
func (o Operand) IsGroup() bool {
	return o.Kind == KindGroup
}

// Clone returns a deep copy of the operand.
func (o Operand) Clone() Operand {
	out := o
	if o.LiteralValue != nil {
		v := *o.LiteralValue
		out.LiteralValue = &v
	}
	if o.Children != nil {
		out.Children = cloneAll(o.Children)
	}
	return out
}

func cloneAll(ops []Operand) []Operand {
	out := make([]Operand, len(ops))
	for i, op := range ops {
		out[i] = op.Clone()
	}
	return out
}

// Spec describes an operand to be added. It is what catalogs hand to the
// store.
type Spec struct {
	Kind         Kind
	Label        string
	Source       string
	Ref          string
	LiteralValue *float64
}

// Value is a helper for building constant specs.
func Value(v float64) *float64 {
	return &v
}

// Validate checks that the spec produces an operand satisfying the model
// invariants.
func (s Spec) Validate() error {
	if !s.Kind.IsReference() {
		return fmt.Errorf("%w: kind %q cannot be added", ErrInvalidSpec, s.Kind)
	}
	if s.Kind == KindConstant {
		if s.LiteralValue == nil {
			return fmt.Errorf("%w: constant %q requires a value", ErrInvalidSpec, s.Label)
		}
		return nil
	}
	if s.LiteralValue != nil {
		return fmt.Errorf("%w: %s %q cannot carry a value", ErrInvalidSpec, s.Kind, s.Label)
	}
	if strings.TrimSpace(s.Label) == "" {
		return fmt.Errorf("%w: %s requires a label", ErrInvalidSpec, s.Kind)
	}
	return nil
}
