package testutils

import (
	"fmt"

	"github.com/effectus/calcmetric-go/formula"
)

// SequentialIDs returns a store option generating op-1, op-2, ... so tests
// can assert on ids.
func SequentialIDs() formula.Option {
	n := 0
	return formula.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("op-%d", n)
	})
}

// Metric is a shorthand for a metric operand spec.
func Metric(label string) formula.Spec {
	return formula.Spec{Kind: formula.KindMetric, Label: label}
}

// Constant is a shorthand for a constant operand spec.
func Constant(label string, value float64) formula.Spec {
	return formula.Spec{Kind: formula.KindConstant, Label: label, LiteralValue: formula.Value(value)}
}

// NewStore builds a store with sequential ids holding specs in order.
func NewStore(specs ...formula.Spec) (*formula.Store, error) {
	s := formula.NewStore(SequentialIDs())
	for _, spec := range specs {
		if _, err := s.AddOperand(spec); err != nil {
			return nil, err
		}
	}
	return s, nil
}
