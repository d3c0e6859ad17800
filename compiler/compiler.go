package compiler

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/effectus/calcmetric-go/ast"
	"github.com/effectus/calcmetric-go/catalog"
	"github.com/effectus/calcmetric-go/formula"
)

var (
	// ErrNestedGroup is returned for a group inside a group.
	ErrNestedGroup = errors.New("groups cannot be nested")
	// ErrGroupTooSmall is returned for a group with fewer than two terms.
	ErrGroupTooSmall = errors.New("a group needs at least two terms")
	// ErrUnknownReference is returned when a reference is not in the catalog.
	ErrUnknownReference = errors.New("unknown reference")
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the compiler logger. Stores created by Compile share it.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStoreOptions passes options to stores created by Compile.
func WithStoreOptions(opts ...formula.Option) Option {
	return func(c *Compiler) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// Compiler turns formula source into operands of a formula store, resolving
// references through a catalog.
type Compiler struct {
	catalog   *catalog.Catalog
	logger    *zap.Logger
	storeOpts []formula.Option
}

// NewCompiler creates a compiler resolving references against cat.
func NewCompiler(cat *catalog.Catalog, opts ...Option) *Compiler {
	if cat == nil {
		cat = &catalog.Catalog{}
	}
	c := &Compiler{catalog: cat, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// step is one planned top-level term: a single operand or a group of them.
type step struct {
	operator formula.Operator
	specs    []formula.Spec
	ops      []formula.Operator
	group    bool
}

// Compile parses source and builds a new store holding the formula.
func (c *Compiler) Compile(name, source string) (*formula.Store, error) {
	opts := append([]formula.Option{formula.WithLogger(c.logger)}, c.storeOpts...)
	store := formula.NewStore(opts...)
	if err := c.CompileInto(store, name, source); err != nil {
		return nil, err
	}
	return store, nil
}

// CompileFile compiles the formula source stored in filename.
func (c *Compiler) CompileFile(filename string) (*formula.Store, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return c.Compile(filename, string(data))
}

// CompileInto appends the formula in source to store. The source is fully
// resolved before the store is touched, so a failing compile leaves the
// store unchanged.
func (c *Compiler) CompileInto(store *formula.Store, name, source string) error {
	parsed, err := ast.ParseString(name, source)
	if err != nil {
		return err
	}
	plan, err := c.plan(parsed)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := apply(store, plan); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	c.logger.Debug("formula compiled",
		zap.String("name", name),
		zap.Int("terms", len(plan)),
		zap.String("label", store.Render()))
	return nil
}

func (c *Compiler) plan(f *ast.Formula) ([]step, error) {
	terms := f.Terms()
	written := f.Operators()
	plan := make([]step, 0, len(terms))

	for i, term := range terms {
		op, err := parseOperator(written[i])
		if err != nil {
			return nil, err
		}
		s := step{operator: op}

		if term.Group == nil {
			spec, err := c.resolve(term)
			if err != nil {
				return nil, err
			}
			s.specs = []formula.Spec{spec}
			s.ops = []formula.Operator{op}
			plan = append(plan, s)
			continue
		}

		children := term.Group.Terms()
		if len(children) < 2 {
			return nil, fmt.Errorf("%s: %w", term.Pos, ErrGroupTooSmall)
		}
		childOps := term.Group.Operators()
		s.group = true
		for j, child := range children {
			if child.Group != nil {
				return nil, fmt.Errorf("%s: %w", child.Pos, ErrNestedGroup)
			}
			spec, err := c.resolve(child)
			if err != nil {
				return nil, err
			}
			childOp, err := parseOperator(childOps[j])
			if err != nil {
				return nil, err
			}
			s.specs = append(s.specs, spec)
			s.ops = append(s.ops, childOp)
		}
		plan = append(plan, s)
	}
	return plan, nil
}

func (c *Compiler) resolve(term *ast.Term) (formula.Spec, error) {
	if term.Number != nil {
		return formula.Spec{
			Kind:         formula.KindConstant,
			Label:        formula.FormatValue(*term.Number),
			LiteralValue: formula.Value(*term.Number),
		}, nil
	}

	kind, err := formula.ParseKind(term.Ref.Kind)
	if err != nil || !kind.IsReference() {
		return formula.Spec{}, fmt.Errorf("%s: %w: kind %q", term.Pos, ErrUnknownReference, term.Ref.Kind)
	}
	spec, err := c.catalog.Spec(kind, term.Ref.ID)
	if err != nil {
		return formula.Spec{}, fmt.Errorf("%s: %w: %v", term.Pos, ErrUnknownReference, err)
	}
	// apply must not fail once it has started adding operands.
	if err := spec.Validate(); err != nil {
		return formula.Spec{}, fmt.Errorf("%s: %s: %w", term.Pos, term.Ref.Raw, err)
	}
	return spec, nil
}

func parseOperator(raw string) (formula.Operator, error) {
	if raw == "" {
		return formula.OperatorNone, nil
	}
	return formula.ParseOperator(raw)
}

// apply adds the planned operands, sets their written operators, then forms
// the groups.
func apply(store *formula.Store, plan []step) error {
	type pendingGroup struct {
		ids      []string
		operator formula.Operator
	}
	var groups []pendingGroup

	for _, s := range plan {
		ids := make([]string, 0, len(s.specs))
		for j, spec := range s.specs {
			op, err := store.AddOperand(spec)
			if err != nil {
				return err
			}
			ids = append(ids, op.ID)
			// Operators inside a group are set while the children are still
			// top-level; grouping clears the first one.
			if s.ops[j] != formula.OperatorNone {
				store.SetOperator(op.ID, s.ops[j])
			}
		}
		if s.group {
			groups = append(groups, pendingGroup{ids: ids, operator: s.operator})
		}
	}

	for _, g := range groups {
		group, ok := store.GroupSelected(g.ids)
		if !ok {
			return fmt.Errorf("grouping %d operands failed", len(g.ids))
		}
		if g.operator != formula.OperatorNone {
			store.SetOperator(group.ID, g.operator)
		}
	}
	return nil
}
