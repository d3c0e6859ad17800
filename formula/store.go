package formula

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidSpec is returned when an operand spec would break the model
// invariants.
var ErrInvalidSpec = errors.New("invalid operand spec")

// GroupLabel is the label given to operands formed by grouping.
const GroupLabel = "Group"

// maxIDAttempts bounds retries against a custom ID generator that returns
// ids already issued by this store.
const maxIDAttempts = 8

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report ignored mutations.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the default uuid-based id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Store owns the top-level operand sequence of one editing session and is
// the only way to mutate it. Operands are kept in an arena keyed by id with
// a separate order slice so splices never invalidate references.
//
// A Store is not safe for concurrent use; hosts keep one store per session.
type Store struct {
	order    []string
	nodes    map[string]*Operand
	issued   map[string]struct{}
	selected map[string]struct{}

	newID  func() string
	logger *zap.Logger
}

// NewStore creates an empty formula store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		nodes:    make(map[string]*Operand),
		issued:   make(map[string]struct{}),
		selected: make(map[string]struct{}),
		newID:    newOperandID,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newOperandID() string {
	return "operand-" + uuid.NewString()
}

// freshID returns an id that this store has never handed out.
func (s *Store) freshID() string {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if _, used := s.issued[id]; id != "" && !used {
			s.issued[id] = struct{}{}
			return id
		}
	}
	id := newOperandID()
	s.issued[id] = struct{}{}
	return id
}

// Len returns the number of top-level operands.
func (s *Store) Len() int {
	return len(s.order)
}

// Operands returns a deep copy of the current formula.
func (s *Store) Operands() []Operand {
	out := make([]Operand, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].Clone())
	}
	return out
}

// Render renders the current formula.
func (s *Store) Render() string {
	return Render(s.Operands())
}

// Get finds an operand by id, searching group children as well.
func (s *Store) Get(id string) (Operand, bool) {
	if op := s.lookup(id); op != nil {
		return op.Clone(), true
	}
	return Operand{}, false
}

func (s *Store) lookup(id string) *Operand {
	if op, ok := s.nodes[id]; ok {
		return op
	}
	for _, topID := range s.order {
		group := s.nodes[topID]
		for i := range group.Children {
			if group.Children[i].ID == id {
				return &group.Children[i]
			}
		}
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, candidate := range s.order {
		if candidate == id {
			return i
		}
	}
	return -1
}

// Reset clears every operand and the selection. Issued ids stay retired.
func (s *Store) Reset() {
	s.order = nil
	s.nodes = make(map[string]*Operand)
	s.selected = make(map[string]struct{})
}

// AddOperand appends a new operand built from spec. The first operand gets
// no operator; later ones get DefaultOperator for their kind.
func (s *Store) AddOperand(spec Spec) (Operand, error) {
	if err := spec.Validate(); err != nil {
		return Operand{}, err
	}

	op := &Operand{
		ID:     s.freshID(),
		Kind:   spec.Kind,
		Label:  spec.Label,
		Source: spec.Source,
		Ref:    spec.Ref,
	}
	if spec.LiteralValue != nil {
		v := *spec.LiteralValue
		op.LiteralValue = &v
	}
	if len(s.order) > 0 {
		op.Operator = DefaultOperator(spec.Kind)
	}

	s.nodes[op.ID] = op
	s.order = append(s.order, op.ID)
	s.logger.Debug("operand added",
		zap.String("id", op.ID),
		zap.String("kind", string(op.Kind)),
		zap.String("operator", string(op.Operator)))
	return op.Clone(), nil
}

// UpdateOperand changes the label and value of a reference operand, top-level
// or inside a group. Kind, id and operator are kept.
func (s *Store) UpdateOperand(id, label string, value *float64) bool {
	op := s.lookup(id)
	if op == nil {
		s.ignore("update", id, "unknown id")
		return false
	}
	spec := Spec{Kind: op.Kind, Label: label, LiteralValue: value}
	if err := spec.Validate(); err != nil {
		s.ignore("update", id, err.Error())
		return false
	}
	op.Label = label
	op.LiteralValue = nil
	if value != nil {
		v := *value
		op.LiteralValue = &v
	}
	return true
}

// SetOperator changes the operator of a top-level operand other than the
// first.
func (s *Store) SetOperator(id string, operator Operator) bool {
	if !operator.Valid() {
		s.ignore("set-operator", id, "invalid operator")
		return false
	}
	idx := s.indexOf(id)
	switch {
	case idx < 0:
		s.ignore("set-operator", id, "unknown id")
		return false
	case idx == 0:
		s.ignore("set-operator", id, "first operand has no operator")
		return false
	}
	s.nodes[id].Operator = operator
	return true
}

// RemoveOperand removes a top-level operand. If the first operand changes its
// operator is cleared.
func (s *Store) RemoveOperand(id string) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		s.ignore("remove", id, "unknown id")
		return false
	}
	s.order = append(s.order[:idx], s.order[idx+1:]...)
	delete(s.nodes, id)
	delete(s.selected, id)
	s.normalize()
	s.logger.Debug("operand removed", zap.String("id", id), zap.Int("index", idx))
	return true
}

// Reorder moves activeID to the position held by overID, shifting the
// operands in between. The resulting head loses its operator and an operand
// moved off the head gets add.
func (s *Store) Reorder(activeID, overID string) bool {
	from := s.indexOf(activeID)
	to := s.indexOf(overID)
	if from < 0 || to < 0 {
		s.ignore("reorder", activeID, "unknown id")
		return false
	}
	if from == to {
		return true
	}
	moved := s.order[from]
	s.order = append(s.order[:from], s.order[from+1:]...)
	s.order = append(s.order[:to], append([]string{moved}, s.order[to:]...)...)
	s.normalize()
	return true
}

// GroupSelected wraps the selected top-level, non-group operands into a new
// group placed where the first of them stood. Fewer than two qualifying ids
// leave the formula unchanged. The selection is cleared on success.
func (s *Store) GroupSelected(ids []string) (Operand, bool) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	var matched []*Operand
	unmatched := make([]string, 0, len(s.order))
	firstPos := -1
	for i, id := range s.order {
		op := s.nodes[id]
		if _, ok := want[id]; ok && !op.IsGroup() {
			if firstPos < 0 {
				firstPos = i
			}
			matched = append(matched, op)
			continue
		}
		unmatched = append(unmatched, id)
	}
	if len(matched) < 2 {
		s.ignore("group", "", "fewer than two groupable operands")
		return Operand{}, false
	}

	children := make([]Operand, len(matched))
	for i, op := range matched {
		child := op.Clone()
		if i == 0 {
			child.Operator = OperatorNone
		} else if child.Operator == OperatorNone {
			child.Operator = OperatorAdd
		}
		children[i] = child
		delete(s.nodes, op.ID)
	}

	group := &Operand{
		ID:       s.freshID(),
		Kind:     KindGroup,
		Label:    GroupLabel,
		Children: children,
	}
	if firstPos > 0 {
		group.Operator = OperatorMultiply
	}

	order := make([]string, 0, len(unmatched)+1)
	order = append(order, unmatched[:firstPos]...)
	order = append(order, group.ID)
	order = append(order, unmatched[firstPos:]...)
	s.order = order
	s.nodes[group.ID] = group
	s.selected = make(map[string]struct{})
	s.normalize()

	s.logger.Debug("operands grouped",
		zap.String("group", group.ID),
		zap.Int("children", len(children)),
		zap.Int("index", firstPos))
	return group.Clone(), true
}

// Ungroup replaces a group with its children at the group's index. The first
// child takes the group's operator (add if it had none) unless the group was
// the head of the formula.
func (s *Store) Ungroup(groupID string) ([]string, bool) {
	idx := s.indexOf(groupID)
	if idx < 0 {
		s.ignore("ungroup", groupID, "unknown id")
		return nil, false
	}
	group := s.nodes[groupID]
	if !group.IsGroup() {
		s.ignore("ungroup", groupID, "not a group")
		return nil, false
	}

	restored := make([]string, 0, len(group.Children))
	for i, child := range group.Children {
		op := child.Clone()
		switch {
		case i == 0 && idx == 0:
			op.Operator = OperatorNone
		case i == 0:
			op.Operator = group.Operator
			if op.Operator == OperatorNone {
				op.Operator = OperatorAdd
			}
		case op.Operator == OperatorNone:
			op.Operator = OperatorAdd
		}
		s.nodes[op.ID] = &op
		restored = append(restored, op.ID)
	}

	order := make([]string, 0, len(s.order)+len(restored)-1)
	order = append(order, s.order[:idx]...)
	order = append(order, restored...)
	order = append(order, s.order[idx+1:]...)
	s.order = order
	delete(s.nodes, groupID)
	delete(s.selected, groupID)
	s.normalize()

	s.logger.Debug("group dissolved", zap.String("group", groupID), zap.Int("children", len(restored)))
	return restored, true
}

// normalize clears the head operator and gives every other top-level
// operand one.
func (s *Store) normalize() {
	for i, id := range s.order {
		op := s.nodes[id]
		if i == 0 {
			op.Operator = OperatorNone
		} else if op.Operator == OperatorNone {
			op.Operator = OperatorAdd
		}
	}
}

func (s *Store) ignore(action, id, reason string) {
	s.logger.Debug("mutation ignored",
		zap.String("action", action),
		zap.String("id", id),
		zap.String("reason", reason))
}
