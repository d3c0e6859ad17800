// Package session ties one analyst's editing state together: the formula
// store, the metric name and the funnel step being mapped.
package session

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/effectus/calcmetric-go/formula"
	"github.com/effectus/calcmetric-go/funnel"
)

// ErrIncomplete is returned when saving a calculated metric that has fewer
// than two operands or no name.
var ErrIncomplete = errors.New("incomplete configuration: add at least 2 operands and a name")

// AssignmentCalculated is the assignment type recorded on a funnel step that
// maps to a calculated metric.
const AssignmentCalculated = "Calculated metric"

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The formula store shares it.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreOptions passes options to the session's formula store.
func WithStoreOptions(opts ...formula.Option) Option {
	return func(s *Session) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// WithMappingType sets the initial mapping type.
func WithMappingType(mt funnel.MappingType) Option {
	return func(s *Session) {
		s.mapping = mt
	}
}

// Session is the state of one editing session. It is not safe for
// concurrent use; hosts create one per analyst session.
type Session struct {
	name    string
	mapping funnel.MappingType
	store   *formula.Store
	funnel  *funnel.Funnel

	logger    *zap.Logger
	storeOpts []formula.Option
}

// New creates a session over f, starting in calculated-metric mode.
func New(f *funnel.Funnel, opts ...Option) *Session {
	if f == nil {
		f = funnel.Default()
	}
	s := &Session{
		mapping: funnel.MappingCalculatedMetric,
		funnel:  f,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	storeOpts := append([]formula.Option{formula.WithLogger(s.logger)}, s.storeOpts...)
	s.store = formula.NewStore(storeOpts...)
	return s
}

// Store returns the session's formula store.
func (s *Session) Store() *formula.Store { return s.store }

// Funnel returns the session's funnel.
func (s *Session) Funnel() *funnel.Funnel { return s.funnel }

// MetricName returns the calculated metric name.
func (s *Session) MetricName() string { return s.name }

// SetMetricName sets the calculated metric name.
func (s *Session) SetMetricName(name string) { s.name = name }

// MappingType returns the mapping type chosen for the current step.
func (s *Session) MappingType() funnel.MappingType { return s.mapping }

// SetMappingType changes the mapping type of the current step.
func (s *Session) SetMappingType(mt funnel.MappingType) { s.mapping = mt }

// Label renders the current formula.
func (s *Session) Label() string {
	return s.store.Render()
}

// Valid reports whether the calculated metric can be saved.
func (s *Session) Valid() bool {
	return s.store.Len() >= 2 && strings.TrimSpace(s.name) != ""
}

// SaveProgress records the current mapping on the current funnel step. A
// calculated metric must be valid and is saved with its formula label.
func (s *Session) SaveProgress() (funnel.Step, error) {
	step, ok := s.funnel.Current()
	if !ok {
		return funnel.Step{}, fmt.Errorf("%w: funnel has no steps", funnel.ErrUnknownStep)
	}
	if s.mapping != funnel.MappingCalculatedMetric {
		s.logger.Debug("progress saved", zap.String("step", step.ID), zap.String("mapping", string(s.mapping)))
		return step, nil
	}
	if !s.Valid() {
		return funnel.Step{}, ErrIncomplete
	}

	label := s.Label()
	if err := s.funnel.Assign(step.ID, AssignmentCalculated, label); err != nil {
		return funnel.Step{}, err
	}
	s.logger.Info("calculated metric saved",
		zap.String("step", step.ID),
		zap.String("name", s.name),
		zap.String("formula", label))
	step, _ = s.funnel.Current()
	return step, nil
}

// NextStep moves to the next funnel step, clearing the builder.
func (s *Session) NextStep() bool {
	if !s.funnel.Next() {
		return false
	}
	s.resetForStep()
	return true
}

// PreviousStep moves to the previous funnel step, clearing the builder.
func (s *Session) PreviousStep() bool {
	if !s.funnel.Previous() {
		return false
	}
	s.resetForStep()
	return true
}

// Reset clears the formula and the metric name.
func (s *Session) Reset() {
	s.store.Reset()
	s.name = ""
}

func (s *Session) resetForStep() {
	s.Reset()
	s.mapping = funnel.MappingAssignMetric
}
