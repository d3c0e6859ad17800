// Package funnel models the marketing funnel whose steps are mapped to
// metrics, including calculated ones.
package funnel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStep is returned for a step id that is not in the funnel.
var ErrUnknownStep = errors.New("unknown funnel step")

// MappingType is how a funnel step obtains its value.
type MappingType string

const (
	MappingAssignMetric      MappingType = "assign-metric"
	MappingCustomConversions MappingType = "custom-conversions"
	MappingUTMTracking       MappingType = "utm-tracking"
	MappingCustomImport      MappingType = "custom-import"
	MappingCustomMetric      MappingType = "custom-metric"
	MappingCalculatedMetric  MappingType = "calculated-metric"
	MappingIgnore            MappingType = "ignore-mapping"
)

var mappingTypes = []MappingType{
	MappingAssignMetric,
	MappingCustomConversions,
	MappingUTMTracking,
	MappingCustomImport,
	MappingCustomMetric,
	MappingCalculatedMetric,
	MappingIgnore,
}

// ParseMappingType validates a mapping type name.
func ParseMappingType(raw string) (MappingType, error) {
	candidate := MappingType(strings.TrimSpace(strings.ToLower(raw)))
	for _, mt := range mappingTypes {
		if mt == candidate {
			return mt, nil
		}
	}
	return "", fmt.Errorf("unknown mapping type: %s", raw)
}

// Step is one stage of the funnel.
type Step struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	Assigned       bool   `yaml:"assigned" json:"isAssigned"`
	AssignmentType string `yaml:"assignment_type,omitempty" json:"assignmentType,omitempty"`
	Value          string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Funnel is an ordered list of steps with a cursor on the step being edited.
type Funnel struct {
	steps   []Step
	current int
}

// New creates a funnel positioned on its first step.
func New(steps []Step) *Funnel {
	return &Funnel{steps: append([]Step(nil), steps...)}
}

// Default returns the standard acquisition funnel.
func Default() *Funnel {
	return New([]Step{
		{ID: "cost", Name: "COST"},
		{ID: "impressions", Name: "Impressions", Assigned: true, AssignmentType: "Assign metric", Value: "Impressions (paid)"},
		{ID: "clicks", Name: "Clicks", Assigned: true, AssignmentType: "Assign metric", Value: "Clicks (paid)"},
		{ID: "registration", Name: "Registration", Assigned: true, AssignmentType: "Custom conversions", Value: "Multiple custom conversions"},
		{ID: "first-deposit", Name: "First Deposit", Assigned: true, AssignmentType: "Custom conversions", Value: "Multiple custom conversions"},
		{ID: "deposit-balance-load", Name: "Deposit Balance Load", Assigned: true, AssignmentType: "Custom conversions", Value: "Multiple custom conversions"},
	})
}

// Steps returns a copy of the steps.
func (f *Funnel) Steps() []Step {
	return append([]Step(nil), f.steps...)
}

// Current returns the step being edited. ok is false for an empty funnel.
func (f *Funnel) Current() (Step, bool) {
	if len(f.steps) == 0 {
		return Step{}, false
	}
	return f.steps[f.current], true
}

// Select moves the cursor to the step with the given id.
func (f *Funnel) Select(id string) error {
	idx := f.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	f.current = idx
	return nil
}

// Next advances the cursor and reports whether it moved.
func (f *Funnel) Next() bool {
	if f.current >= len(f.steps)-1 {
		return false
	}
	f.current++
	return true
}

// Previous moves the cursor back and reports whether it moved.
func (f *Funnel) Previous() bool {
	if f.current == 0 {
		return false
	}
	f.current--
	return true
}

// Assign records the mapping of a step.
func (f *Funnel) Assign(id, assignmentType, value string) error {
	idx := f.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}
	step := &f.steps[idx]
	step.Assigned = true
	step.AssignmentType = assignmentType
	step.Value = value
	return nil
}

func (f *Funnel) indexOf(id string) int {
	for i, step := range f.steps {
		if step.ID == id {
			return i
		}
	}
	return -1
}
