package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/effectus/calcmetric-go/catalog"
	"github.com/effectus/calcmetric-go/formula"
	"github.com/effectus/calcmetric-go/funnel"
)

func addRef(t *testing.T, s *Session, kind formula.Kind, id string) formula.Operand {
	t.Helper()
	spec, err := catalog.Default().Spec(kind, id)
	require.NoError(t, err)
	op, err := s.Store().AddOperand(spec)
	require.NoError(t, err)
	return op
}

func TestSaveProgressRequiresValidFormula(t *testing.T) {
	s := New(funnel.Default(), WithLogger(zap.NewNop()))
	assert.Equal(t, funnel.MappingCalculatedMetric, s.MappingType())

	addRef(t, s, formula.KindMetric, "clicks-paid")
	_, err := s.SaveProgress()
	assert.ErrorIs(t, err, ErrIncomplete)

	addRef(t, s, formula.KindConstant, "vat-rate")
	_, err = s.SaveProgress()
	assert.ErrorIs(t, err, ErrIncomplete, "name is still missing")

	s.SetMetricName("   ")
	assert.False(t, s.Valid())
	s.SetMetricName("Net clicks")
	require.True(t, s.Valid())

	step, err := s.SaveProgress()
	require.NoError(t, err)
	assert.Equal(t, "cost", step.ID)
	assert.True(t, step.Assigned)
	assert.Equal(t, AssignmentCalculated, step.AssignmentType)
	assert.Equal(t, "Clicks (paid) × [0.077] = Result", step.Value)
}

func TestSaveProgressOtherMappingLeavesStep(t *testing.T) {
	s := New(funnel.Default(), WithMappingType(funnel.MappingIgnore))

	step, err := s.SaveProgress()
	require.NoError(t, err)
	assert.False(t, step.Assigned)
}

func TestStepNavigationResetsBuilder(t *testing.T) {
	s := New(nil)
	addRef(t, s, formula.KindMetric, "clicks-paid")
	s.SetMetricName("Clicks")

	assert.False(t, s.PreviousStep())
	assert.Equal(t, 1, s.Store().Len(), "no move, no reset")

	require.True(t, s.NextStep())
	assert.Zero(t, s.Store().Len())
	assert.Empty(t, s.MetricName())
	assert.Equal(t, funnel.MappingAssignMetric, s.MappingType())
	step, _ := s.Funnel().Current()
	assert.Equal(t, "impressions", step.ID)

	require.True(t, s.PreviousStep())
	step, _ = s.Funnel().Current()
	assert.Equal(t, "cost", step.ID)
}

func TestSessionsAreIndependent(t *testing.T) {
	a := New(funnel.Default())
	b := New(funnel.Default())

	addRef(t, a, formula.KindMetric, "clicks-paid")
	assert.Equal(t, 1, a.Store().Len())
	assert.Zero(t, b.Store().Len())
	assert.Equal(t, "", b.Label())
}

func TestSaveProgressEmptyFunnel(t *testing.T) {
	s := New(funnel.New(nil))
	_, err := s.SaveProgress()
	assert.ErrorIs(t, err, funnel.ErrUnknownStep)
}

func TestStoreOptionsAreApplied(t *testing.T) {
	s := New(nil, WithStoreOptions(formula.WithIDGenerator(func() string { return "fixed-id" })))
	op := addRef(t, s, formula.KindMetric, "cost-paid")
	assert.Equal(t, "fixed-id", op.ID)
}
