package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigation(t *testing.T) {
	f := Default()

	step, ok := f.Current()
	require.True(t, ok)
	assert.Equal(t, "cost", step.ID)

	assert.False(t, f.Previous())
	assert.True(t, f.Next())
	step, _ = f.Current()
	assert.Equal(t, "impressions", step.ID)

	require.NoError(t, f.Select("deposit-balance-load"))
	assert.False(t, f.Next())
	assert.True(t, f.Previous())
	step, _ = f.Current()
	assert.Equal(t, "first-deposit", step.ID)

	assert.ErrorIs(t, f.Select("nope"), ErrUnknownStep)
}

func TestEmptyFunnel(t *testing.T) {
	f := New(nil)
	_, ok := f.Current()
	assert.False(t, ok)
	assert.False(t, f.Next())
	assert.False(t, f.Previous())
}

func TestAssign(t *testing.T) {
	f := Default()
	require.NoError(t, f.Assign("cost", "Calculated metric", "A + B = Result"))

	step := f.Steps()[0]
	assert.True(t, step.Assigned)
	assert.Equal(t, "Calculated metric", step.AssignmentType)
	assert.Equal(t, "A + B = Result", step.Value)

	assert.ErrorIs(t, f.Assign("nope", "x", "y"), ErrUnknownStep)
}

func TestStepsReturnsCopy(t *testing.T) {
	f := Default()
	steps := f.Steps()
	steps[0].Name = "changed"
	assert.Equal(t, "COST", f.Steps()[0].Name)
}

func TestParseMappingType(t *testing.T) {
	mt, err := ParseMappingType(" Calculated-Metric ")
	require.NoError(t, err)
	assert.Equal(t, MappingCalculatedMetric, mt)

	_, err = ParseMappingType("magic")
	assert.Error(t, err)
}
