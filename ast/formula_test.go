package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlatFormula(t *testing.T) {
	f, err := ParseString("test", "metric:clicks-paid + constant:vat-rate * 19")
	require.NoError(t, err)

	terms := f.Terms()
	require.Len(t, terms, 3)
	assert.Equal(t, []string{"", "+", "*"}, f.Operators())

	require.NotNil(t, terms[0].Ref)
	assert.Equal(t, "metric", terms[0].Ref.Kind)
	assert.Equal(t, "clicks-paid", terms[0].Ref.ID)
	assert.Equal(t, "constant", terms[1].Ref.Kind)
	require.NotNil(t, terms[2].Number)
	assert.Equal(t, 19.0, *terms[2].Number)
	assert.Empty(t, f.Result)
}

func TestParseGroupAndResultMarker(t *testing.T) {
	f, err := ParseString("test", `kpi:roas × (metric:"cost paid" − 0.5) = Result`)
	require.NoError(t, err)

	terms := f.Terms()
	require.Len(t, terms, 2)
	assert.Equal(t, []string{"", "×"}, f.Operators())
	assert.Equal(t, "Result", f.Result)

	group := terms[1].Group
	require.NotNil(t, group)
	inner := group.Terms()
	require.Len(t, inner, 2)
	assert.Equal(t, "cost paid", inner[0].Ref.ID)
	assert.Equal(t, []string{"", "−"}, group.Operators())
	assert.Equal(t, 0.5, *inner[1].Number)
}

func TestParseNestedGroupsAreSyntacticallyValid(t *testing.T) {
	f, err := ParseString("test", "metric:a + (metric:b * (metric:c - metric:d))")
	require.NoError(t, err)
	assert.NotNil(t, f.Terms()[1].Group.Terms()[1].Group)
}

func TestParseComment(t *testing.T) {
	f, err := ParseString("test", "metric:a # leading metric\n- metric:b")
	require.NoError(t, err)
	assert.Len(t, f.Terms(), 2)
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"metric:a +",
		"+ metric:a",
		"(metric:a + metric:b",
		"metric:a metric:b",
		"metric:a = Total",
	} {
		_, err := ParseString("test", src)
		assert.Error(t, err, src)
	}
}

func TestParseMinusAfterReference(t *testing.T) {
	f, err := ParseString("test", "metric:cost-1")
	require.NoError(t, err)
	require.Len(t, f.Terms(), 1)
	assert.Equal(t, "cost-1", f.Head.Ref.ID)

	f, err = ParseString("test", "metric:cost - 1")
	require.NoError(t, err)
	require.Len(t, f.Terms(), 2)
	assert.Equal(t, []string{"", "-"}, f.Operators())
	assert.Equal(t, "cost", f.Head.Ref.ID)

	f, err = ParseString("test", `metric:"cost"-1`)
	require.NoError(t, err)
	require.Len(t, f.Terms(), 2)
	assert.Equal(t, "cost", f.Head.Ref.ID)
	require.NotNil(t, f.Terms()[1].Number)
	assert.Equal(t, 1.0, *f.Terms()[1].Number)

	_, err = ParseString("test", "metric:a-metric:b")
	assert.Error(t, err)
}
