package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effectus/calcmetric-go/formula"
	"github.com/effectus/calcmetric-go/internal/testutils"
)

func metric(id, label string, op formula.Operator) formula.Operand {
	return formula.Operand{ID: id, Kind: formula.KindMetric, Label: label, Operator: op}
}

func TestLintCleanFormula(t *testing.T) {
	s, err := testutils.NewStore(testutils.Metric("A"), testutils.Metric("B"), testutils.Constant("C", 3))
	require.NoError(t, err)
	_, ok := s.GroupSelected([]string{"op-2", "op-3"})
	require.True(t, ok)

	assert.Empty(t, LintFormula(s.Operands()))
}

func TestLintDetectsLeadingOperator(t *testing.T) {
	issues := LintFormula([]formula.Operand{
		metric("a", "A", formula.OperatorAdd),
		metric("b", "B", formula.OperatorAdd),
	})
	assert.True(t, hasIssue(issues, CodeLeadingOperator))
}

func TestLintDetectsMissingOperator(t *testing.T) {
	issues := LintFormula([]formula.Operand{
		metric("a", "A", formula.OperatorNone),
		metric("b", "B", formula.OperatorNone),
	})
	require.True(t, hasIssue(issues, CodeMissingOperator))
	assert.Equal(t, "b", findIssue(issues, CodeMissingOperator).OperandID())
}

func TestLintDetectsUnknownOperator(t *testing.T) {
	issues := LintFormula([]formula.Operand{
		metric("a", "A", formula.OperatorNone),
		metric("b", "B", formula.Operator("divide")),
	})
	assert.True(t, hasIssue(issues, CodeUnknownOperator))
}

func TestLintDetectsDuplicateIDsAcrossGroups(t *testing.T) {
	issues := LintFormula([]formula.Operand{
		metric("a", "A", formula.OperatorNone),
		{ID: "g", Kind: formula.KindGroup, Label: "Group", Operator: formula.OperatorMultiply, Children: []formula.Operand{
			metric("a", "A again", formula.OperatorNone),
			metric("c", "C", formula.OperatorAdd),
		}},
	})
	require.True(t, hasIssue(issues, CodeDuplicateID))
	assert.Equal(t, []string{"g", "a"}, findIssue(issues, CodeDuplicateID).Path)
}

func TestLintDetectsGroupProblems(t *testing.T) {
	issues := LintFormula([]formula.Operand{
		{ID: "g", Kind: formula.KindGroup, Label: "Group", Children: []formula.Operand{
			metric("a", "A", formula.OperatorAdd),
			{ID: "h", Kind: formula.KindGroup, Label: "Group", Operator: formula.OperatorAdd, Children: []formula.Operand{
				metric("b", "B", formula.OperatorNone),
			}},
		}},
		metric("c", "C", formula.OperatorAdd),
	})
	assert.True(t, hasIssue(issues, CodeLeadingOperator))
	assert.True(t, hasIssue(issues, CodeNestedGroup))
	assert.True(t, hasIssue(issues, CodeGroupTooSmall))
}

func TestLintDetectsShapeMismatches(t *testing.T) {
	issues := LintFormula([]formula.Operand{
		{ID: "a", Kind: formula.KindConstant, Label: "VAT"},
		{ID: "b", Kind: formula.KindMetric, Label: "B", Operator: formula.OperatorAdd, LiteralValue: formula.Value(1)},
		{ID: "c", Kind: formula.KindMetric, Operator: formula.OperatorAdd, Children: []formula.Operand{}},
		{ID: "d", Kind: "widget", Label: "D", Operator: formula.OperatorAdd},
	})
	assert.True(t, hasIssue(issues, CodeLiteralMismatch))
	assert.True(t, hasIssue(issues, CodeChildrenMismatch))
	assert.True(t, hasIssue(issues, CodeEmptyLabel))
	assert.True(t, hasIssue(issues, CodeUnknownKind))
	assert.True(t, HasErrors(issues))
}

func TestLintReadiness(t *testing.T) {
	single := []formula.Operand{metric("a", "A", formula.OperatorNone)}

	issues := LintFormula(single)
	require.True(t, hasIssue(issues, CodeTooFewOperands))
	assert.False(t, HasErrors(issues))

	issues = LintFormulaWithOptions(single, LintOptions{Readiness: ReadinessError, MinOperands: 2})
	assert.True(t, HasErrors(issues))

	issues = LintFormulaWithOptions(nil, LintOptions{Readiness: ReadinessIgnore, MinOperands: 2})
	assert.Empty(t, issues)
}

func TestParseReadinessMode(t *testing.T) {
	mode, err := ParseReadinessMode("ERR")
	require.NoError(t, err)
	assert.Equal(t, ReadinessError, mode)

	mode, err = ParseReadinessMode("")
	require.NoError(t, err)
	assert.Equal(t, ReadinessWarn, mode)

	_, err = ParseReadinessMode("loud")
	assert.Error(t, err)
}

func TestIssueString(t *testing.T) {
	issue := Issue{Path: []string{"g", "a"}, Severity: SeverityError, Code: CodeDuplicateID, Message: "dup"}
	assert.Equal(t, "g/a: error [duplicate-id] dup", issue.String())
	assert.Equal(t, "formula: warning [too-few-operands] x", Issue{Severity: SeverityWarning, Code: CodeTooFewOperands, Message: "x"}.String())
}

func hasIssue(issues []Issue, code string) bool {
	_, ok := lookupIssue(issues, code)
	return ok
}

func findIssue(issues []Issue, code string) Issue {
	issue, _ := lookupIssue(issues, code)
	return issue
}

func lookupIssue(issues []Issue, code string) (Issue, bool) {
	for _, issue := range issues {
		if issue.Code == code {
			return issue, true
		}
	}
	return Issue{}, false
}
