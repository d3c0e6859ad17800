package lint

import (
	"fmt"
	"strings"

	"github.com/effectus/calcmetric-go/formula"
)

const (
	SeverityWarning = "warning"
	SeverityError   = "error"

	CodeDuplicateID      = "duplicate-id"
	CodeLeadingOperator  = "leading-operator"
	CodeMissingOperator  = "missing-operator"
	CodeUnknownOperator  = "unknown-operator"
	CodeGroupTooSmall    = "group-too-small"
	CodeNestedGroup      = "nested-group"
	CodeLiteralMismatch  = "literal-mismatch"
	CodeChildrenMismatch = "children-mismatch"
	CodeEmptyLabel       = "empty-label"
	CodeUnknownKind      = "unknown-kind"
	CodeTooFewOperands   = "too-few-operands"
)

// ReadinessMode controls how an incomplete formula is reported.
type ReadinessMode string

const (
	ReadinessIgnore ReadinessMode = "ignore"
	ReadinessWarn   ReadinessMode = "warn"
	ReadinessError  ReadinessMode = "error"
)

// LintOptions configures lint behavior.
type LintOptions struct {
	Readiness   ReadinessMode
	MinOperands int
}

// DefaultOptions returns the default lint options.
func DefaultOptions() LintOptions {
	return LintOptions{Readiness: ReadinessWarn, MinOperands: 2}
}

// ParseReadinessMode parses a string into ReadinessMode.
func ParseReadinessMode(raw string) (ReadinessMode, error) {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	switch trimmed {
	case "", "warn", "warning":
		return ReadinessWarn, nil
	case "error", "err":
		return ReadinessError, nil
	case "ignore", "off", "none":
		return ReadinessIgnore, nil
	default:
		return ReadinessWarn, fmt.Errorf("unknown readiness mode: %s", raw)
	}
}

// Issue represents a linter finding. Path holds the ids from the top-level
// operand down to the offending one.
type Issue struct {
	Path     []string
	Severity string
	Code     string
	Message  string
}

// OperandID returns the id of the offending operand, if any.
func (i Issue) OperandID() string {
	if len(i.Path) == 0 {
		return ""
	}
	return i.Path[len(i.Path)-1]
}

func (i Issue) String() string {
	location := strings.Join(i.Path, "/")
	if location == "" {
		location = "formula"
	}
	return fmt.Sprintf("%s: %s [%s] %s", location, i.Severity, i.Code, i.Message)
}

// LintFormula runs lint checks on a formula.
func LintFormula(ops []formula.Operand) []Issue {
	return LintFormulaWithOptions(ops, DefaultOptions())
}

// LintFormulaWithOptions runs lint checks with custom options.
func LintFormulaWithOptions(ops []formula.Operand, options LintOptions) []Issue {
	issues := make([]Issue, 0)
	seen := make(map[string]struct{})

	issues = append(issues, lintSequence(ops, nil, seen)...)
	issues = append(issues, lintReadiness(ops, options)...)
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func lintSequence(ops []formula.Operand, parent []string, seen map[string]struct{}) []Issue {
	var issues []Issue
	for i, op := range ops {
		path := append(append([]string(nil), parent...), op.ID)

		if _, dup := seen[op.ID]; dup {
			issues = append(issues, errorAt(path, CodeDuplicateID, fmt.Sprintf("operand id %q is used more than once", op.ID)))
		}
		seen[op.ID] = struct{}{}

		issues = append(issues, lintOperator(path, op, i)...)
		issues = append(issues, lintShape(path, op)...)

		if op.IsGroup() {
			if len(parent) > 0 {
				issues = append(issues, errorAt(path, CodeNestedGroup, "groups cannot contain groups"))
			}
			if len(op.Children) < 2 {
				issues = append(issues, errorAt(path, CodeGroupTooSmall,
					fmt.Sprintf("group has %d operand(s), needs at least 2", len(op.Children))))
			}
			issues = append(issues, lintSequence(op.Children, path, seen)...)
		}
	}
	return issues
}

func lintOperator(path []string, op formula.Operand, index int) []Issue {
	if op.Operator != formula.OperatorNone && !op.Operator.Valid() {
		return []Issue{errorAt(path, CodeUnknownOperator, fmt.Sprintf("unknown operator %q", op.Operator))}
	}
	if index == 0 && op.Operator != formula.OperatorNone {
		return []Issue{errorAt(path, CodeLeadingOperator, "the first operand of a sequence cannot have an operator")}
	}
	if index > 0 && op.Operator == formula.OperatorNone {
		return []Issue{errorAt(path, CodeMissingOperator, "operand has no operator")}
	}
	return nil
}

func lintShape(path []string, op formula.Operand) []Issue {
	var issues []Issue
	if !op.Kind.Valid() {
		issues = append(issues, errorAt(path, CodeUnknownKind, fmt.Sprintf("unknown operand kind %q", op.Kind)))
	}
	if (op.Kind == formula.KindConstant) != (op.LiteralValue != nil) {
		issues = append(issues, errorAt(path, CodeLiteralMismatch, "only constants carry a literal value, and every constant needs one"))
	}
	if op.IsGroup() != (op.Children != nil) {
		issues = append(issues, errorAt(path, CodeChildrenMismatch, "only groups carry children"))
	}
	if op.Kind != formula.KindConstant && strings.TrimSpace(op.Label) == "" {
		issues = append(issues, errorAt(path, CodeEmptyLabel, "operand has no label"))
	}
	return issues
}

func lintReadiness(ops []formula.Operand, options LintOptions) []Issue {
	if options.Readiness == ReadinessIgnore || len(ops) >= options.MinOperands {
		return nil
	}
	severity := SeverityWarning
	if options.Readiness == ReadinessError {
		severity = SeverityError
	}
	return []Issue{{
		Severity: severity,
		Code:     CodeTooFewOperands,
		Message:  fmt.Sprintf("formula has %d operand(s), a calculated metric needs at least %d", len(ops), options.MinOperands),
	}}
}

func errorAt(path []string, code, message string) Issue {
	return Issue{Path: path, Severity: SeverityError, Code: code, Message: message}
}
