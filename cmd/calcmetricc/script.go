package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/effectus/calcmetric-go/formula"
	"github.com/effectus/calcmetric-go/funnel"
	"github.com/effectus/calcmetric-go/session"
)

// Script is a recorded editing session. Steps refer to operands through the
// aliases given with "as"; raw operand ids work too.
//
//	name: Net paid clicks
//	step: cost
//	steps:
//	  - {op: add, ref: "metric:clicks-paid", as: clicks}
//	  - {op: add, ref: "constant:vat-rate", as: vat}
//	  - {op: operator, target: vat, operator: subtract}
//	  - {op: save}
type Script struct {
	Name  string       `yaml:"name"`
	Step  string       `yaml:"step"`
	Steps []ScriptStep `yaml:"steps"`
}

// ScriptStep is one editing action.
type ScriptStep struct {
	Op       string   `yaml:"op"`
	Ref      string   `yaml:"ref,omitempty"`
	As       string   `yaml:"as,omitempty"`
	Target   string   `yaml:"target,omitempty"`
	Targets  []string `yaml:"targets,omitempty"`
	Over     string   `yaml:"over,omitempty"`
	Operator string   `yaml:"operator,omitempty"`
	Label    string   `yaml:"label,omitempty"`
	Number   *float64 `yaml:"number,omitempty"`
	Value    string   `yaml:"value,omitempty"`
}

func loadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return parseScript(data)
}

func parseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("script has no steps")
	}
	return &script, nil
}

type scriptRunner struct {
	app     *app
	sess    *session.Session
	aliases map[string]string
}

// runScript replays script against a fresh session and prints the formula
// label after every step.
func (a *app) runScript(script *Script) error {
	sess := session.New(funnel.Default(), session.WithLogger(a.logger))

	stepID := script.Step
	if stepID == "" {
		stepID = a.cfg.DefaultStep
	}
	if stepID != "" {
		if err := sess.Funnel().Select(stepID); err != nil {
			return err
		}
	}
	sess.SetMetricName(script.Name)

	r := &scriptRunner{app: a, sess: sess, aliases: make(map[string]string)}
	for i, st := range script.Steps {
		changed, err := r.apply(st)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
		label := sess.Label()
		if label == "" {
			label = "(empty)"
		}
		if !changed {
			label += "  (no change)"
		}
		fmt.Fprintf(a.out, "%2d %-10s %s\n", i+1, st.Op, label)
	}
	return nil
}

func (r *scriptRunner) resolve(ref string) string {
	if id, ok := r.aliases[ref]; ok {
		return id
	}
	return ref
}

func (r *scriptRunner) targets(st ScriptStep) []string {
	raw := st.Targets
	if st.Target != "" {
		raw = append([]string{st.Target}, raw...)
	}
	ids := make([]string, 0, len(raw))
	for _, t := range raw {
		ids = append(ids, r.resolve(t))
	}
	return ids
}

func (r *scriptRunner) apply(st ScriptStep) (bool, error) {
	store := r.sess.Store()
	switch strings.ToLower(strings.TrimSpace(st.Op)) {
	case "add":
		spec, err := r.spec(st)
		if err != nil {
			return false, err
		}
		op, err := store.AddOperand(spec)
		if err != nil {
			return false, err
		}
		if st.As != "" {
			r.aliases[st.As] = op.ID
		}
		return true, nil

	case "operator", "set-operator":
		operator := formula.OperatorNone
		if name := strings.TrimSpace(st.Operator); name != "" && name != "none" {
			parsed, err := formula.ParseOperator(name)
			if err != nil {
				return false, err
			}
			operator = parsed
		}
		return store.SetOperator(r.resolve(st.Target), operator), nil

	case "update":
		return store.UpdateOperand(r.resolve(st.Target), st.Label, st.Number), nil

	case "remove":
		return store.RemoveOperand(r.resolve(st.Target)), nil

	case "reorder":
		return store.Reorder(r.resolve(st.Target), r.resolve(st.Over)), nil

	case "select":
		changed := false
		for _, id := range r.targets(st) {
			changed = store.Select(id) || changed
		}
		return changed, nil

	case "deselect":
		changed := false
		for _, id := range r.targets(st) {
			changed = store.Deselect(id) || changed
		}
		return changed, nil

	case "group":
		var (
			group formula.Operand
			ok    bool
		)
		if ids := r.targets(st); len(ids) > 0 {
			group, ok = store.GroupSelected(ids)
		} else {
			group, ok = store.GroupSelection()
		}
		if ok && st.As != "" {
			r.aliases[st.As] = group.ID
		}
		return ok, nil

	case "ungroup":
		_, ok := store.Ungroup(r.resolve(st.Target))
		return ok, nil

	case "name":
		r.sess.SetMetricName(st.Value)
		return true, nil

	case "mapping":
		mt, err := funnel.ParseMappingType(st.Value)
		if err != nil {
			return false, err
		}
		r.sess.SetMappingType(mt)
		return true, nil

	case "save":
		step, err := r.sess.SaveProgress()
		if err != nil {
			return false, err
		}
		r.app.logger.Info("step saved", zap.String("step", step.ID), zap.String("value", step.Value))
		fmt.Fprintf(r.app.out, "   saved %s: %s\n", step.ID, step.Value)
		return true, nil

	case "next":
		return r.sess.NextStep(), nil

	case "previous":
		return r.sess.PreviousStep(), nil

	case "reset":
		r.sess.Reset()
		return true, nil

	default:
		return false, fmt.Errorf("unknown script op %q", st.Op)
	}
}

// spec builds the operand for an add step: a catalog reference "kind:id" or
// an inline number.
func (r *scriptRunner) spec(st ScriptStep) (formula.Spec, error) {
	if st.Number != nil {
		label := st.Label
		if label == "" {
			label = formula.FormatValue(*st.Number)
		}
		return formula.Spec{Kind: formula.KindConstant, Label: label, LiteralValue: st.Number}, nil
	}

	rawKind, id, ok := strings.Cut(st.Ref, ":")
	if !ok || id == "" {
		return formula.Spec{}, fmt.Errorf("reference %q must look like kind:id", st.Ref)
	}
	kind, err := formula.ParseKind(rawKind)
	if err != nil {
		return formula.Spec{}, err
	}
	return r.app.catalog.Spec(kind, id)
}
