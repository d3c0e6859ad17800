package ast

import (
	"strconv"
	"strings"
)

func unquoteString(value string) string {
	if value == "" {
		return value
	}
	unquoted, err := strconv.Unquote(value)
	if err != nil {
		return value
	}
	return unquoted
}

// PostProcess splits raw references into kind and id.
func (r *Ref) PostProcess() {
	if r == nil {
		return
	}
	kind, id, _ := strings.Cut(r.Raw, ":")
	r.Kind = kind
	r.ID = unquoteString(id)
}

// PostProcess normalizes every reference in the formula.
func (f *Formula) PostProcess() {
	if f == nil {
		return
	}
	for _, term := range f.Terms() {
		term.postProcess()
	}
}

func (t *Term) postProcess() {
	if t == nil {
		return
	}
	if t.Ref != nil {
		t.Ref.PostProcess()
	}
	if t.Group != nil {
		for _, child := range t.Group.Terms() {
			child.postProcess()
		}
	}
}
