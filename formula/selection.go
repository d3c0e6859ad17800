package formula

// Select marks a top-level, non-group operand for grouping.
func (s *Store) Select(id string) bool {
	op, ok := s.nodes[id]
	if !ok || op.IsGroup() {
		s.ignore("select", id, "not a selectable operand")
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

// Deselect drops id from the selection.
func (s *Store) Deselect(id string) bool {
	if _, ok := s.selected[id]; !ok {
		return false
	}
	delete(s.selected, id)
	return true
}

// ToggleSelected flips the selection state of id and reports whether it is
// now selected.
func (s *Store) ToggleSelected(id string) bool {
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false
	}
	return s.Select(id)
}

// IsSelected reports whether id is selected.
func (s *Store) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// Selected returns the selected ids in formula order.
func (s *Store) Selected() []string {
	out := make([]string, 0, len(s.selected))
	for _, id := range s.order {
		if _, ok := s.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	s.selected = make(map[string]struct{})
}

// GroupSelection groups the currently selected operands.
func (s *Store) GroupSelection() (Operand, bool) {
	return s.GroupSelected(s.Selected())
}
