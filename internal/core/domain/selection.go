package domain

// Selection records who selected a keyword or cluster.
// It replaces two independent booleans so that every value is meaningful.
type Selection string

// Selection values.
const (
	SelectionNone      Selection = "NONE"
	SelectionAutomatic Selection = "AUTOMATIC"
	SelectionOperator  Selection = "OPERATOR"
	SelectionBoth      Selection = "BOTH"
)

// ParseSelection builds a Selection from the two provenance flags.
func ParseSelection(automatic, operator bool) Selection {
	switch {
	case automatic && operator:
		return SelectionBoth
	case automatic:
		return SelectionAutomatic
	case operator:
		return SelectionOperator
	default:
		return SelectionNone
	}
}

// ByAutomatic reports whether the automatic selector picked the item.
func (s Selection) ByAutomatic() bool {
	return s == SelectionAutomatic || s == SelectionBoth
}

// ByOperator reports whether an operator picked the item.
func (s Selection) ByOperator() bool {
	return s == SelectionOperator || s == SelectionBoth
}

// IsSelected reports whether anyone picked the item.
func (s Selection) IsSelected() bool {
	return s.ByAutomatic() || s.ByOperator()
}

// WithAutomatic sets or clears the automatic provenance. The operator
// provenance is left as it was.
func (s Selection) WithAutomatic(selected bool) Selection {
	return ParseSelection(selected, s.ByOperator())
}

// WithOperator sets or clears the operator provenance. The automatic
// provenance is left as it was, so an operator deselecting an automatic
// pick that they also confirmed returns it to AUTOMATIC.
func (s Selection) WithOperator(selected bool) Selection {
	return ParseSelection(s.ByAutomatic(), selected)
}

// SelectionOrigin names whose flag a selection change targets.
type SelectionOrigin string

// Selection origins. The values match the JSON the planner UI sends.
const (
	OriginAutomatic SelectionOrigin = "ai"
	OriginOperator  SelectionOrigin = "user"
)

// Valid reports whether the origin is known. Empty means operator.
func (o SelectionOrigin) Valid() bool {
	return o == "" || o == OriginAutomatic || o == OriginOperator
}

// Apply records a selection change made through the review screen.
// Automatic changes only touch the automatic flag. An operator deselecting
// a pick nobody confirmed drops the automatic flag as well; deselecting a
// confirmed pick (BOTH) returns it to AUTOMATIC.
func (s Selection) Apply(origin SelectionOrigin, selected bool) Selection {
	if origin == OriginAutomatic {
		return s.WithAutomatic(selected)
	}

	if !selected && s == SelectionAutomatic {
		return SelectionNone
	}

	return s.WithOperator(selected)
}

// Consolidate collapses BOTH into OPERATOR once an operator has reviewed
// the selection. Other values are unchanged.
func (s Selection) Consolidate() Selection {
	if s == SelectionBoth {
		return SelectionOperator
	}

	return s
}

// Valid reports whether the value is one of the known selections.
func (s Selection) Valid() bool {
	switch s {
	case SelectionNone, SelectionAutomatic, SelectionOperator, SelectionBoth:
		return true
	}

	return false
}
