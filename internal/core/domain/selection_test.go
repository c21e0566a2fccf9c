package domain

import "testing"

func TestSelectionTransitions(t *testing.T) {
	tests := []struct {
		name string
		from Selection
		op   func(Selection) Selection
		want Selection
	}{
		{name: "automatic select from none", from: SelectionNone, op: func(s Selection) Selection { return s.WithAutomatic(true) }, want: SelectionAutomatic},
		{name: "operator confirms automatic", from: SelectionAutomatic, op: func(s Selection) Selection { return s.WithOperator(true) }, want: SelectionBoth},
		{name: "operator clears both keeps automatic", from: SelectionBoth, op: func(s Selection) Selection { return s.WithOperator(false) }, want: SelectionAutomatic},
		{name: "automatic clears both keeps operator", from: SelectionBoth, op: func(s Selection) Selection { return s.WithAutomatic(false) }, want: SelectionOperator},
		{name: "operator clears own pick", from: SelectionOperator, op: func(s Selection) Selection { return s.WithOperator(false) }, want: SelectionNone},
		{name: "operator clear on automatic is no-op", from: SelectionAutomatic, op: func(s Selection) Selection { return s.WithOperator(false) }, want: SelectionAutomatic},
		{name: "consolidate both", from: SelectionBoth, op: Selection.Consolidate, want: SelectionOperator},
		{name: "consolidate automatic", from: SelectionAutomatic, op: Selection.Consolidate, want: SelectionAutomatic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op(tt.from); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSelectionApply(t *testing.T) {
	tests := []struct {
		name     string
		from     Selection
		origin   SelectionOrigin
		selected bool
		want     Selection
	}{
		{name: "operator drops unconfirmed automatic pick", from: SelectionAutomatic, origin: OriginOperator, want: SelectionNone},
		{name: "empty origin acts as operator", from: SelectionAutomatic, want: SelectionNone},
		{name: "operator drops confirmation", from: SelectionBoth, origin: OriginOperator, want: SelectionAutomatic},
		{name: "operator drops own pick", from: SelectionOperator, origin: OriginOperator, want: SelectionNone},
		{name: "operator confirms automatic pick", from: SelectionAutomatic, origin: OriginOperator, selected: true, want: SelectionBoth},
		{name: "automatic flag cleared", from: SelectionBoth, origin: OriginAutomatic, want: SelectionOperator},
		{name: "automatic flag cleared alone", from: SelectionAutomatic, origin: OriginAutomatic, want: SelectionNone},
		{name: "automatic flag set", from: SelectionOperator, origin: OriginAutomatic, selected: true, want: SelectionBoth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.Apply(tt.origin, tt.selected); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSelectionOriginValid(t *testing.T) {
	for _, o := range []SelectionOrigin{"", OriginAutomatic, OriginOperator} {
		if !o.Valid() {
			t.Errorf("%q should be valid", o)
		}
	}

	if SelectionOrigin("robot").Valid() {
		t.Error("unknown origin should be invalid")
	}
}

func TestCountSelections(t *testing.T) {
	keywords := []*Keyword{
		{Selection: SelectionAutomatic},
		{Selection: SelectionOperator},
		{Selection: SelectionBoth},
		{Selection: SelectionNone},
	}

	got := CountSelections(keywords)

	if got.Automatic != 2 {
		t.Errorf("Automatic = %d, want 2", got.Automatic)
	}

	if got.Operator != 2 {
		t.Errorf("Operator = %d, want 2", got.Operator)
	}

	if got.Selected != 3 {
		t.Errorf("Selected = %d, want 3", got.Selected)
	}
}

func TestRunStatusTransitions(t *testing.T) {
	if !RunPending.CanTransition(RunInProgress) {
		t.Error("PENDING -> IN_PROGRESS should be allowed")
	}

	if !RunCompleted.CanTransition(RunApproved) {
		t.Error("COMPLETED -> APPROVED should be allowed")
	}

	if RunFailed.CanTransition(RunApproved) {
		t.Error("FAILED -> APPROVED should be rejected")
	}

	if RunApproved.CanTransition(RunInProgress) {
		t.Error("APPROVED is terminal")
	}
}
