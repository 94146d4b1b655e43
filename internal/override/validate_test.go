package override

import "testing"

func TestValidateReferences_SameProjectOK(t *testing.T) {
	overrides := []Override{
		{
			Name:  "ov1",
			Value: Value{Kind: ValueKindReference, Reference: &Reference{ProjectID: "p1", ConfigName: "other"}},
		},
	}
	if err := ValidateReferences(overrides, "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateReferences_CrossProjectRejected(t *testing.T) {
	overrides := []Override{
		{
			Name:  "ov1",
			Value: Value{Kind: ValueKindReference, Reference: &Reference{ProjectID: "p2", ConfigName: "other"}},
		},
	}
	if err := ValidateReferences(overrides, "p1"); err == nil {
		t.Fatal("expected error for cross-project reference")
	}
}

func TestValidateReferences_ConditionRHSCrossProjectRejected(t *testing.T) {
	overrides := []Override{
		{
			Name: "ov1",
			Conditions: []Condition{
				{Op: OpEquals, Property: "tier", RHS: Value{Kind: ValueKindReference, Reference: &Reference{ProjectID: "p2", ConfigName: "tiers"}}},
			},
			Value: Value{Kind: ValueKindLiteral, Literal: "x"},
		},
	}
	if err := ValidateReferences(overrides, "p1"); err == nil {
		t.Fatal("expected error for cross-project condition reference")
	}
}

func TestValidateReferences_NestedConditionChecked(t *testing.T) {
	overrides := []Override{
		{
			Name: "ov1",
			Conditions: []Condition{
				{Op: OpAnd, Children: []Condition{
					{Op: OpEquals, Property: "tier", RHS: Value{Kind: ValueKindReference, Reference: &Reference{ProjectID: "other-proj", ConfigName: "tiers"}}},
				}},
			},
			Value: Value{Kind: ValueKindLiteral, Literal: "x"},
		},
	}
	if err := ValidateReferences(overrides, "p1"); err == nil {
		t.Fatal("expected error for cross-project reference nested under and")
	}
}
