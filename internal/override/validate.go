package override

import "fmt"

// ValidateReferences rejects any reference embedded in overrides (either
// a condition RHS or an override's replacement value) whose ProjectID
// differs from containingProjectID. This is spec.md §4.5's
// validateOverrideReferences, checked on every write that changes
// overrides.
func ValidateReferences(overrides []Override, containingProjectID string) error {
	for _, ov := range overrides {
		if err := validateConditionsReferences(ov.Conditions, containingProjectID); err != nil {
			return fmt.Errorf("override %q: %w", ov.Name, err)
		}
		if err := validateValueReference(ov.Value, containingProjectID); err != nil {
			return fmt.Errorf("override %q: %w", ov.Name, err)
		}
	}
	return nil
}

func validateConditionsReferences(conditions []Condition, containingProjectID string) error {
	for _, c := range conditions {
		if len(c.Children) > 0 {
			if err := validateConditionsReferences(c.Children, containingProjectID); err != nil {
				return err
			}
			continue
		}
		if err := validateValueReference(c.RHS, containingProjectID); err != nil {
			return err
		}
	}
	return nil
}

func validateValueReference(v Value, containingProjectID string) error {
	if v.Kind != ValueKindReference || v.Reference == nil {
		return nil
	}
	if v.Reference.ProjectID != containingProjectID {
		return fmt.Errorf("reference to config %q in project %q does not match containing project %q",
			v.Reference.ConfigName, v.Reference.ProjectID, containingProjectID)
	}
	return nil
}
