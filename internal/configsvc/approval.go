package configsvc

import (
	"fmt"

	"kv-shepherd.io/shepherd/internal/store"
)

// changeSet records which parts of a config edit touch which entities,
// the input isApprovalRequired inspects (spec.md §4.6's direct-edit
// gating paragraph).
type changeSet struct {
	touchesDescription  bool
	touchesValue        bool
	touchesSchema       bool
	touchesOverrides    bool
	touchesMembers      bool
	touchedEnvironments []string
}

func (c changeSet) touchesConfigLevelFields() bool {
	return c.touchesDescription || c.touchesValue || c.touchesSchema || c.touchesOverrides || c.touchesMembers
}

// isApprovalRequired implements spec.md §4.6's "structured predicate": a
// project-wide default gates config-level fields, while each touched
// environment's own requireProposals flag gates its variant.
func isApprovalRequired(project store.Project, environments map[string]store.Environment, cs changeSet) (bool, string) {
	if project.RequireProposals && cs.touchesConfigLevelFields() {
		return true, "project requires proposals for config edits"
	}
	for _, envID := range cs.touchedEnvironments {
		env, ok := environments[envID]
		if ok && env.RequireProposals {
			return true, fmt.Sprintf("environment %q requires proposals for variant edits", env.Name)
		}
	}
	return false, ""
}
