package configsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kv-shepherd.io/shepherd/internal/store"
)

func TestIsApprovalRequired_ProjectGatesConfigLevelFields(t *testing.T) {
	project := store.Project{RequireProposals: true}
	required, reason := isApprovalRequired(project, nil, changeSet{touchesDescription: true})
	assert.True(t, required)
	assert.Contains(t, reason, "project requires proposals")
}

func TestIsApprovalRequired_ProjectDoesNotGateWhenDisabled(t *testing.T) {
	project := store.Project{RequireProposals: false}
	required, _ := isApprovalRequired(project, nil, changeSet{touchesValue: true})
	assert.False(t, required)
}

func TestIsApprovalRequired_EnvironmentGatesVariantEdits(t *testing.T) {
	project := store.Project{RequireProposals: false}
	environments := map[string]store.Environment{
		"env-prod": {ID: "env-prod", Name: "production", RequireProposals: true},
	}
	cs := changeSet{touchedEnvironments: []string{"env-prod"}}
	required, reason := isApprovalRequired(project, environments, cs)
	assert.True(t, required)
	assert.Contains(t, reason, "production")
}

func TestIsApprovalRequired_UntouchedEnvironmentDoesNotGate(t *testing.T) {
	project := store.Project{RequireProposals: false}
	environments := map[string]store.Environment{
		"env-prod": {ID: "env-prod", RequireProposals: true},
	}
	cs := changeSet{touchedEnvironments: []string{"env-staging"}}
	required, _ := isApprovalRequired(project, environments, cs)
	assert.False(t, required)
}

func TestDiffMembers(t *testing.T) {
	before := []store.ConfigUser{
		{Email: "a@x.com", Role: store.ConfigRoleEditor},
		{Email: "b@x.com", Role: store.ConfigRoleMaintainer},
	}
	after := []MemberInput{
		{Email: "b@x.com", Role: store.ConfigRoleMaintainer},
		{Email: "c@x.com", Role: store.ConfigRoleEditor},
	}
	added, removed := diffMembers(before, after)
	assert.ElementsMatch(t, []string{"c@x.com"}, added)
	assert.ElementsMatch(t, []string{"a@x.com"}, removed)
}

func TestCanonicalOrNil_EmptyInputStaysNil(t *testing.T) {
	out, err := canonicalOrNil(nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestCanonicalOrNil_SortsObjectKeys(t *testing.T) {
	out, err := canonicalOrNil([]byte(`{"b":1,"a":2}`))
	assert.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(out))
}

func TestRosterSnapshot_IncludesMemberEmail(t *testing.T) {
	a, err := rosterSnapshot([]store.ConfigUser{{Email: "x@y.com", Role: store.ConfigRoleEditor}})
	assert.NoError(t, err)
	assert.Contains(t, string(a), `"email":"x@y.com"`)
}
