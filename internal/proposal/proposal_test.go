package proposal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kv-shepherd.io/shepherd/internal/store"
)

func mustMarshalState(t *testing.T, s configState) []byte {
	t.Helper()
	raw, err := marshalConfigState(s)
	require.NoError(t, err)
	return raw
}

func TestRequiredApproverRole_Delete(t *testing.T) {
	role, err := RequiredApproverRole(store.ConfigProposal{IsDelete: true})
	require.NoError(t, err)
	assert.Equal(t, store.ConfigRoleMaintainer, role)
}

func TestRequiredApproverRole_DescriptionChangeRequiresMaintainer(t *testing.T) {
	snapshot := mustMarshalState(t, configState{Description: "old", Value: []byte("1"), Schema: []byte("null"), Overrides: []byte("null")})
	proposed := mustMarshalState(t, configState{Description: "new", Value: []byte("1"), Schema: []byte("null"), Overrides: []byte("null")})
	p := store.ConfigProposal{Snapshot: snapshot, Proposed: proposed}

	role, err := RequiredApproverRole(p)
	require.NoError(t, err)
	assert.Equal(t, store.ConfigRoleMaintainer, role)
}

func TestRequiredApproverRole_MembershipChangeRequiresMaintainer(t *testing.T) {
	snapshot := mustMarshalState(t, configState{
		Description: "d", Value: []byte("1"), Schema: []byte("null"), Overrides: []byte("null"),
		Members: []memberState{{Email: "a@x.com", Role: store.ConfigRoleEditor}},
	})
	proposed := mustMarshalState(t, configState{
		Description: "d", Value: []byte("1"), Schema: []byte("null"), Overrides: []byte("null"),
		Members: []memberState{{Email: "a@x.com", Role: store.ConfigRoleMaintainer}},
	})
	p := store.ConfigProposal{Snapshot: snapshot, Proposed: proposed}

	role, err := RequiredApproverRole(p)
	require.NoError(t, err)
	assert.Equal(t, store.ConfigRoleMaintainer, role)
}

func TestRequiredApproverRole_DefaultSchemaChangeRequiresMaintainer(t *testing.T) {
	snapshot := mustMarshalState(t, configState{Description: "d", Value: []byte("1"), Schema: []byte(`{"type":"number"}`), Overrides: []byte("null")})
	proposed := mustMarshalState(t, configState{Description: "d", Value: []byte("1"), Schema: []byte(`{"type":"string"}`), Overrides: []byte("null")})
	p := store.ConfigProposal{Snapshot: snapshot, Proposed: proposed}

	role, err := RequiredApproverRole(p)
	require.NoError(t, err)
	assert.Equal(t, store.ConfigRoleMaintainer, role)
}

func TestRequiredApproverRole_EquivalentSchemaKeyOrderDoesNotRequireMaintainer(t *testing.T) {
	snapshot := mustMarshalState(t, configState{Description: "d", Value: []byte("1"), Schema: []byte(`{"a":1,"b":2}`), Overrides: []byte("null")})
	proposed := mustMarshalState(t, configState{Description: "d", Value: []byte("2"), Schema: []byte(`{"b":2,"a":1}`), Overrides: []byte("null")})
	p := store.ConfigProposal{Snapshot: snapshot, Proposed: proposed}

	role, err := RequiredApproverRole(p)
	require.NoError(t, err)
	assert.Equal(t, store.ConfigRoleEditor, role)
}

func TestRequiredApproverRole_ValueOnlyChangeAllowsEditor(t *testing.T) {
	snapshot := mustMarshalState(t, configState{Description: "d", Value: []byte("1"), Schema: []byte("null"), Overrides: []byte("null")})
	proposed := mustMarshalState(t, configState{Description: "d", Value: []byte("2"), Schema: []byte("null"), Overrides: []byte("null")})
	p := store.ConfigProposal{Snapshot: snapshot, Proposed: proposed}

	role, err := RequiredApproverRole(p)
	require.NoError(t, err)
	assert.Equal(t, store.ConfigRoleEditor, role)
}

func TestRequiredApproverRole_DirectVariantSchemaRequiresMaintainer(t *testing.T) {
	snapshot := mustMarshalState(t, configState{Description: "d", Value: []byte("1"), Schema: []byte("null"), Overrides: []byte("null")})
	proposed := mustMarshalState(t, configState{Description: "d", Value: []byte("1"), Schema: []byte("null"), Overrides: []byte("null")})
	variants, err := marshalVariantStates([]variantState{
		{EnvironmentID: "env-1", Value: []byte("1"), Schema: []byte(`{"type":"number"}`), UseBaseSchema: false},
	})
	require.NoError(t, err)
	p := store.ConfigProposal{Snapshot: snapshot, Proposed: proposed, Variants: variants}

	role, err := RequiredApproverRole(p)
	require.NoError(t, err)
	assert.Equal(t, store.ConfigRoleMaintainer, role)
}

func TestRequiredApproverRole_VariantUsingBaseSchemaAllowsEditor(t *testing.T) {
	snapshot := mustMarshalState(t, configState{Description: "d", Value: []byte("1"), Schema: []byte("null"), Overrides: []byte("null")})
	proposed := mustMarshalState(t, configState{Description: "d", Value: []byte("1"), Schema: []byte("null"), Overrides: []byte("null")})
	variants, err := marshalVariantStates([]variantState{
		{EnvironmentID: "env-1", Value: []byte("1"), UseBaseSchema: true},
	})
	require.NoError(t, err)
	p := store.ConfigProposal{Snapshot: snapshot, Proposed: proposed, Variants: variants}

	role, err := RequiredApproverRole(p)
	require.NoError(t, err)
	assert.Equal(t, store.ConfigRoleEditor, role)
}

func TestMarshalUnmarshalConfigState_RoundTrips(t *testing.T) {
	s := configState{
		Description: "desc",
		Value:       []byte(`{"x":1}`),
		Schema:      []byte("null"),
		Overrides:   []byte("null"),
		Members:     []memberState{{Email: "a@x.com", Role: store.ConfigRoleMaintainer}},
	}
	raw := mustMarshalState(t, s)
	got, err := unmarshalConfigState(raw)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestUnmarshalVariantStates_EmptyInputIsNilNotError(t *testing.T) {
	variants, err := unmarshalVariantStates(nil)
	require.NoError(t, err)
	assert.Nil(t, variants)
}

func TestSameRoster_OrderIndependent(t *testing.T) {
	a := []memberState{
		{Email: "a@x.com", Role: store.ConfigRoleEditor},
		{Email: "b@x.com", Role: store.ConfigRoleMaintainer},
	}
	b := []memberState{
		{Email: "b@x.com", Role: store.ConfigRoleMaintainer},
		{Email: "a@x.com", Role: store.ConfigRoleEditor},
	}
	assert.True(t, sameRoster(a, b))
}

func TestSameRoster_RoleChangeDiffers(t *testing.T) {
	a := []memberState{{Email: "a@x.com", Role: store.ConfigRoleEditor}}
	b := []memberState{{Email: "a@x.com", Role: store.ConfigRoleMaintainer}}
	assert.False(t, sameRoster(a, b))
}
