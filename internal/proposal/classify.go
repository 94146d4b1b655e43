package proposal

import (
	"bytes"

	"kv-shepherd.io/shepherd/internal/canonicaljson"
	"kv-shepherd.io/shepherd/internal/store"
)

// RequiredApproverRole derives, without persisting it, which config role
// may approve p (spec.md §4.7's "approver-role classification"):
// maintainer-only when the proposal deletes the config or changes
// description, members, or any schema; editor-or-maintainer otherwise
// (value and/or overrides only).
func RequiredApproverRole(p store.ConfigProposal) (store.ConfigUserRole, error) {
	if p.IsDelete {
		return store.ConfigRoleMaintainer, nil
	}

	snapshot, err := unmarshalConfigState(p.Snapshot)
	if err != nil {
		return "", err
	}
	proposed, err := unmarshalConfigState(p.Proposed)
	if err != nil {
		return "", err
	}

	if snapshot.Description != proposed.Description {
		return store.ConfigRoleMaintainer, nil
	}
	if !sameRoster(snapshot.Members, proposed.Members) {
		return store.ConfigRoleMaintainer, nil
	}
	schemaChanged, err := rawDiffers(snapshot.Schema, proposed.Schema)
	if err != nil {
		return "", err
	}
	if schemaChanged {
		return store.ConfigRoleMaintainer, nil
	}

	variants, err := unmarshalVariantStates(p.Variants)
	if err != nil {
		return "", err
	}
	for _, v := range variants {
		if !v.UseBaseSchema && len(v.Schema) > 0 && string(v.Schema) != "null" {
			// A variant schema is proposed directly (not inherited from
			// the config's default schema): schema is changing.
			return store.ConfigRoleMaintainer, nil
		}
	}

	return store.ConfigRoleEditor, nil
}

func sameRoster(a, b []memberState) bool {
	if len(a) != len(b) {
		return false
	}
	byEmail := make(map[string]store.ConfigUserRole, len(a))
	for _, m := range a {
		byEmail[m.Email] = m.Role
	}
	for _, m := range b {
		role, ok := byEmail[m.Email]
		if !ok || role != m.Role {
			return false
		}
	}
	return true
}

func orNullState(raw []byte) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}

// rawDiffers reports whether two raw JSON documents differ once both are
// canonicalized; an empty document counts as JSON null.
func rawDiffers(a, b []byte) (bool, error) {
	ca, err := canonicaljson.MarshalRaw([]byte(orNullState(a)))
	if err != nil {
		return false, err
	}
	cb, err := canonicaljson.MarshalRaw([]byte(orNullState(b)))
	if err != nil {
		return false, err
	}
	return !bytes.Equal(ca, cb), nil
}
