package proposal

import (
	"encoding/json"
	"fmt"

	"kv-shepherd.io/shepherd/internal/canonicaljson"
	"kv-shepherd.io/shepherd/internal/configsvc"
	"kv-shepherd.io/shepherd/internal/store"
)

// configState is the wire shape of ConfigProposal.Snapshot/Proposed: the
// full set of mutable config-level fields a proposal can change.
type configState struct {
	Description string          `json:"description"`
	Value       json.RawMessage `json:"value"`
	Schema      json.RawMessage `json:"schema"`
	Overrides   json.RawMessage `json:"overrides"`
	Members     []memberState   `json:"members"`
}

type memberState struct {
	Email string               `json:"email"`
	Role  store.ConfigUserRole `json:"role"`
}

// variantState is one entry of ConfigProposal.Variants: the proposed
// triple for a single environment's variant.
type variantState struct {
	EnvironmentID string          `json:"environmentId"`
	Value         json.RawMessage `json:"value"`
	Schema        json.RawMessage `json:"schema"`
	UseBaseSchema bool            `json:"useBaseSchema"`
	Overrides     json.RawMessage `json:"overrides"`
}

func rosterToMemberState(members []store.ConfigUser) []memberState {
	out := make([]memberState, 0, len(members))
	for _, m := range members {
		out = append(out, memberState{Email: m.Email, Role: m.Role})
	}
	return out
}

func memberStateToConfigsvcInput(members []memberState) []configsvc.MemberInput {
	out := make([]configsvc.MemberInput, 0, len(members))
	for _, m := range members {
		out = append(out, configsvc.MemberInput{Email: m.Email, Role: m.Role})
	}
	return out
}

func marshalConfigState(s configState) ([]byte, error) {
	return canonicaljson.Marshal(s)
}

func unmarshalConfigState(raw []byte) (configState, error) {
	var s configState
	if err := json.Unmarshal(raw, &s); err != nil {
		return configState{}, fmt.Errorf("parse proposal config state: %w", err)
	}
	return s, nil
}

func marshalVariantStates(variants []variantState) ([]byte, error) {
	return canonicaljson.Marshal(variants)
}

func unmarshalVariantStates(raw []byte) ([]variantState, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var variants []variantState
	if err := json.Unmarshal(raw, &variants); err != nil {
		return nil, fmt.Errorf("parse proposal variant states: %w", err)
	}
	return variants, nil
}

func variantStatesToConfigsvcInput(variants []variantState) []configsvc.VariantInput {
	out := make([]configsvc.VariantInput, 0, len(variants))
	for _, v := range variants {
		out = append(out, configsvc.VariantInput{
			EnvironmentID: v.EnvironmentID,
			Value:         []byte(v.Value),
			Schema:        []byte(v.Schema),
			UseBaseSchema: v.UseBaseSchema,
			Overrides:     []byte(v.Overrides),
		})
	}
	return out
}
