// Package configsvc implements ConfigService, the transactional heart of
// every config write (spec.md §4.6). It re-reads the target row under
// the open transaction, enforces optimistic versioning, validates value
// shape and override references, diffs membership, writes the new live
// row plus an immutable snapshot, and appends audit log entries — all
// within the single pgx.Tx the calling use case opened.
//
// ConfigService never decides whether a pending proposal must be
// rejected after an edit; that cross-service invariant is orchestrated
// by the usecase layer, which calls this package and then
// proposal.Service.RejectAllPendingProposals in the same transaction.
// Keeping the dependency one-directional (proposal imports configsvc,
// never the reverse) avoids an import cycle between the two services.
package configsvc

import (
	"encoding/json"
	"fmt"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/canonicaljson"
	"kv-shepherd.io/shepherd/internal/jsonschema"
	"kv-shepherd.io/shepherd/internal/override"
	"kv-shepherd.io/shepherd/internal/pkg/clock"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

func unmarshalOverrides(raw []byte, out *[]override.Override) error {
	return json.Unmarshal(raw, out)
}

// Service implements ConfigService.
type Service struct {
	clock     clock.Clock
	validator *jsonschema.Validator
	audit     *audit.Logger
}

// New returns a ready-to-use Service.
func New(c clock.Clock, v *jsonschema.Validator, a *audit.Logger) *Service {
	return &Service{clock: c, validator: v, audit: a}
}

// MemberInput is one entry of a config's roster, as supplied by a write.
type MemberInput struct {
	Email string
	Role  store.ConfigUserRole
}

// VariantInput fully replaces the (value, schema, useBaseSchema,
// overrides) triple of one environment's variant. Variants not named in
// a write are left untouched.
type VariantInput struct {
	EnvironmentID string
	Value         []byte
	Schema        []byte
	UseBaseSchema bool
	Overrides     []byte
}

func effectiveSchema(variantSchema []byte, useBaseSchema bool, configSchema []byte) []byte {
	if useBaseSchema {
		return configSchema
	}
	return variantSchema
}

// validateValueAndOverrides runs the schema and reference checks shared
// by every write path (spec.md §4.6 steps 3-4).
func (s *Service) validateValueAndOverrides(projectID string, schema, value, overrides []byte) error {
	if err := s.validator.ValidateSchemaDocument(schema); err != nil {
		return apperrors.BadRequest(fmt.Sprintf("schema is not a well-formed JSON Schema document: %v", err))
	}
	problems, err := s.validator.Validate(schema, value)
	if err != nil {
		return apperrors.BadRequest(fmt.Sprintf("value could not be validated against schema: %v", err))
	}
	if len(problems) > 0 {
		return apperrors.BadRequest(fmt.Sprintf("value does not satisfy schema: %s", problems[0].String()))
	}

	if len(overrides) > 0 {
		var parsed []override.Override
		if err := unmarshalOverrides(overrides, &parsed); err != nil {
			return apperrors.BadRequest(fmt.Sprintf("malformed overrides: %v", err))
		}
		if err := override.ValidateReferences(parsed, projectID); err != nil {
			return apperrors.BadRequest(err.Error())
		}
	}
	return nil
}

func canonicalOrNil(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return canonicaljson.MarshalRaw(raw)
}

// rosterSnapshot renders a config's current member roster as canonical
// JSON, embedded in every version/variant-version row (spec.md §4.6
// step 7).
func rosterSnapshot(members []store.ConfigUser) ([]byte, error) {
	out := make([]map[string]string, 0, len(members))
	for _, m := range members {
		out = append(out, map[string]string{"email": m.Email, "role": string(m.Role)})
	}
	return canonicaljson.Marshal(out)
}

func diffMembers(before []store.ConfigUser, after []MemberInput) (added, removed []string) {
	beforeByEmail := make(map[string]store.ConfigUserRole, len(before))
	for _, m := range before {
		beforeByEmail[m.Email] = m.Role
	}
	afterByEmail := make(map[string]store.ConfigUserRole, len(after))
	for _, m := range after {
		afterByEmail[m.Email] = m.Role
	}
	for email := range afterByEmail {
		if _, existed := beforeByEmail[email]; !existed {
			added = append(added, email)
		}
	}
	for email := range beforeByEmail {
		if _, still := afterByEmail[email]; !still {
			removed = append(removed, email)
		}
	}
	return added, removed
}

func ref(s string) *string { return &s }
