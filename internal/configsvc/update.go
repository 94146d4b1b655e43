package configsvc

import (
	"context"
	"fmt"
	"time"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/idgen"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// UpdateConfigInput patches a config and, optionally, one or more of its
// per-environment variants, in a single versioned edit. Each SetX flag
// distinguishes "leave field unchanged" from "set field to its zero
// value" — a JSON-null value is a legitimate config value, so a bare
// pointer-or-nil convention would be ambiguous here.
type UpdateConfigInput struct {
	ConfigID    string
	PrevVersion int64
	AuthorID    string

	// ProposalID is set when this edit applies an approved proposal;
	// nil for a direct edit. Recorded on the version/variant-version
	// snapshot rows.
	ProposalID *string

	// BypassApprovalGate is true for API-key callers (spec.md §4.4's
	// scope bypass) and for proposal-driven applies, which already went
	// through the review workflow and must not be re-gated.
	BypassApprovalGate bool

	SetDescription bool
	Description    string

	SetValue bool
	Value    []byte

	SetSchema bool
	Schema    []byte

	SetOverrides bool
	Overrides    []byte

	SetMembers bool
	Members    []MemberInput

	Variants []VariantInput
}

// UpdateConfigResult reports what actually changed, for the usecase
// layer's follow-up audit/reject-proposals orchestration.
type UpdateConfigResult struct {
	Config         store.Config
	MembersAdded   []string
	MembersRemoved []string
}

// UpdateConfig applies a patch to a config and/or its variants under
// optimistic concurrency control (spec.md §4.6).
func (s *Service) UpdateConfig(ctx context.Context, tx *store.Tx, in UpdateConfigInput) (UpdateConfigResult, error) {
	cfg, err := tx.Configs.GetByIDForUpdate(ctx, in.ConfigID)
	if err != nil {
		return UpdateConfigResult{}, err
	}
	if cfg.Version != in.PrevVersion {
		return UpdateConfigResult{}, apperrors.BadRequest(
			fmt.Sprintf("config %s is at version %d, not %d: refresh and retry", cfg.ID, cfg.Version, in.PrevVersion),
		).WithCode(apperrors.CodeConfigVersionMismatch)
	}

	project, err := tx.Projects.GetByID(ctx, cfg.ProjectID)
	if err != nil {
		return UpdateConfigResult{}, err
	}

	cs := changeSet{
		touchesDescription: in.SetDescription,
		touchesValue:       in.SetValue,
		touchesSchema:      in.SetSchema,
		touchesOverrides:   in.SetOverrides,
		touchesMembers:     in.SetMembers,
	}
	environments := make(map[string]store.Environment, len(in.Variants))
	for _, v := range in.Variants {
		env, err := tx.Environments.GetByID(ctx, v.EnvironmentID)
		if err != nil {
			return UpdateConfigResult{}, err
		}
		environments[v.EnvironmentID] = env
		cs.touchedEnvironments = append(cs.touchedEnvironments, v.EnvironmentID)
	}

	if !in.BypassApprovalGate {
		if required, reason := isApprovalRequired(project, environments, cs); required {
			return UpdateConfigResult{}, apperrors.BadRequest(reason).WithCode(apperrors.CodeApprovalRequired)
		}
	}

	newValue, newSchema, newOverrides := cfg.Value, cfg.Schema, cfg.Overrides
	if in.SetValue {
		if v, err := canonicalOrNil(in.Value); err != nil {
			return UpdateConfigResult{}, fmt.Errorf("canonicalize value: %w", err)
		} else {
			newValue = v
		}
	}
	if in.SetSchema {
		if v, err := canonicalOrNil(in.Schema); err != nil {
			return UpdateConfigResult{}, fmt.Errorf("canonicalize schema: %w", err)
		} else {
			newSchema = v
		}
	}
	if in.SetOverrides {
		if v, err := canonicalOrNil(in.Overrides); err != nil {
			return UpdateConfigResult{}, fmt.Errorf("canonicalize overrides: %w", err)
		} else {
			newOverrides = v
		}
	}
	if err := s.validateValueAndOverrides(cfg.ProjectID, newSchema, newValue, newOverrides); err != nil {
		return UpdateConfigResult{}, err
	}

	existingMembers, err := tx.ConfigUsers.ListByConfig(ctx, cfg.ID)
	if err != nil {
		return UpdateConfigResult{}, err
	}
	var added, removed []string
	if in.SetMembers {
		added, removed = diffMembers(existingMembers, in.Members)
	}

	now := s.clock.Now()
	newVersion := cfg.Version + 1

	cfg.Description = stringOr(in.SetDescription, in.Description, cfg.Description)
	cfg.Value = newValue
	cfg.Schema = newSchema
	cfg.Overrides = newOverrides
	cfg.Version = newVersion
	cfg.UpdatedAt = now

	ok, err := tx.Configs.Update(ctx, cfg, in.PrevVersion)
	if err != nil {
		return UpdateConfigResult{}, err
	}
	if !ok {
		return UpdateConfigResult{}, apperrors.BadRequest(
			fmt.Sprintf("config %s changed concurrently: refresh and retry", cfg.ID),
		).WithCode(apperrors.CodeConfigVersionMismatch)
	}

	var finalMembers []store.ConfigUser
	if in.SetMembers {
		finalMembers = make([]store.ConfigUser, 0, len(in.Members))
		for _, m := range in.Members {
			finalMembers = append(finalMembers, store.ConfigUser{
				ID: idgen.New(), ConfigID: cfg.ID, Email: m.Email, Role: m.Role, CreatedAt: now,
			})
		}
		if err := tx.ConfigUsers.ReplaceRoster(ctx, cfg.ID, finalMembers); err != nil {
			return UpdateConfigResult{}, err
		}
	} else {
		finalMembers = existingMembers
	}

	rosterJSON, err := rosterSnapshot(finalMembers)
	if err != nil {
		return UpdateConfigResult{}, err
	}
	if err := tx.ConfigVersions.Create(ctx, store.ConfigVersion{
		ID: idgen.New(), ConfigID: cfg.ID, Version: newVersion, AuthorID: in.AuthorID, ProposalID: in.ProposalID,
		Description: cfg.Description, Value: cfg.Value, Schema: cfg.Schema, Overrides: cfg.Overrides,
		Members: rosterJSON, CreatedAt: now,
	}); err != nil {
		return UpdateConfigResult{}, err
	}

	for _, v := range in.Variants {
		if err := s.applyVariant(ctx, tx, cfg, v, in.AuthorID, in.ProposalID, now); err != nil {
			return UpdateConfigResult{}, err
		}
	}

	if err := s.audit.Log(ctx, tx, audit.Entry{
		UserID: ref(in.AuthorID), ProjectID: ref(cfg.ProjectID), ConfigID: ref(cfg.ID),
		Type: audit.EventConfigUpdated, Payload: map[string]interface{}{"version": newVersion},
	}); err != nil {
		return UpdateConfigResult{}, err
	}
	if in.SetMembers && (len(added) > 0 || len(removed) > 0) {
		if err := s.audit.Log(ctx, tx, audit.Entry{
			UserID: ref(in.AuthorID), ProjectID: ref(cfg.ProjectID), ConfigID: ref(cfg.ID),
			Type:    audit.EventConfigMembersChanged,
			Payload: map[string]interface{}{"added": added, "removed": removed},
		}); err != nil {
			return UpdateConfigResult{}, err
		}
	}

	return UpdateConfigResult{Config: cfg, MembersAdded: added, MembersRemoved: removed}, nil
}

// applyVariant writes a single touched variant's new live row and its
// snapshot, creating the variant at version 1 if none exists yet for
// this (config, environment) pair.
func (s *Service) applyVariant(ctx context.Context, tx *store.Tx, cfg store.Config, in VariantInput, authorID string, proposalID *string, now time.Time) error {
	value, err := canonicalOrNil(in.Value)
	if err != nil {
		return fmt.Errorf("canonicalize variant value: %w", err)
	}
	schema, err := canonicalOrNil(in.Schema)
	if err != nil {
		return fmt.Errorf("canonicalize variant schema: %w", err)
	}
	overrides, err := canonicalOrNil(in.Overrides)
	if err != nil {
		return fmt.Errorf("canonicalize variant overrides: %w", err)
	}

	effective := effectiveSchema(schema, in.UseBaseSchema, cfg.Schema)
	if err := s.validateValueAndOverrides(cfg.ProjectID, effective, value, overrides); err != nil {
		return err
	}

	existing, err := tx.ConfigVariants.GetByConfigAndEnvironment(ctx, cfg.ID, in.EnvironmentID)
	notFound := false
	if err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Kind == apperrors.KindNotFound {
			notFound = true
		} else {
			return err
		}
	}

	var variantID string
	var version int64
	if notFound {
		variantID = idgen.New()
		version = 1
		if err := tx.ConfigVariants.Create(ctx, store.ConfigVariant{
			ID: variantID, ConfigID: cfg.ID, EnvironmentID: in.EnvironmentID, Version: version,
			Value: value, Schema: schema, UseBaseSchema: in.UseBaseSchema, Overrides: overrides,
			CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
	} else {
		variantID = existing.ID
		prevVariantVersion := existing.Version
		version = prevVariantVersion + 1
		existing.Value, existing.Schema, existing.UseBaseSchema, existing.Overrides = value, schema, in.UseBaseSchema, overrides
		existing.Version, existing.UpdatedAt = version, now
		ok, err := tx.ConfigVariants.Update(ctx, existing, prevVariantVersion)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.BadRequest(fmt.Sprintf("variant %s changed concurrently: refresh and retry", variantID)).
				WithCode(apperrors.CodeConfigVersionMismatch)
		}
	}

	return tx.ConfigVariantVersions.Create(ctx, store.ConfigVariantVersion{
		ID: idgen.New(), VariantID: variantID, Version: version, AuthorID: authorID, ProposalID: proposalID,
		Value: value, Schema: schema, UseBaseSchema: in.UseBaseSchema, Overrides: overrides, CreatedAt: now,
	})
}

func stringOr(set bool, newVal, existing string) string {
	if set {
		return newVal
	}
	return existing
}
