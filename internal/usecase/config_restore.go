package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/configsvc"
	"kv-shepherd.io/shepherd/internal/store"
)

type snapshotMember struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func membersFromSnapshot(raw []byte) ([]configsvc.MemberInput, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var members []snapshotMember
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("unmarshal roster snapshot: %w", err)
	}
	out := make([]configsvc.MemberInput, 0, len(members))
	for _, m := range members {
		out = append(out, configsvc.MemberInput{Email: m.Email, Role: store.ConfigUserRole(m.Role)})
	}
	return out, nil
}

// ListConfigVersions returns a config's full immutable version history,
// newest first, gated by project read access.
func (d *Deps) ListConfigVersions(ctx context.Context, configID string) ([]store.ConfigVersion, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.ConfigVersion
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, _, err := loadProjectAndConfig(ctx, tx, configID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanReadProject(id, pc); err != nil {
			return err
		}
		out, err = tx.ConfigVersions.ListByConfig(ctx, configID)
		return err
	})
	return out, err
}

// ListVariantVersions returns a variant's version history, newest
// first, gated by project read access.
func (d *Deps) ListVariantVersions(ctx context.Context, variantID string) ([]store.ConfigVariantVersion, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.ConfigVariantVersion
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		variant, err := tx.ConfigVariants.GetByID(ctx, variantID)
		if err != nil {
			return err
		}
		p, _, err := loadProjectAndConfig(ctx, tx, variant.ConfigID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanReadProject(id, pc); err != nil {
			return err
		}
		out, err = tx.ConfigVariantVersions.ListByVariant(ctx, variantID)
		return err
	})
	return out, err
}

// RestoreConfigVersion replays a prior immutable snapshot as a new
// version (spec.md §3/§4.6: restoring is itself a versioned edit, never
// a rewrite of history). It requires a user identity — spec.md §4.1
// lists config-version restore among the operations API keys cannot
// perform — and config-maintainer authority, since the restored state
// can reintroduce an old schema or roster.
func (d *Deps) RestoreConfigVersion(ctx context.Context, configID string, version int64) (store.Config, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Config{}, err
	}
	if _, err := requireUserIdentity(id); err != nil {
		return store.Config{}, err
	}
	var out store.Config
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, cfg, err := loadProjectAndConfig(ctx, tx, configID)
		if err != nil {
			return err
		}
		cc, err := configContext(ctx, tx, id, p, cfg)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageConfig(id, cc); err != nil {
			return err
		}

		snap, err := tx.ConfigVersions.GetByVersion(ctx, configID, version)
		if err != nil {
			return err
		}
		members, err := membersFromSnapshot(snap.Members)
		if err != nil {
			return err
		}

		res, err := d.Configs.UpdateConfig(ctx, tx, configsvc.UpdateConfigInput{
			ConfigID: configID, PrevVersion: cfg.Version, AuthorID: callerID(id),
			BypassApprovalGate: true,
			SetDescription:     true, Description: snap.Description,
			SetValue:     true, Value: snap.Value,
			SetSchema:    true, Schema: snap.Schema,
			SetOverrides: true, Overrides: snap.Overrides,
			SetMembers:   true, Members: members,
		})
		if err != nil {
			return err
		}
		out = res.Config

		if err := d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), ConfigID: refStr(cfg.ID),
			Type: audit.EventConfigVersionRestored,
			Payload: map[string]interface{}{"restoredFromVersion": version, "newVersion": out.Version},
		}); err != nil {
			return err
		}

		return d.Proposals.RejectAllPendingProposals(ctx, tx, configID, "rejected_by_config_edit", nil)
	})
	return out, err
}

// RestoreVariantVersion replays a prior per-environment variant snapshot
// as a new variant version. Unlike a config-level restore this never
// touches roster or config-level schema, so it is gated the same as a
// direct variant value edit: config editor or maintainer.
func (d *Deps) RestoreVariantVersion(ctx context.Context, variantID string, version int64) (store.ConfigVariant, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.ConfigVariant{}, err
	}
	var out store.ConfigVariant
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		variant, err := tx.ConfigVariants.GetByID(ctx, variantID)
		if err != nil {
			return err
		}
		p, cfg, err := loadProjectAndConfig(ctx, tx, variant.ConfigID)
		if err != nil {
			return err
		}
		cc, err := configContext(ctx, tx, id, p, cfg)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanEditConfigValue(id, cc); err != nil {
			return err
		}

		snap, err := tx.ConfigVariantVersions.GetByVersion(ctx, variantID, version)
		if err != nil {
			return err
		}

		if _, err := d.Configs.UpdateConfig(ctx, tx, configsvc.UpdateConfigInput{
			ConfigID: cfg.ID, PrevVersion: cfg.Version, AuthorID: callerID(id),
			BypassApprovalGate: true,
			Variants: []configsvc.VariantInput{{
				EnvironmentID: variant.EnvironmentID, Value: snap.Value, Schema: snap.Schema,
				UseBaseSchema: snap.UseBaseSchema, Overrides: snap.Overrides,
			}},
		}); err != nil {
			return err
		}

		restored, err := tx.ConfigVariants.GetByConfigAndEnvironment(ctx, cfg.ID, variant.EnvironmentID)
		if err != nil {
			return err
		}
		out = restored

		if err := d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), ConfigID: refStr(cfg.ID),
			Type: audit.EventConfigVariantVersionRestored,
			Payload: map[string]interface{}{"variantId": variantID, "restoredFromVersion": version, "newVersion": restored.Version},
		}); err != nil {
			return err
		}

		return d.Proposals.RejectAllPendingProposals(ctx, tx, cfg.ID, "rejected_by_config_edit", nil)
	})
	return out, err
}
