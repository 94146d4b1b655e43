package usecase

import (
	"context"

	"kv-shepherd.io/shepherd/internal/configsvc"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// CreateConfigInput is the usecase-facing shape of a new config. It maps
// 1:1 onto configsvc.CreateConfigInput once the project is resolved and
// the caller has passed permission.Service.CanCreateConfig.
type CreateConfigInput struct {
	ProjectID   string
	Name        string
	Description string
	Value       []byte
	Schema      []byte
	Overrides   []byte
	Members     []configsvc.MemberInput
}

// CreateConfig creates a config at version 1 (spec.md §4.4: "create
// config: project admin/maintainer OR api-key with config:write").
func (d *Deps) CreateConfig(ctx context.Context, in CreateConfigInput) (store.Config, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Config{}, err
	}
	var out store.Config
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, err := tx.Projects.GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanCreateConfig(id, pc); err != nil {
			return err
		}
		if _, err := tx.Configs.GetByName(ctx, in.ProjectID, in.Name); err == nil {
			return apperrors.BadRequest("a config with this name already exists in this project")
		} else if appErr, ok := apperrors.As(err); !ok || appErr.Kind != apperrors.KindNotFound {
			return err
		}

		out, err = d.Configs.CreateConfig(ctx, tx, configsvc.CreateConfigInput{
			ProjectID: in.ProjectID, Name: in.Name, Description: in.Description,
			Value: in.Value, Schema: in.Schema, Overrides: in.Overrides,
			AuthorID: callerID(id), Members: in.Members,
		})
		return err
	})
	return out, err
}

// GetConfig fetches a single config, enforcing project read access.
func (d *Deps) GetConfig(ctx context.Context, configID string) (store.Config, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Config{}, err
	}
	var out store.Config
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, cfg, err := loadProjectAndConfig(ctx, tx, configID)
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
		out = cfg
		return nil
	})
	return out, err
}

// ListConfigs returns every config in a project, enforcing read access.
func (d *Deps) ListConfigs(ctx context.Context, projectID string) ([]store.Config, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.Config
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, err := tx.Projects.GetByID(ctx, projectID)
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
		out, err = tx.Configs.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

// UpdateConfigInput is the usecase-facing patch request. It carries the
// same Set* discriminators as configsvc.UpdateConfigInput; this layer
// adds authorization, the requireProposals bypass decision, and the
// mandatory post-edit pending-proposal rejection.
type UpdateConfigInput struct {
	ConfigID    string
	PrevVersion int64

	SetDescription bool
	Description    string
	SetValue       bool
	Value          []byte
	SetSchema      bool
	Schema         []byte
	SetOverrides   bool
	Overrides      []byte
	SetMembers     bool
	Members        []configsvc.MemberInput
	Variants       []configsvc.VariantInput
}

func (in UpdateConfigInput) touchesManagedFields() bool {
	return in.SetSchema || in.SetMembers
}

// UpdateConfig applies a direct edit to a config and/or its variants.
// API-key callers bypass the requireProposals gate (spec.md §4.4's scope
// note); every successful edit rejects stale pending proposals in the
// same transaction (spec.md §4.7/§8).
func (d *Deps) UpdateConfig(ctx context.Context, in UpdateConfigInput) (store.Config, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Config{}, err
	}
	var out store.Config
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, cfg, err := loadProjectAndConfig(ctx, tx, in.ConfigID)
		if err != nil {
			return err
		}
		cc, err := configContext(ctx, tx, id, p, cfg)
		if err != nil {
			return err
		}
		if in.touchesManagedFields() {
			if err := d.Permissions.CanManageConfig(id, cc); err != nil {
				return err
			}
		} else {
			if err := d.Permissions.CanEditConfigValue(id, cc); err != nil {
				return err
			}
		}

		res, err := d.Configs.UpdateConfig(ctx, tx, configsvc.UpdateConfigInput{
			ConfigID: in.ConfigID, PrevVersion: in.PrevVersion, AuthorID: callerID(id),
			BypassApprovalGate: isAPIKey(id),
			SetDescription:     in.SetDescription, Description: in.Description,
			SetValue:     in.SetValue, Value: in.Value,
			SetSchema:    in.SetSchema, Schema: in.Schema,
			SetOverrides: in.SetOverrides, Overrides: in.Overrides,
			SetMembers:   in.SetMembers, Members: in.Members,
			Variants:     in.Variants,
		})
		if err != nil {
			return err
		}
		out = res.Config

		return d.Proposals.RejectAllPendingProposals(ctx, tx, res.Config.ID, "rejected_by_config_edit", nil)
	})
	return out, err
}

// DeleteConfig removes a config (spec.md §4.6: "deleteConfig is
// forbidden when the project requires proposals"). API-key callers
// still go through the same requireProposals gate as users — only
// direct-edit value/schema writes bypass it for API keys.
func (d *Deps) DeleteConfig(ctx context.Context, configID string) (store.Config, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
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
		out, err = d.Configs.DeleteConfig(ctx, tx, configsvc.DeleteConfigInput{
			ConfigID: configID, AuthorID: callerID(id), BypassApprovalGate: isAPIKey(id),
		})
		if err != nil {
			return err
		}
		return d.Proposals.RejectAllPendingProposals(ctx, tx, configID, "rejected_by_config_edit", nil)
	})
	return out, err
}
