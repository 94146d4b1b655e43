// Package usecase implements one function per management operation
// (spec.md §2's "UseCases" row): it validates input, gates the request
// via permission.Service, calls configsvc.Service/proposal.Service, and
// never talks to a store directly for a mutation — only to resolve the
// role/roster facts permission.Service needs to reach a decision.
//
// Every exported function here opens exactly one store.DB transaction
// (spec.md §9's "transaction struct" design note) and is the unit a
// Gin handler calls directly.
package usecase

import (
	"context"
	"fmt"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/configsvc"
	"kv-shepherd.io/shepherd/internal/hashing"
	"kv-shepherd.io/shepherd/internal/identity"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/permission"
	"kv-shepherd.io/shepherd/internal/proposal"
	"kv-shepherd.io/shepherd/internal/replica"
	"kv-shepherd.io/shepherd/internal/store"
)

// Deps bundles every service a use case needs. A single Deps value is
// constructed once at bootstrap and shared by every use case function;
// none of it is request-scoped except what's threaded through ctx/tx.
type Deps struct {
	DB          *store.DB
	Configs     *configsvc.Service
	Proposals   *proposal.Service
	Permissions *permission.Service
	Replica     *replica.Service
	AuditLogger *audit.Logger
	Hashing     *hashing.Service
}

func (d *Deps) audit() *audit.Logger { return d.AuditLogger }

func refStr(s string) *string { return &s }

// requireUserIdentity normalizes id to identity.User or returns the same
// Forbidden error identity.RequireUser does.
func requireUserIdentity(id identity.Identity) (identity.User, error) {
	return identity.RequireUser(id)
}

// requireWorkspaceAdmin loads id's workspace-member row and enforces
// permission.Service's workspace-admin gate (spec.md §4.4: "create/delete
// admin API keys: workspace admin (users only)", reused here for every
// other workspace-admin-only operation).
func requireWorkspaceAdmin(ctx context.Context, tx *store.Tx, id identity.Identity, workspaceID string) error {
	u, err := requireUserIdentity(id)
	if err != nil {
		if _, isSuper := id.(identity.Superuser); isSuper {
			return nil
		}
		return err
	}
	m, err := tx.WorkspaceMembers.GetByEmail(ctx, workspaceID, u.Email)
	if err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Kind == apperrors.KindNotFound {
			return apperrors.Forbidden("caller is not a member of this workspace")
		}
		return err
	}
	if m.Role != store.WorkspaceRoleAdmin {
		return apperrors.Forbidden("caller is not a workspace admin")
	}
	return nil
}

// projectContext resolves the permission.ProjectContext facts for id
// acting on project p, using tx.
func projectContext(ctx context.Context, tx *store.Tx, id identity.Identity, p store.Project) (permission.ProjectContext, error) {
	pc := permission.ProjectContext{Project: identity.ProjectRef{ID: p.ID, WorkspaceID: p.WorkspaceID}}

	if u, ok := id.(identity.User); ok {
		if _, err := tx.WorkspaceMembers.GetByEmail(ctx, p.WorkspaceID, u.Email); err == nil {
			pc.IsWorkspaceMember = true
		} else if appErr, asOk := apperrors.As(err); !asOk || appErr.Kind != apperrors.KindNotFound {
			return permission.ProjectContext{}, err
		}

		if pu, err := tx.ProjectUsers.GetByEmail(ctx, p.ID, u.Email); err == nil {
			role := pu.Role
			pc.CallerRole = &role
		} else if appErr, asOk := apperrors.As(err); !asOk || appErr.Kind != apperrors.KindNotFound {
			return permission.ProjectContext{}, err
		}
	}

	return pc, nil
}

// configContext resolves the permission.ConfigContext facts for id
// acting on cfg within project p.
func configContext(ctx context.Context, tx *store.Tx, id identity.Identity, p store.Project, cfg store.Config) (permission.ConfigContext, error) {
	pc, err := projectContext(ctx, tx, id, p)
	if err != nil {
		return permission.ConfigContext{}, err
	}
	cc := permission.ConfigContext{Project: pc}

	if u, ok := id.(identity.User); ok {
		if cu, err := tx.ConfigUsers.GetByEmail(ctx, cfg.ID, u.Email); err == nil {
			role := cu.Role
			cc.CallerRole = &role
		} else if appErr, asOk := apperrors.As(err); !asOk || appErr.Kind != apperrors.KindNotFound {
			return permission.ConfigContext{}, err
		}
	}

	return cc, nil
}

// loadProjectAndConfig resolves a config and its owning project inside
// tx, wrapping a missing row as NotFound.
func loadProjectAndConfig(ctx context.Context, tx *store.Tx, configID string) (store.Project, store.Config, error) {
	cfg, err := tx.Configs.GetByID(ctx, configID)
	if err != nil {
		return store.Project{}, store.Config{}, err
	}
	project, err := tx.Projects.GetByID(ctx, cfg.ProjectID)
	if err != nil {
		return store.Project{}, store.Config{}, err
	}
	return project, cfg, nil
}

func requireIdentity(ctx context.Context) (identity.Identity, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return nil, apperrors.Forbidden("no identity attached to request context")
	}
	return id, nil
}

func isAPIKey(id identity.Identity) bool {
	_, ok := id.(identity.ApiKey)
	return ok
}

// callerID returns the email/api-key-id recorded on audit and version
// rows for id.
func callerID(id identity.Identity) string {
	switch v := id.(type) {
	case identity.User:
		return v.Email
	case identity.ApiKey:
		return fmt.Sprintf("apikey:%s", v.ID)
	case identity.Superuser:
		return "superuser"
	default:
		return ""
	}
}
