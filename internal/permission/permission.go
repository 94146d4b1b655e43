// Package permission implements PermissionService: the authority table
// in spec.md §4.4, expressed as a pure function of (identity, action,
// resource-lookups). It never queries a store itself — callers (usecase
// package) resolve the caller's workspace/project/config role and any
// "last project in workspace" fact first, then hand them to the
// Can* methods here, so the decision stays a pure function that is
// trivially unit-testable without a database.
package permission

import (
	"kv-shepherd.io/shepherd/internal/identity"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// Service derives allow/deny decisions from the authority table in
// spec.md §4.4. It holds no state.
type Service struct{}

// New returns a ready-to-use Service.
func New() *Service { return &Service{} }

// ProjectContext carries the facts a project-scoped decision needs:
// whether the caller is a workspace member, and the caller's role on
// the project itself (nil if the caller has no project-user row).
type ProjectContext struct {
	Project           identity.ProjectRef
	IsWorkspaceMember bool
	CallerRole        *store.ProjectUserRole
}

func (p ProjectContext) isAdmin() bool {
	return p.CallerRole != nil && *p.CallerRole == store.ProjectRoleAdmin
}

func (p ProjectContext) isMaintainerOrAdmin() bool {
	return p.CallerRole != nil && (*p.CallerRole == store.ProjectRoleAdmin || *p.CallerRole == store.ProjectRoleMaintainer)
}

// CanReadProject: workspace member OR api-key with project:read and
// project access.
func (s *Service) CanReadProject(id identity.Identity, ctx ProjectContext) error {
	if _, ok := id.(identity.Superuser); ok {
		return nil
	}
	if apiKey, ok := id.(identity.ApiKey); ok {
		if apiKey.HasProjectAccess(ctx.Project) && apiKey.HasScope(identity.ScopeProjectRead) {
			return nil
		}
		return apperrors.Forbidden("api key lacks project:read scope or access to this project")
	}
	if ctx.IsWorkspaceMember {
		return nil
	}
	return apperrors.Forbidden("caller is not a member of this project's workspace")
}

// CanManageProject: project admin, or api-key with project:write and
// project access.
func (s *Service) CanManageProject(id identity.Identity, ctx ProjectContext) error {
	if _, ok := id.(identity.Superuser); ok {
		return nil
	}
	if apiKey, ok := id.(identity.ApiKey); ok {
		if apiKey.HasProjectAccess(ctx.Project) && apiKey.HasScope(identity.ScopeProjectWrite) {
			return nil
		}
		return apperrors.Forbidden("api key lacks project:write scope or access to this project")
	}
	if ctx.isAdmin() {
		return nil
	}
	return apperrors.Forbidden("caller is not a project admin")
}

// CanDeleteProject: project admin, users only, and the project must not
// be the last one in its workspace.
func (s *Service) CanDeleteProject(id identity.Identity, ctx ProjectContext, isLastProjectInWorkspace bool) error {
	if _, err := identity.RequireUser(id); err != nil {
		if _, ok := id.(identity.Superuser); !ok {
			return err
		}
	}
	if !ctx.isAdmin() {
		if _, ok := id.(identity.Superuser); !ok {
			return apperrors.Forbidden("caller is not a project admin")
		}
	}
	if isLastProjectInWorkspace {
		return apperrors.BadRequest("cannot delete the last project in a workspace")
	}
	return nil
}

// CanManageProjectUsers: project admin, users only (spec.md §4.1 —
// "project-user role changes" require a user identity).
func (s *Service) CanManageProjectUsers(id identity.Identity, ctx ProjectContext) error {
	if _, ok := id.(identity.Superuser); ok {
		return nil
	}
	if _, err := identity.RequireUser(id); err != nil {
		return err
	}
	if !ctx.isAdmin() {
		return apperrors.Forbidden("caller is not a project admin")
	}
	return nil
}

// CanCreateConfig: project admin/maintainer, or api-key with
// config:write.
func (s *Service) CanCreateConfig(id identity.Identity, ctx ProjectContext) error {
	if _, ok := id.(identity.Superuser); ok {
		return nil
	}
	if apiKey, ok := id.(identity.ApiKey); ok {
		if apiKey.HasProjectAccess(ctx.Project) && apiKey.HasScope(identity.ScopeConfigWrite) {
			return nil
		}
		return apperrors.Forbidden("api key lacks config:write scope or access to this project")
	}
	if ctx.isMaintainerOrAdmin() {
		return nil
	}
	return apperrors.Forbidden("caller is not a project admin or maintainer")
}

// ConfigContext adds the config-level role (editor/maintainer) to a
// ProjectContext, for config-scoped decisions.
type ConfigContext struct {
	Project    ProjectContext
	CallerRole *store.ConfigUserRole
}

func (c ConfigContext) isConfigMaintainer() bool {
	return c.CallerRole != nil && *c.CallerRole == store.ConfigRoleMaintainer
}

func (c ConfigContext) isConfigEditorOrMaintainer() bool {
	return c.CallerRole != nil && (*c.CallerRole == store.ConfigRoleEditor || *c.CallerRole == store.ConfigRoleMaintainer)
}

// CanEditConfigValue: config editor or maintainer, project admin, or
// api-key with config:write.
func (s *Service) CanEditConfigValue(id identity.Identity, ctx ConfigContext) error {
	if _, ok := id.(identity.Superuser); ok {
		return nil
	}
	if apiKey, ok := id.(identity.ApiKey); ok {
		if apiKey.HasProjectAccess(ctx.Project.Project) && apiKey.HasScope(identity.ScopeConfigWrite) {
			return nil
		}
		return apperrors.Forbidden("api key lacks config:write scope or access to this project")
	}
	if ctx.Project.isAdmin() || ctx.isConfigEditorOrMaintainer() {
		return nil
	}
	return apperrors.Forbidden("caller is not a config editor/maintainer or project admin")
}

// CanManageConfig: config maintainer, project admin, or api-key with
// config:write — gates schema, members, and delete.
func (s *Service) CanManageConfig(id identity.Identity, ctx ConfigContext) error {
	if _, ok := id.(identity.Superuser); ok {
		return nil
	}
	if apiKey, ok := id.(identity.ApiKey); ok {
		if apiKey.HasProjectAccess(ctx.Project.Project) && apiKey.HasScope(identity.ScopeConfigWrite) {
			return nil
		}
		return apperrors.Forbidden("api key lacks config:write scope or access to this project")
	}
	if ctx.Project.isAdmin() || ctx.isConfigMaintainer() {
		return nil
	}
	return apperrors.Forbidden("caller is not a config maintainer or project admin")
}

// CanManageEnvironments: project admin, or api-key with
// environment:write.
func (s *Service) CanManageEnvironments(id identity.Identity, ctx ProjectContext) error {
	if _, ok := id.(identity.Superuser); ok {
		return nil
	}
	if apiKey, ok := id.(identity.ApiKey); ok {
		if apiKey.HasProjectAccess(ctx.Project) && apiKey.HasScope(identity.ScopeEnvWrite) {
			return nil
		}
		return apperrors.Forbidden("api key lacks environment:write scope or access to this project")
	}
	if ctx.isAdmin() {
		return nil
	}
	return apperrors.Forbidden("caller is not a project admin")
}

// CanManageSDKKeys: project admin, or api-key with sdk_key:write.
func (s *Service) CanManageSDKKeys(id identity.Identity, ctx ProjectContext) error {
	if _, ok := id.(identity.Superuser); ok {
		return nil
	}
	if apiKey, ok := id.(identity.ApiKey); ok {
		if apiKey.HasProjectAccess(ctx.Project) && apiKey.HasScope(identity.ScopeSDKKeyWrite) {
			return nil
		}
		return apperrors.Forbidden("api key lacks sdk_key:write scope or access to this project")
	}
	if ctx.isAdmin() {
		return nil
	}
	return apperrors.Forbidden("caller is not a project admin")
}

// CanManageAdminAPIKeys: workspace admin, users only.
func (s *Service) CanManageAdminAPIKeys(id identity.Identity, isWorkspaceAdmin bool) error {
	if _, ok := id.(identity.Superuser); ok {
		return nil
	}
	if _, err := identity.RequireUser(id); err != nil {
		return err
	}
	if !isWorkspaceAdmin {
		return apperrors.Forbidden("caller is not a workspace admin")
	}
	return nil
}

// CanCreateWorkspace: any user; API keys cannot (spec.md §4.1/§4.4).
func (s *Service) CanCreateWorkspace(id identity.Identity) error {
	if _, ok := id.(identity.Superuser); ok {
		return nil
	}
	_, err := identity.RequireUser(id)
	return err
}
