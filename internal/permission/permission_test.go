package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kv-shepherd.io/shepherd/internal/identity"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

var project = identity.ProjectRef{ID: "proj-1", WorkspaceID: "ws-1"}

func role(r store.ProjectUserRole) *store.ProjectUserRole { return &r }
func crole(r store.ConfigUserRole) *store.ConfigUserRole  { return &r }

func TestCanReadProject(t *testing.T) {
	svc := New()

	t.Run("workspace member allowed", func(t *testing.T) {
		err := svc.CanReadProject(identity.User{ID: "u1"}, ProjectContext{Project: project, IsWorkspaceMember: true})
		assert.NoError(t, err)
	})

	t.Run("non-member denied", func(t *testing.T) {
		err := svc.CanReadProject(identity.User{ID: "u1"}, ProjectContext{Project: project, IsWorkspaceMember: false})
		require.Error(t, err)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.KindForbidden, appErr.Kind)
	})

	t.Run("api key with scope and access allowed", func(t *testing.T) {
		key := identity.ApiKey{WorkspaceID: "ws-1", Scopes: []identity.Scope{identity.ScopeProjectRead}}
		err := svc.CanReadProject(key, ProjectContext{Project: project})
		assert.NoError(t, err)
	})

	t.Run("api key missing scope denied", func(t *testing.T) {
		key := identity.ApiKey{WorkspaceID: "ws-1", Scopes: []identity.Scope{identity.ScopeConfigRead}}
		err := svc.CanReadProject(key, ProjectContext{Project: project})
		assert.Error(t, err)
	})

	t.Run("api key scoped to other project denied", func(t *testing.T) {
		key := identity.ApiKey{WorkspaceID: "ws-1", ProjectIDs: []string{"other"}, Scopes: []identity.Scope{identity.ScopeProjectRead}}
		err := svc.CanReadProject(key, ProjectContext{Project: project})
		assert.Error(t, err)
	})
}

func TestCanManageProject(t *testing.T) {
	svc := New()

	t.Run("project admin allowed", func(t *testing.T) {
		err := svc.CanManageProject(identity.User{ID: "u1"}, ProjectContext{Project: project, CallerRole: role(store.ProjectRoleAdmin)})
		assert.NoError(t, err)
	})

	t.Run("maintainer denied", func(t *testing.T) {
		err := svc.CanManageProject(identity.User{ID: "u1"}, ProjectContext{Project: project, CallerRole: role(store.ProjectRoleMaintainer)})
		assert.Error(t, err)
	})

	t.Run("api key with project:write implies config:write on config context", func(t *testing.T) {
		key := identity.ApiKey{WorkspaceID: "ws-1", Scopes: []identity.Scope{identity.ScopeProjectWrite}}
		assert.True(t, key.HasScope(identity.ScopeConfigWrite))
	})
}

func TestCanDeleteProject(t *testing.T) {
	svc := New()
	ctx := ProjectContext{Project: project, CallerRole: role(store.ProjectRoleAdmin)}

	t.Run("admin can delete non-last project", func(t *testing.T) {
		err := svc.CanDeleteProject(identity.User{ID: "u1"}, ctx, false)
		assert.NoError(t, err)
	})

	t.Run("cannot delete last project in workspace", func(t *testing.T) {
		err := svc.CanDeleteProject(identity.User{ID: "u1"}, ctx, true)
		require.Error(t, err)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.KindBadRequest, appErr.Kind)
	})

	t.Run("api key cannot delete project", func(t *testing.T) {
		key := identity.ApiKey{WorkspaceID: "ws-1", Scopes: []identity.Scope{identity.ScopeProjectWrite}}
		err := svc.CanDeleteProject(key, ctx, false)
		assert.Error(t, err)
	})
}

func TestCanEditConfigValue(t *testing.T) {
	svc := New()

	t.Run("config editor allowed", func(t *testing.T) {
		ctx := ConfigContext{Project: ProjectContext{Project: project}, CallerRole: crole(store.ConfigRoleEditor)}
		err := svc.CanEditConfigValue(identity.User{ID: "u1"}, ctx)
		assert.NoError(t, err)
	})

	t.Run("project admin allowed even without config role", func(t *testing.T) {
		ctx := ConfigContext{Project: ProjectContext{Project: project, CallerRole: role(store.ProjectRoleAdmin)}}
		err := svc.CanEditConfigValue(identity.User{ID: "u1"}, ctx)
		assert.NoError(t, err)
	})

	t.Run("bystander denied", func(t *testing.T) {
		ctx := ConfigContext{Project: ProjectContext{Project: project}}
		err := svc.CanEditConfigValue(identity.User{ID: "u1"}, ctx)
		assert.Error(t, err)
	})
}

func TestCanCreateWorkspace(t *testing.T) {
	svc := New()
	assert.NoError(t, svc.CanCreateWorkspace(identity.User{ID: "u1"}))
	assert.Error(t, svc.CanCreateWorkspace(identity.ApiKey{WorkspaceID: "ws-1"}))
}

func TestCanManageAdminAPIKeys(t *testing.T) {
	svc := New()
	assert.NoError(t, svc.CanManageAdminAPIKeys(identity.User{ID: "u1"}, true))
	assert.Error(t, svc.CanManageAdminAPIKeys(identity.User{ID: "u1"}, false))
	assert.Error(t, svc.CanManageAdminAPIKeys(identity.ApiKey{WorkspaceID: "ws-1"}, true))
}
