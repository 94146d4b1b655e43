package handlers

import (
	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/store"
	"kv-shepherd.io/shepherd/internal/usecase"
)

type createWorkspaceRequest struct {
	Name            string `json:"name" binding:"required"`
	AutoAddNewUsers bool   `json:"autoAddNewUsers"`
}

// CreateWorkspace handles POST /api/v1/workspaces.
func (a *API) CreateWorkspace(c *gin.Context) {
	var req createWorkspaceRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := a.UC.CreateWorkspace(c.Request.Context(), usecase.CreateWorkspaceInput{
		Name: req.Name, AutoAddNewUsers: req.AutoAddNewUsers,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, ws)
}

type updateWorkspaceRequest struct {
	Name            string `json:"name" binding:"required"`
	AutoAddNewUsers bool   `json:"autoAddNewUsers"`
}

// UpdateWorkspace handles PATCH /api/v1/workspaces/:workspaceId.
func (a *API) UpdateWorkspace(c *gin.Context) {
	var req updateWorkspaceRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := a.UC.UpdateWorkspace(c.Request.Context(), usecase.UpdateWorkspaceInput{
		WorkspaceID: c.Param("workspaceId"), Name: req.Name, AutoAddNewUsers: req.AutoAddNewUsers,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, ws)
}

// DeleteWorkspace handles DELETE /api/v1/workspaces/:workspaceId.
func (a *API) DeleteWorkspace(c *gin.Context) {
	if err := a.UC.DeleteWorkspace(c.Request.Context(), c.Param("workspaceId")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

type addWorkspaceMemberRequest struct {
	Email string                    `json:"email" binding:"required"`
	Role  store.WorkspaceMemberRole `json:"role" binding:"required"`
}

// AddWorkspaceMember handles POST /api/v1/workspaces/:workspaceId/members.
func (a *API) AddWorkspaceMember(c *gin.Context) {
	var req addWorkspaceMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := a.UC.AddWorkspaceMember(c.Request.Context(), usecase.AddWorkspaceMemberInput{
		WorkspaceID: c.Param("workspaceId"), Email: req.Email, Role: req.Role,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, m)
}

type updateWorkspaceMemberRoleRequest struct {
	Role store.WorkspaceMemberRole `json:"role" binding:"required"`
}

// UpdateWorkspaceMemberRole handles PATCH
// /api/v1/workspaces/:workspaceId/members/:memberId.
func (a *API) UpdateWorkspaceMemberRole(c *gin.Context) {
	var req updateWorkspaceMemberRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := a.UC.UpdateWorkspaceMemberRole(c.Request.Context(), usecase.UpdateWorkspaceMemberRoleInput{
		WorkspaceID: c.Param("workspaceId"), MemberID: c.Param("memberId"), Role: req.Role,
	}); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// RemoveWorkspaceMember handles DELETE
// /api/v1/workspaces/:workspaceId/members/:memberId.
func (a *API) RemoveWorkspaceMember(c *gin.Context) {
	if err := a.UC.RemoveWorkspaceMember(c.Request.Context(), c.Param("workspaceId"), c.Param("memberId")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// ListWorkspaceMembers handles GET /api/v1/workspaces/:workspaceId/members.
func (a *API) ListWorkspaceMembers(c *gin.Context) {
	members, err := a.UC.ListWorkspaceMembers(c.Request.Context(), c.Param("workspaceId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, members)
}

// DeleteUserAccount handles DELETE /api/v1/workspaces/:workspaceId/account.
func (a *API) DeleteUserAccount(c *gin.Context) {
	if err := a.UC.DeleteUserAccount(c.Request.Context(), c.Param("workspaceId")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
