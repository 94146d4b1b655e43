package handlers

import (
	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/store"
	"kv-shepherd.io/shepherd/internal/usecase"
)

// ListProjectUsers handles GET /api/v1/projects/:projectId/users.
func (a *API) ListProjectUsers(c *gin.Context) {
	users, err := a.UC.ListProjectUsers(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, users)
}

type addProjectUserRequest struct {
	Email string                `json:"email" binding:"required"`
	Role  store.ProjectUserRole `json:"role" binding:"required"`
}

// AddProjectUser handles POST /api/v1/projects/:projectId/users.
func (a *API) AddProjectUser(c *gin.Context) {
	var req addProjectUserRequest
	if !bindJSON(c, &req) {
		return
	}
	pu, err := a.UC.AddProjectUser(c.Request.Context(), usecase.AddProjectUserInput{
		ProjectID: c.Param("projectId"), Email: req.Email, Role: req.Role,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, pu)
}

type updateProjectUserRoleRequest struct {
	Role store.ProjectUserRole `json:"role" binding:"required"`
}

// UpdateProjectUserRole handles PATCH
// /api/v1/projects/:projectId/users/:userId.
func (a *API) UpdateProjectUserRole(c *gin.Context) {
	var req updateProjectUserRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := a.UC.UpdateProjectUserRole(c.Request.Context(), usecase.UpdateProjectUserRoleInput{
		ProjectID: c.Param("projectId"), UserID: c.Param("userId"), Role: req.Role,
	}); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// RemoveProjectUser handles DELETE /api/v1/projects/:projectId/users/:userId.
func (a *API) RemoveProjectUser(c *gin.Context) {
	if err := a.UC.RemoveProjectUser(c.Request.Context(), c.Param("projectId"), c.Param("userId")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
