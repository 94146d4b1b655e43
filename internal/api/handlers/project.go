package handlers

import (
	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/usecase"
)

type createProjectRequest struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	RequireProposals   bool   `json:"requireProposals"`
	AllowSelfApprovals bool   `json:"allowSelfApprovals"`
}

// CreateProject handles POST /api/v1/workspaces/:workspaceId/projects.
func (a *API) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := a.UC.CreateProject(c.Request.Context(), usecase.CreateProjectInput{
		WorkspaceID: c.Param("workspaceId"), Name: req.Name, Description: req.Description,
		RequireProposals: req.RequireProposals, AllowSelfApprovals: req.AllowSelfApprovals,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, p)
}

type updateProjectRequest struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	RequireProposals   bool   `json:"requireProposals"`
	AllowSelfApprovals bool   `json:"allowSelfApprovals"`
}

// UpdateProject handles PATCH /api/v1/projects/:projectId.
func (a *API) UpdateProject(c *gin.Context) {
	var req updateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := a.UC.UpdateProject(c.Request.Context(), usecase.UpdateProjectInput{
		ProjectID: c.Param("projectId"), Name: req.Name, Description: req.Description,
		RequireProposals: req.RequireProposals, AllowSelfApprovals: req.AllowSelfApprovals,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

// DeleteProject handles DELETE /api/v1/projects/:projectId.
func (a *API) DeleteProject(c *gin.Context) {
	if err := a.UC.DeleteProject(c.Request.Context(), c.Param("projectId")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// ListProjects handles GET /api/v1/workspaces/:workspaceId/projects.
func (a *API) ListProjects(c *gin.Context) {
	projects, err := a.UC.ListProjects(c.Request.Context(), c.Param("workspaceId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, projects)
}

// GetProject handles GET /api/v1/projects/:projectId.
func (a *API) GetProject(c *gin.Context) {
	p, err := a.UC.GetProject(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}
