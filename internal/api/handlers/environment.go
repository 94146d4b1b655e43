package handlers

import (
	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/usecase"
)

// ListEnvironments handles GET /api/v1/projects/:projectId/environments.
func (a *API) ListEnvironments(c *gin.Context) {
	envs, err := a.UC.ListEnvironments(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, envs)
}

type createEnvironmentRequest struct {
	Name             string `json:"name" binding:"required"`
	Order            int    `json:"order"`
	RequireProposals bool   `json:"requireProposals"`
}

// CreateEnvironment handles POST /api/v1/projects/:projectId/environments.
func (a *API) CreateEnvironment(c *gin.Context) {
	var req createEnvironmentRequest
	if !bindJSON(c, &req) {
		return
	}
	env, err := a.UC.CreateEnvironment(c.Request.Context(), usecase.CreateEnvironmentInput{
		ProjectID: c.Param("projectId"), Name: req.Name, Order: req.Order, RequireProposals: req.RequireProposals,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, env)
}

type updateEnvironmentRequest struct {
	Name             string `json:"name" binding:"required"`
	Order            int    `json:"order"`
	RequireProposals bool   `json:"requireProposals"`
}

// UpdateEnvironment handles PATCH /api/v1/environments/:environmentId.
func (a *API) UpdateEnvironment(c *gin.Context) {
	var req updateEnvironmentRequest
	if !bindJSON(c, &req) {
		return
	}
	env, err := a.UC.UpdateEnvironment(c.Request.Context(), usecase.UpdateEnvironmentInput{
		EnvironmentID: c.Param("environmentId"), Name: req.Name, Order: req.Order, RequireProposals: req.RequireProposals,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, env)
}

// DeleteEnvironment handles DELETE /api/v1/environments/:environmentId.
func (a *API) DeleteEnvironment(c *gin.Context) {
	if err := a.UC.DeleteEnvironment(c.Request.Context(), c.Param("environmentId")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
