package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/identity"
	"kv-shepherd.io/shepherd/internal/usecase"
)

type createAdminAPIKeyRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Scopes      []identity.Scope `json:"scopes" binding:"required"`
	ProjectIDs  []string         `json:"projectIds"`
	ExpiresAt   *time.Time       `json:"expiresAt"`
}

// CreateAdminAPIKey handles POST /api/v1/workspaces/:workspaceId/admin-api-keys.
func (a *API) CreateAdminAPIKey(c *gin.Context) {
	var req createAdminAPIKeyRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := a.UC.CreateAdminAPIKey(c.Request.Context(), usecase.CreateAdminAPIKeyInput{
		WorkspaceID: c.Param("workspaceId"), Name: req.Name, Description: req.Description,
		Scopes: req.Scopes, ProjectIDs: req.ProjectIDs, ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"key": res.Key, "token": res.Token})
}

// ListAdminAPIKeys handles GET /api/v1/workspaces/:workspaceId/admin-api-keys.
func (a *API) ListAdminAPIKeys(c *gin.Context) {
	keys, err := a.UC.ListAdminAPIKeys(c.Request.Context(), c.Param("workspaceId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, keys)
}

// DeleteAdminAPIKey handles DELETE
// /api/v1/workspaces/:workspaceId/admin-api-keys/:keyId.
func (a *API) DeleteAdminAPIKey(c *gin.Context) {
	if err := a.UC.DeleteAdminAPIKey(c.Request.Context(), c.Param("workspaceId"), c.Param("keyId")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
