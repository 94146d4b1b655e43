package handlers

import (
	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/usecase"
)

type createSDKKeyRequest struct {
	EnvironmentID string `json:"environmentId" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
}

// CreateSDKKey handles POST /api/v1/projects/:projectId/sdk-keys.
func (a *API) CreateSDKKey(c *gin.Context) {
	var req createSDKKeyRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := a.UC.CreateSDKKey(c.Request.Context(), usecase.CreateSDKKeyInput{
		ProjectID: c.Param("projectId"), EnvironmentID: req.EnvironmentID, Name: req.Name, Description: req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, gin.H{"key": res.Key, "token": res.Token})
}

// ListSDKKeys handles GET /api/v1/projects/:projectId/sdk-keys.
func (a *API) ListSDKKeys(c *gin.Context) {
	keys, err := a.UC.ListSDKKeys(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, keys)
}

type updateSDKKeyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// UpdateSDKKey handles PATCH /api/v1/sdk-keys/:sdkKeyId.
func (a *API) UpdateSDKKey(c *gin.Context) {
	var req updateSDKKeyRequest
	if !bindJSON(c, &req) {
		return
	}
	key, err := a.UC.UpdateSDKKey(c.Request.Context(), usecase.UpdateSDKKeyInput{
		SDKKeyID: c.Param("sdkKeyId"), Name: req.Name, Description: req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, key)
}

// DeleteSDKKey handles DELETE /api/v1/sdk-keys/:sdkKeyId.
func (a *API) DeleteSDKKey(c *gin.Context) {
	if err := a.UC.DeleteSDKKey(c.Request.Context(), c.Param("sdkKeyId")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
