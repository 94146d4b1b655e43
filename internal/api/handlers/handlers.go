// Package handlers wires Gin routes to internal/usecase.Deps. Each
// handler binds its request, calls exactly one Deps method, and renders
// the result; authorization and transaction handling live in usecase,
// not here.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/api/middleware"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/usecase"
)

// API bundles the use-case layer behind the handler functions. A single
// value is constructed at bootstrap and its methods registered as Gin
// handlers.
type API struct {
	UC *usecase.Deps
}

// bindJSON binds the request body into v, recording a BadRequest
// AppError via c.Error on failure so ErrorHandler renders it.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		_ = c.Error(apperrors.BadRequest("invalid request body: " + err.Error()))
		return false
	}
	return true
}

// fail records err on the gin context for ErrorHandler to render and
// stops further handler execution.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

func ok(c *gin.Context, v interface{}) {
	c.JSON(http.StatusOK, v)
}

func created(c *gin.Context, v interface{}) {
	c.JSON(http.StatusCreated, v)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// sdkBinding reads the (projectId, environmentId) middleware.BearerKeyAuth
// stashed on the context for an SDK key. Returns ok=false (and has
// already failed the request) if the caller did not authenticate as an
// SDK key.
func sdkBinding(c *gin.Context) (projectID, environmentID string, ok bool) {
	pid, pExists := c.Get(middleware.SDKProjectIDKey)
	eid, eExists := c.Get(middleware.SDKEnvironmentIDKey)
	if !pExists || !eExists {
		fail(c, apperrors.Forbidden("this endpoint requires an sdk key"))
		return "", "", false
	}
	return pid.(string), eid.(string), true
}
