package handlers

import "github.com/gin-gonic/gin"

// GetSDKConfigs handles GET /sdk/v1/configs?projectId=...&environmentId=...,
// the SDK-facing hot read path (spec.md §4.8). Authentication/binding is
// resolved by middleware.BearerKeyAuth; this handler defaults missing
// query parameters to the key's binding, and usecase GetSDKConfigs
// rejects a request that names any other binding.
func (a *API) GetSDKConfigs(c *gin.Context) {
	boundProjectID, boundEnvironmentID, isSDK := sdkBinding(c)
	if !isSDK {
		return
	}
	requestedProjectID := c.Query("projectId")
	requestedEnvironmentID := c.Query("environmentId")
	if requestedProjectID == "" {
		requestedProjectID = boundProjectID
	}
	if requestedEnvironmentID == "" {
		requestedEnvironmentID = boundEnvironmentID
	}

	configs, err := a.UC.GetSDKConfigs(c.Request.Context(), boundProjectID, boundEnvironmentID, requestedProjectID, requestedEnvironmentID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"configs": configs})
}
