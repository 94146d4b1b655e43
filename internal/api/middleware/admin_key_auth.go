package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/identity"
	"kv-shepherd.io/shepherd/internal/replica"
)

// SDKProjectIDKey and SDKEnvironmentIDKey are the Gin context keys
// BearerKeyAuth stashes an SDK key's binding under — SDK keys aren't an
// identity.Identity, so they can't travel through identity.WithIdentity
// the way a User/ApiKey does.
const (
	SDKProjectIDKey     = "sdk_project_id"
	SDKEnvironmentIDKey = "sdk_environment_id"
)

// BearerKeyAuth returns a Gin middleware that authenticates the
// Authorization: Bearer token against verifier (spec.md §4.8) and
// attaches the result to the request: an admin key resolves to an
// identity.ApiKey, same as JWTAuthWithConfig attaches identity.User; an
// SDK key carries no identity of its own, so its bound project and
// environment are stashed on the gin.Context instead, for the SDK-read
// handler to read back.
func BearerKeyAuth(verifier *replica.SDKVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "invalid authorization header format",
			})
			return
		}

		result, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "invalid or expired api key",
			})
			return
		}

		if result.IsAdmin {
			c.Set("identity", result.Identity)
			c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), result.Identity))
			c.Next()
			return
		}

		c.Set(SDKProjectIDKey, result.ProjectID)
		c.Set(SDKEnvironmentIDKey, result.EnvironmentID)
		c.Next()
	}
}
