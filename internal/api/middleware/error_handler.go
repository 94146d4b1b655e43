// Package middleware provides HTTP middleware for the Replane control plane.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/pkg/logger"
)

// ErrorHandler is a Gin middleware that provides centralized error handling.
// It captures errors added via c.Error() and returns a consistent JSON response.
// Gin best practice: separate error handling from route handlers.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			logger.Warn("request error",
				zap.String("code", appErr.Code),
				zap.String("message", appErr.Message),
				zap.Int("status", appErr.HTTPStatus()),
				zap.Error(appErr.Err),
			)
			body := gin.H{"message": appErr.Message}
			if appErr.Code != "" {
				body["code"] = appErr.Code
			}
			c.JSON(appErr.HTTPStatus(), body)
			return
		}

		fingerprint := apperrors.Fingerprint(err)
		logger.Error("unhandled request error", zap.Error(err), zap.String("fingerprint", fingerprint))
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "an internal error occurred [" + fingerprint + "]",
		})
	}
}
