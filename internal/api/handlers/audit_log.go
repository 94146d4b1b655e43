package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/store"
)

func parseAuditCursor(c *gin.Context) *store.AuditLogCursor {
	at := c.Query("beforeCreatedAt")
	id := c.Query("beforeId")
	if at == "" || id == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return nil
	}
	return &store.AuditLogCursor{CreatedAt: ts, ID: id}
}

func parseLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return n
}

// ListAuditLogsByProject handles GET /api/v1/projects/:projectId/audit-logs.
func (a *API) ListAuditLogsByProject(c *gin.Context) {
	logs, err := a.UC.ListAuditLogsByProject(c.Request.Context(), c.Param("projectId"), parseAuditCursor(c), parseLimit(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, logs)
}

// ListAuditLogsByConfig handles GET /api/v1/configs/:configId/audit-logs.
func (a *API) ListAuditLogsByConfig(c *gin.Context) {
	logs, err := a.UC.ListAuditLogsByConfig(c.Request.Context(), c.Param("configId"), parseLimit(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, logs)
}
