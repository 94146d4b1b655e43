package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// AuditLogStore provides typed, append-only access to the audit_logs
// table (spec.md §3/§5). Rows are never updated or deleted; ids are
// UUIDv7 so keyset pagination on (created_at desc, id desc) matches
// insertion order within a millisecond-tolerant bound.
type AuditLogStore struct{ q Querier }

// Create appends a new audit record.
func (s *AuditLogStore) Create(ctx context.Context, a AuditLog) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, project_id, config_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		a.ID, a.UserID, a.ProjectID, a.ConfigID, jsonArg(a.Payload), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log %s: %w", a.ID, err)
	}
	return nil
}

// ListByProject returns a page of audit records for a project, newest
// first, keyset-paginated on (created_at, id) per spec.md §5.
func (s *AuditLogStore) ListByProject(ctx context.Context, projectID string, before *AuditLogCursor, limit int) ([]AuditLog, error) {
	if before == nil {
		rows, err := s.q.Query(ctx, `
			SELECT id, user_id, project_id, config_id, payload, created_at
			FROM audit_logs WHERE project_id = $1
			ORDER BY created_at DESC, id DESC LIMIT $2`, projectID, limit)
		if err != nil {
			return nil, fmt.Errorf("list audit logs for project %s: %w", projectID, err)
		}
		defer rows.Close()
		return scanAuditLogRows(rows)
	}

	rows, err := s.q.Query(ctx, `
		SELECT id, user_id, project_id, config_id, payload, created_at
		FROM audit_logs WHERE project_id = $1 AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC LIMIT $4`, projectID, before.CreatedAt, before.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs for project %s: %w", projectID, err)
	}
	defer rows.Close()
	return scanAuditLogRows(rows)
}

// ListByConfig returns up to limit audit records naming a config, newest first.
func (s *AuditLogStore) ListByConfig(ctx context.Context, configID string, limit int) ([]AuditLog, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, user_id, project_id, config_id, payload, created_at
		FROM audit_logs WHERE config_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, configID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs for config %s: %w", configID, err)
	}
	defer rows.Close()
	return scanAuditLogRows(rows)
}

// AuditLogCursor is the keyset pagination cursor for audit log listings.
type AuditLogCursor struct {
	CreatedAt time.Time
	ID        string
}

func scanAuditLogRows(rows pgx.Rows) ([]AuditLog, error) {
	var out []AuditLog
	for rows.Next() {
		var a AuditLog
		var payload *string
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProjectID, &a.ConfigID, &payload, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		a.Payload = scanJSON(payload)
		out = append(out, a)
	}
	return out, rows.Err()
}
