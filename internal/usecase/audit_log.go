package usecase

import (
	"context"

	"kv-shepherd.io/shepherd/internal/store"
)

const defaultAuditPageSize = 50

// ListAuditLogsByProject returns a keyset-paginated page of audit
// records for a project, newest first (spec.md §5). Gated by project
// read access, same as every other project-scoped read.
func (d *Deps) ListAuditLogsByProject(ctx context.Context, projectID string, before *store.AuditLogCursor, limit int) ([]store.AuditLog, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	var out []store.AuditLog
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, err := tx.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanReadProject(id, pc); err != nil {
			return err
		}
		out, err = tx.AuditLogs.ListByProject(ctx, projectID, before, limit)
		return err
	})
	return out, err
}

// ListAuditLogsByConfig returns up to limit audit records naming a
// config (50 when limit <= 0), newest first, gated by read access to the
// owning project.
func (d *Deps) ListAuditLogsByConfig(ctx context.Context, configID string, limit int) ([]store.AuditLog, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	var out []store.AuditLog
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, _, err := loadProjectAndConfig(ctx, tx, configID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanReadProject(id, pc); err != nil {
			return err
		}
		out, err = tx.AuditLogs.ListByConfig(ctx, configID, limit)
		return err
	})
	return out, err
}
