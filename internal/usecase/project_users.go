package usecase

import (
	"context"
	"time"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/idgen"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// ListProjectUsers returns a project's roster, gated by read access.
func (d *Deps) ListProjectUsers(ctx context.Context, projectID string) ([]store.ProjectUser, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.ProjectUser
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
		out, err = tx.ProjectUsers.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

// AddProjectUserInput adds a user to a project's roster.
type AddProjectUserInput struct {
	ProjectID string
	Email     string
	Role      store.ProjectUserRole
}

// AddProjectUser adds email to projectID's roster (spec.md §4.4: "manage
// project users: project admin (users only)").
func (d *Deps) AddProjectUser(ctx context.Context, in AddProjectUserInput) (store.ProjectUser, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.ProjectUser{}, err
	}
	var out store.ProjectUser
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, err := tx.Projects.GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageProjectUsers(id, pc); err != nil {
			return err
		}
		out = store.ProjectUser{ID: idgen.New(), ProjectID: p.ID, Email: in.Email, Role: in.Role, CreatedAt: time.Now().UTC()}
		if err := tx.ProjectUsers.Create(ctx, out); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), Type: audit.EventProjectMembersChanged,
			Payload: map[string]interface{}{"added": []string{in.Email}},
		})
	})
	return out, err
}

// UpdateProjectUserRoleInput changes a roster entry's role.
type UpdateProjectUserRoleInput struct {
	ProjectID string
	UserID    string
	Role      store.ProjectUserRole
}

// UpdateProjectUserRole changes a project roster entry's role, refusing
// to demote the project's sole remaining admin.
func (d *Deps) UpdateProjectUserRole(ctx context.Context, in UpdateProjectUserRoleInput) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, err := tx.Projects.GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageProjectUsers(id, pc); err != nil {
			return err
		}
		if in.Role != store.ProjectRoleAdmin {
			admins, err := tx.ProjectUsers.CountAdmins(ctx, in.ProjectID)
			if err != nil {
				return err
			}
			users, err := tx.ProjectUsers.ListByProject(ctx, in.ProjectID)
			if err != nil {
				return err
			}
			for _, pu := range users {
				if pu.ID == in.UserID && pu.Role == store.ProjectRoleAdmin && admins <= 1 {
					return apperrors.BadRequest("cannot demote the project's last remaining admin")
				}
			}
		}
		if err := tx.ProjectUsers.UpdateRole(ctx, in.UserID, in.Role); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), Type: audit.EventProjectMembersChanged,
			Payload: map[string]interface{}{"roleChanged": in.UserID},
		})
	})
}

// RemoveProjectUser removes a roster entry, refusing to remove the
// project's sole remaining admin.
func (d *Deps) RemoveProjectUser(ctx context.Context, projectID, userID string) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, err := tx.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageProjectUsers(id, pc); err != nil {
			return err
		}
		admins, err := tx.ProjectUsers.CountAdmins(ctx, projectID)
		if err != nil {
			return err
		}
		users, err := tx.ProjectUsers.ListByProject(ctx, projectID)
		if err != nil {
			return err
		}
		var email string
		for _, pu := range users {
			if pu.ID == userID {
				email = pu.Email
				if pu.Role == store.ProjectRoleAdmin && admins <= 1 {
					return apperrors.BadRequest("cannot remove the project's last remaining admin")
				}
			}
		}
		if err := tx.ProjectUsers.Delete(ctx, userID); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), Type: audit.EventProjectMembersChanged,
			Payload: map[string]interface{}{"removed": []string{email}},
		})
	})
}
