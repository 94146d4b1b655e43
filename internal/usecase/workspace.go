package usecase

import (
	"context"
	"time"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/idgen"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// CreateWorkspaceInput describes a new workspace and its founding admin.
type CreateWorkspaceInput struct {
	Name            string
	AutoAddNewUsers bool
}

// CreateWorkspace creates a workspace with the caller as its sole admin
// (spec.md §4.4: "create workspace: any user; API keys cannot").
func (d *Deps) CreateWorkspace(ctx context.Context, in CreateWorkspaceInput) (store.Workspace, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Workspace{}, err
	}
	if err := d.Permissions.CanCreateWorkspace(id); err != nil {
		return store.Workspace{}, err
	}
	u, err := requireUserIdentity(id)
	if err != nil {
		return store.Workspace{}, err
	}

	var ws store.Workspace
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		now := time.Now().UTC()
		ws = store.Workspace{
			ID:              idgen.New(),
			Name:            in.Name,
			AutoAddNewUsers: in.AutoAddNewUsers,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Workspaces.Create(ctx, ws); err != nil {
			return err
		}
		if err := tx.WorkspaceMembers.Create(ctx, store.WorkspaceMember{
			ID:          idgen.New(),
			WorkspaceID: ws.ID,
			Email:       u.Email,
			Role:        store.WorkspaceRoleAdmin,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(u.Email), Type: audit.EventWorkspaceCreated,
			Payload: map[string]interface{}{"workspaceId": ws.ID, "name": ws.Name},
		})
	})
	return ws, err
}

// UpdateWorkspaceInput patches a workspace's mutable fields.
type UpdateWorkspaceInput struct {
	WorkspaceID     string
	Name            string
	AutoAddNewUsers bool
}

// UpdateWorkspace renames a workspace or flips its auto-add toggle.
// Gated the same way project management is: a workspace admin.
func (d *Deps) UpdateWorkspace(ctx context.Context, in UpdateWorkspaceInput) (store.Workspace, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Workspace{}, err
	}

	var ws store.Workspace
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		w, err := tx.Workspaces.GetByID(ctx, in.WorkspaceID)
		if err != nil {
			return err
		}
		if err := requireWorkspaceAdmin(ctx, tx, id, w.ID); err != nil {
			return err
		}

		w.Name = in.Name
		w.AutoAddNewUsers = in.AutoAddNewUsers
		w.UpdatedAt = time.Now().UTC()
		if err := tx.Workspaces.Update(ctx, w); err != nil {
			return err
		}
		ws = w
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)),
			Type:   audit.EventWorkspaceUpdated,
			Payload: map[string]interface{}{
				"workspaceId": w.ID, "name": w.Name,
			},
		})
	})
	return ws, err
}

// DeleteWorkspace removes a workspace. Requires a user identity and
// workspace-admin role.
func (d *Deps) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		w, err := tx.Workspaces.GetByID(ctx, workspaceID)
		if err != nil {
			return err
		}
		if err := requireWorkspaceAdmin(ctx, tx, id, w.ID); err != nil {
			return err
		}
		if err := tx.Workspaces.Delete(ctx, w.ID); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), Type: audit.EventWorkspaceDeleted,
			Payload: map[string]interface{}{"workspaceId": w.ID, "name": w.Name},
		})
	})
}

// AddWorkspaceMemberInput adds a user to a workspace's roster.
type AddWorkspaceMemberInput struct {
	WorkspaceID string
	Email       string
	Role        store.WorkspaceMemberRole
}

// AddWorkspaceMember adds email to the workspace's roster. Requires a
// user identity and workspace-admin role on the caller.
func (d *Deps) AddWorkspaceMember(ctx context.Context, in AddWorkspaceMemberInput) (store.WorkspaceMember, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.WorkspaceMember{}, err
	}
	var m store.WorkspaceMember
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := requireWorkspaceAdmin(ctx, tx, id, in.WorkspaceID); err != nil {
			return err
		}
		m = store.WorkspaceMember{
			ID: idgen.New(), WorkspaceID: in.WorkspaceID, Email: in.Email, Role: in.Role,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.WorkspaceMembers.Create(ctx, m); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), Type: audit.EventWorkspaceMemberAdded,
			Payload: map[string]interface{}{"workspaceId": in.WorkspaceID, "email": in.Email, "role": in.Role},
		})
	})
	return m, err
}

// UpdateWorkspaceMemberRoleInput changes a roster entry's role.
type UpdateWorkspaceMemberRoleInput struct {
	WorkspaceID string
	MemberID    string
	Role        store.WorkspaceMemberRole
}

// UpdateWorkspaceMemberRole changes a member's role, refusing to demote
// the workspace's sole remaining admin (spec.md §3: "each workspace has
// >=1 admin").
func (d *Deps) UpdateWorkspaceMemberRole(ctx context.Context, in UpdateWorkspaceMemberRoleInput) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := requireWorkspaceAdmin(ctx, tx, id, in.WorkspaceID); err != nil {
			return err
		}
		if in.Role != store.WorkspaceRoleAdmin {
			admins, err := tx.WorkspaceMembers.CountAdmins(ctx, in.WorkspaceID)
			if err != nil {
				return err
			}
			members, err := tx.WorkspaceMembers.ListByWorkspace(ctx, in.WorkspaceID)
			if err != nil {
				return err
			}
			for _, m := range members {
				if m.ID == in.MemberID && m.Role == store.WorkspaceRoleAdmin && admins <= 1 {
					return apperrors.BadRequest("cannot demote the workspace's last remaining admin")
				}
			}
		}
		if err := tx.WorkspaceMembers.UpdateRole(ctx, in.MemberID, in.Role); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), Type: audit.EventWorkspaceMemberRoleChanged,
			Payload: map[string]interface{}{"workspaceId": in.WorkspaceID, "memberId": in.MemberID, "role": in.Role},
		})
	})
}

// RemoveWorkspaceMember removes a roster entry, refusing to remove the
// workspace's sole remaining admin.
func (d *Deps) RemoveWorkspaceMember(ctx context.Context, workspaceID, memberID string) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := requireWorkspaceAdmin(ctx, tx, id, workspaceID); err != nil {
			return err
		}
		members, err := tx.WorkspaceMembers.ListByWorkspace(ctx, workspaceID)
		if err != nil {
			return err
		}
		admins, err := tx.WorkspaceMembers.CountAdmins(ctx, workspaceID)
		if err != nil {
			return err
		}
		var email string
		for _, m := range members {
			if m.ID == memberID {
				email = m.Email
				if m.Role == store.WorkspaceRoleAdmin && admins <= 1 {
					return apperrors.BadRequest("cannot remove the workspace's last remaining admin")
				}
			}
		}
		if err := tx.WorkspaceMembers.Delete(ctx, memberID); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), Type: audit.EventWorkspaceMemberRemoved,
			Payload: map[string]interface{}{"workspaceId": workspaceID, "email": email},
		})
	})
}

// ListWorkspaceMembers returns a workspace's roster. Requires the
// caller be a workspace member (read access is not API-key gated: admin
// API keys are workspace-scoped already, but member management is
// user-only per spec.md §4.1).
func (d *Deps) ListWorkspaceMembers(ctx context.Context, workspaceID string) ([]store.WorkspaceMember, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.WorkspaceMember
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if u, ok := id.(identity.User); ok {
			if _, err := tx.WorkspaceMembers.GetByEmail(ctx, workspaceID, u.Email); err != nil {
				return err
			}
		}
		members, err := tx.WorkspaceMembers.ListByWorkspace(ctx, workspaceID)
		if err != nil {
			return err
		}
		out = members
		return nil
	})
	return out, err
}

// DeleteUserAccount removes the caller's own account artifacts from a
// workspace roster. Requires a user identity (spec.md §4.1: "account
// deletion" is a user-only operation).
func (d *Deps) DeleteUserAccount(ctx context.Context, workspaceID string) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	u, err := requireUserIdentity(id)
	if err != nil {
		return err
	}
	return d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		m, err := tx.WorkspaceMembers.GetByEmail(ctx, workspaceID, u.Email)
		if err != nil {
			return err
		}
		if m.Role == store.WorkspaceRoleAdmin {
			admins, err := tx.WorkspaceMembers.CountAdmins(ctx, workspaceID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return apperrors.BadRequest("cannot delete the account of the workspace's last remaining admin")
			}
		}
		if err := tx.WorkspaceMembers.Delete(ctx, m.ID); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(u.Email), Type: audit.EventUserAccountDeleted,
			Payload: map[string]interface{}{"workspaceId": workspaceID, "email": u.Email},
		})
	})
}
