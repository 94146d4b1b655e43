package usecase

import (
	"context"
	"time"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/identity"
	"kv-shepherd.io/shepherd/internal/idgen"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// CreateProjectInput describes a new project. The caller (a workspace
// member) becomes its founding admin.
type CreateProjectInput struct {
	WorkspaceID        string
	Name               string
	Description        string
	RequireProposals   bool
	AllowSelfApprovals bool
}

// CreateProject creates a project, its founding admin roster entry, and
// its first environment ("Default"), since spec.md §3 requires every
// project to carry at least one environment at all times.
func (d *Deps) CreateProject(ctx context.Context, in CreateProjectInput) (store.Project, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Project{}, err
	}

	var out store.Project
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if u, ok := id.(identity.User); ok {
			if _, err := tx.WorkspaceMembers.GetByEmail(ctx, in.WorkspaceID, u.Email); err != nil {
				return err
			}
		} else if _, isAPI := id.(identity.ApiKey); isAPI {
			return apperrors.Forbidden("project creation requires a user identity")
		}

		if _, err := tx.Projects.GetByName(ctx, in.WorkspaceID, in.Name); err == nil {
			return apperrors.BadRequest("a project with this name already exists in this workspace")
		} else if appErr, ok := apperrors.As(err); !ok || appErr.Kind != apperrors.KindNotFound {
			return err
		}

		now := time.Now().UTC()
		p := store.Project{
			ID: idgen.New(), WorkspaceID: in.WorkspaceID, Name: in.Name, Description: in.Description,
			RequireProposals: in.RequireProposals, AllowSelfApprovals: in.AllowSelfApprovals,
			CreatedAt: now, UpdatedAt: now,
		}
		if err := tx.Projects.Create(ctx, p); err != nil {
			return err
		}

		u, _ := id.(identity.User)
		if err := tx.ProjectUsers.Create(ctx, store.ProjectUser{
			ID: idgen.New(), ProjectID: p.ID, Email: u.Email, Role: store.ProjectRoleAdmin, CreatedAt: now,
		}); err != nil {
			return err
		}

		if err := tx.Environments.Create(ctx, store.Environment{
			ID: idgen.New(), ProjectID: p.ID, Name: "Default", Order: 0,
			RequireProposals: false, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}

		out = p
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(u.Email), ProjectID: refStr(p.ID), Type: audit.EventProjectCreated,
			Payload: map[string]interface{}{"name": p.Name},
		})
	})
	return out, err
}

// UpdateProjectInput patches a project's mutable fields.
type UpdateProjectInput struct {
	ProjectID          string
	Name               string
	Description        string
	RequireProposals   bool
	AllowSelfApprovals bool
}

// UpdateProject renames/retoggles a project (spec.md §4.4: "manage
// project: project admin OR api-key with project:write").
func (d *Deps) UpdateProject(ctx context.Context, in UpdateProjectInput) (store.Project, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Project{}, err
	}
	var out store.Project
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, err := tx.Projects.GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageProject(id, pc); err != nil {
			return err
		}

		p.Name = in.Name
		p.Description = in.Description
		p.RequireProposals = in.RequireProposals
		p.AllowSelfApprovals = in.AllowSelfApprovals
		p.UpdatedAt = time.Now().UTC()
		if err := tx.Projects.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), Type: audit.EventProjectUpdated,
			Payload: map[string]interface{}{"name": p.Name},
		})
	})
	return out, err
}

// DeleteProject removes a project. Requires a user identity, project
// admin, and that the project is not the workspace's last one.
func (d *Deps) DeleteProject(ctx context.Context, projectID string) error {
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
		count, err := tx.Projects.CountByWorkspace(ctx, p.WorkspaceID)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanDeleteProject(id, pc, count <= 1); err != nil {
			return err
		}
		if err := tx.Projects.Delete(ctx, p.ID); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), Type: audit.EventProjectDeleted,
			Payload: map[string]interface{}{"name": p.Name},
		})
	})
}

// ListProjects returns every project in a workspace visible to id.
func (d *Deps) ListProjects(ctx context.Context, workspaceID string) ([]store.Project, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.Project
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		projects, err := tx.Projects.ListByWorkspace(ctx, workspaceID)
		if err != nil {
			return err
		}
		visible := make([]store.Project, 0, len(projects))
		for _, p := range projects {
			pc, err := projectContext(ctx, tx, id, p)
			if err != nil {
				return err
			}
			if d.Permissions.CanReadProject(id, pc) == nil {
				visible = append(visible, p)
			}
		}
		out = visible
		return nil
	})
	return out, err
}

// GetProject fetches a single project, enforcing read access.
func (d *Deps) GetProject(ctx context.Context, projectID string) (store.Project, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Project{}, err
	}
	var out store.Project
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
		out = p
		return nil
	})
	return out, err
}
