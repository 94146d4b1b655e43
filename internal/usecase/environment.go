package usecase

import (
	"context"
	"time"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/idgen"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// ListEnvironments returns every environment in a project, ordered by
// their display Order.
func (d *Deps) ListEnvironments(ctx context.Context, projectID string) ([]store.Environment, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.Environment
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
		out, err = tx.Environments.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

// CreateEnvironmentInput describes a new environment.
type CreateEnvironmentInput struct {
	ProjectID        string
	Name             string
	Order            int
	RequireProposals bool
}

// CreateEnvironment adds a new environment to a project (spec.md §4.4:
// "manage environments: project admin; api-key environment:write").
func (d *Deps) CreateEnvironment(ctx context.Context, in CreateEnvironmentInput) (store.Environment, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Environment{}, err
	}
	var out store.Environment
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, err := tx.Projects.GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageEnvironments(id, pc); err != nil {
			return err
		}
		if _, err := tx.Environments.GetByName(ctx, in.ProjectID, in.Name); err == nil {
			return apperrors.BadRequest("an environment with this name already exists in this project")
		} else if appErr, ok := apperrors.As(err); !ok || appErr.Kind != apperrors.KindNotFound {
			return err
		}
		now := time.Now().UTC()
		out = store.Environment{
			ID: idgen.New(), ProjectID: in.ProjectID, Name: in.Name, Order: in.Order,
			RequireProposals: in.RequireProposals, CreatedAt: now, UpdatedAt: now,
		}
		if err := tx.Environments.Create(ctx, out); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), Type: audit.EventEnvironmentCreated,
			Payload: map[string]interface{}{"name": out.Name},
		})
	})
	return out, err
}

// UpdateEnvironmentInput patches an environment's mutable fields.
type UpdateEnvironmentInput struct {
	EnvironmentID    string
	Name             string
	Order            int
	RequireProposals bool
}

// UpdateEnvironment renames/reorders/retoggles an environment.
func (d *Deps) UpdateEnvironment(ctx context.Context, in UpdateEnvironmentInput) (store.Environment, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.Environment{}, err
	}
	var out store.Environment
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		e, err := tx.Environments.GetByID(ctx, in.EnvironmentID)
		if err != nil {
			return err
		}
		p, err := tx.Projects.GetByID(ctx, e.ProjectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageEnvironments(id, pc); err != nil {
			return err
		}
		e.Name = in.Name
		e.Order = in.Order
		e.RequireProposals = in.RequireProposals
		e.UpdatedAt = time.Now().UTC()
		if err := tx.Environments.Update(ctx, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	return out, err
}

// DeleteEnvironment removes an environment, refusing to remove a
// project's last one (spec.md §3: "last environment cannot be deleted").
func (d *Deps) DeleteEnvironment(ctx context.Context, environmentID string) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		e, err := tx.Environments.GetByID(ctx, environmentID)
		if err != nil {
			return err
		}
		p, err := tx.Projects.GetByID(ctx, e.ProjectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageEnvironments(id, pc); err != nil {
			return err
		}
		count, err := tx.Environments.CountByProject(ctx, e.ProjectID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return apperrors.BadRequest("cannot delete the last environment in a project")
		}
		if err := tx.Environments.Delete(ctx, environmentID); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), Type: audit.EventEnvironmentDeleted,
			Payload: map[string]interface{}{"name": e.Name},
		})
	})
}
