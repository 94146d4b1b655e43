package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// ProjectStore provides typed access to the projects table.
type ProjectStore struct{ q Querier }

// Create inserts a new project row.
func (s *ProjectStore) Create(ctx context.Context, p Project) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO projects (id, workspace_id, name, description, require_proposals, allow_self_approvals, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.WorkspaceID, p.Name, p.Description, p.RequireProposals, p.AllowSelfApprovals, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project %s: %w", p.ID, err)
	}
	return nil
}

// GetByID fetches a project by id.
func (s *ProjectStore) GetByID(ctx context.Context, id string) (Project, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, workspace_id, name, description, require_proposals, allow_self_approvals, created_at, updated_at
		FROM projects WHERE id = $1`, id)
	return scanProject(row, id)
}

// GetByName fetches a project by workspace + unique name.
func (s *ProjectStore) GetByName(ctx context.Context, workspaceID, name string) (Project, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, workspace_id, name, description, require_proposals, allow_self_approvals, created_at, updated_at
		FROM projects WHERE workspace_id = $1 AND name = $2`, workspaceID, name)
	return scanProject(row, name)
}

func scanProject(row pgx.Row, ref string) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.RequireProposals, &p.AllowSelfApprovals, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Project{}, apperrors.NotFound(fmt.Sprintf("project %s not found", ref))
		}
		return Project{}, fmt.Errorf("get project %s: %w", ref, err)
	}
	return p, nil
}

// ListByWorkspace returns every project in a workspace, ordered by name.
func (s *ProjectStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]Project, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, workspace_id, name, description, require_proposals, allow_self_approvals, created_at, updated_at
		FROM projects WHERE workspace_id = $1 ORDER BY name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list projects for workspace %s: %w", workspaceID, err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Description, &p.RequireProposals, &p.AllowSelfApprovals, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByWorkspace returns how many projects exist in a workspace.
func (s *ProjectStore) CountByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE workspace_id = $1`, workspaceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count projects for workspace %s: %w", workspaceID, err)
	}
	return n, nil
}

// Update persists the mutable fields of p.
func (s *ProjectStore) Update(ctx context.Context, p Project) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE projects SET name = $2, description = $3, require_proposals = $4,
			allow_self_approvals = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.RequireProposals, p.AllowSelfApprovals, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update project %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("project %s not found", p.ID))
	}
	return nil
}

// Delete removes a project row.
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("project %s not found", id))
	}
	return nil
}
