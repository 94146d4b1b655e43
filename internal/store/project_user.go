package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// ProjectUserStore provides typed access to the project_users table.
type ProjectUserStore struct{ q Querier }

// Create inserts a new project user row.
func (s *ProjectUserStore) Create(ctx context.Context, u ProjectUser) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO project_users (id, project_id, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.ProjectID, u.Email, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert project user %s: %w", u.ID, err)
	}
	return nil
}

// ListByProject returns every user of a project, ordered by email.
func (s *ProjectUserStore) ListByProject(ctx context.Context, projectID string) ([]ProjectUser, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, project_id, email, role, created_at
		FROM project_users WHERE project_id = $1 ORDER BY email`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project users for %s: %w", projectID, err)
	}
	defer rows.Close()

	var out []ProjectUser
	for rows.Next() {
		var u ProjectUser
		if err := rows.Scan(&u.ID, &u.ProjectID, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetByEmail fetches a single project user row.
func (s *ProjectUserStore) GetByEmail(ctx context.Context, projectID, email string) (ProjectUser, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, project_id, email, role, created_at
		FROM project_users WHERE project_id = $1 AND email = $2`, projectID, email)

	var u ProjectUser
	if err := row.Scan(&u.ID, &u.ProjectID, &u.Email, &u.Role, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return ProjectUser{}, apperrors.NotFound(fmt.Sprintf("user %s not found in project %s", email, projectID))
		}
		return ProjectUser{}, fmt.Errorf("get project user: %w", err)
	}
	return u, nil
}

// CountAdmins returns the number of admin-role users in a project, used to
// enforce the "each project has ≥1 admin" invariant.
func (s *ProjectUserStore) CountAdmins(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM project_users WHERE project_id = $1 AND role = $2`,
		projectID, ProjectRoleAdmin).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count project admins for %s: %w", projectID, err)
	}
	return n, nil
}

// UpdateRole changes a project user's role.
func (s *ProjectUserStore) UpdateRole(ctx context.Context, id string, role ProjectUserRole) error {
	tag, err := s.q.Exec(ctx, `UPDATE project_users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("update project user role %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("project user %s not found", id))
	}
	return nil
}

// Delete removes a project user row.
func (s *ProjectUserStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM project_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("project user %s not found", id))
	}
	return nil
}
