package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// WorkspaceMemberStore provides typed access to the workspace_members table.
type WorkspaceMemberStore struct{ q Querier }

// Create inserts a new workspace member row.
func (s *WorkspaceMemberStore) Create(ctx context.Context, m WorkspaceMember) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO workspace_members (id, workspace_id, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.WorkspaceID, m.Email, m.Role, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert workspace member %s: %w", m.ID, err)
	}
	return nil
}

// ListByWorkspace returns every member of a workspace, ordered by email.
func (s *WorkspaceMemberStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]WorkspaceMember, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, workspace_id, email, role, created_at
		FROM workspace_members WHERE workspace_id = $1 ORDER BY email`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list workspace members for %s: %w", workspaceID, err)
	}
	defer rows.Close()

	var out []WorkspaceMember
	for rows.Next() {
		var m WorkspaceMember
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.Email, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountAdmins returns the number of admin-role members in a workspace,
// used to enforce the "each workspace has ≥1 admin" invariant.
func (s *WorkspaceMemberStore) CountAdmins(ctx context.Context, workspaceID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM workspace_members
		WHERE workspace_id = $1 AND role = $2`, workspaceID, WorkspaceRoleAdmin).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count workspace admins for %s: %w", workspaceID, err)
	}
	return n, nil
}

// GetByEmail fetches a single member row by workspace and email.
func (s *WorkspaceMemberStore) GetByEmail(ctx context.Context, workspaceID, email string) (WorkspaceMember, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, workspace_id, email, role, created_at
		FROM workspace_members WHERE workspace_id = $1 AND email = $2`, workspaceID, email)

	var m WorkspaceMember
	if err := row.Scan(&m.ID, &m.WorkspaceID, &m.Email, &m.Role, &m.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return WorkspaceMember{}, apperrors.NotFound(fmt.Sprintf("member %s not found in workspace %s", email, workspaceID))
		}
		return WorkspaceMember{}, fmt.Errorf("get workspace member: %w", err)
	}
	return m, nil
}

// UpdateRole changes a member's role.
func (s *WorkspaceMemberStore) UpdateRole(ctx context.Context, id string, role WorkspaceMemberRole) error {
	tag, err := s.q.Exec(ctx, `UPDATE workspace_members SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("update workspace member role %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("workspace member %s not found", id))
	}
	return nil
}

// Delete removes a workspace member row.
func (s *WorkspaceMemberStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM workspace_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workspace member %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("workspace member %s not found", id))
	}
	return nil
}
