package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// WorkspaceStore provides typed access to the workspaces table.
type WorkspaceStore struct{ q Querier }

// Create inserts a new workspace row.
func (s *WorkspaceStore) Create(ctx context.Context, w Workspace) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO workspaces (id, name, auto_add_new_users, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.Name, w.AutoAddNewUsers, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert workspace %s: %w", w.ID, err)
	}
	return nil
}

// GetByID fetches a workspace by id.
func (s *WorkspaceStore) GetByID(ctx context.Context, id string) (Workspace, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, name, auto_add_new_users, created_at, updated_at
		FROM workspaces WHERE id = $1`, id)

	var w Workspace
	if err := row.Scan(&w.ID, &w.Name, &w.AutoAddNewUsers, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return Workspace{}, apperrors.NotFound(fmt.Sprintf("workspace %s not found", id))
		}
		return Workspace{}, fmt.Errorf("get workspace %s: %w", id, err)
	}
	return w, nil
}

// Update persists the mutable fields of w (name, autoAddNewUsers).
func (s *WorkspaceStore) Update(ctx context.Context, w Workspace) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE workspaces SET name = $2, auto_add_new_users = $3, updated_at = $4
		WHERE id = $1`, w.ID, w.Name, w.AutoAddNewUsers, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update workspace %s: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("workspace %s not found", w.ID))
	}
	return nil
}

// Delete removes a workspace row. Cascading deletes of its projects,
// members, and admin API keys are enforced by foreign keys in the schema.
func (s *WorkspaceStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workspace %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("workspace %s not found", id))
	}
	return nil
}
