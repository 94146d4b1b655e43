package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// EnvironmentStore provides typed access to the environments table.
type EnvironmentStore struct{ q Querier }

// Create inserts a new environment row.
func (s *EnvironmentStore) Create(ctx context.Context, e Environment) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO environments (id, project_id, name, "order", require_proposals, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ProjectID, e.Name, e.Order, e.RequireProposals, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert environment %s: %w", e.ID, err)
	}
	return nil
}

// GetByID fetches an environment by id.
func (s *EnvironmentStore) GetByID(ctx context.Context, id string) (Environment, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, project_id, name, "order", require_proposals, created_at, updated_at
		FROM environments WHERE id = $1`, id)
	return scanEnvironment(row, id)
}

// GetByName fetches an environment by project + unique name.
func (s *EnvironmentStore) GetByName(ctx context.Context, projectID, name string) (Environment, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, project_id, name, "order", require_proposals, created_at, updated_at
		FROM environments WHERE project_id = $1 AND name = $2`, projectID, name)
	return scanEnvironment(row, name)
}

func scanEnvironment(row pgx.Row, ref string) (Environment, error) {
	var e Environment
	err := row.Scan(&e.ID, &e.ProjectID, &e.Name, &e.Order, &e.RequireProposals, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Environment{}, apperrors.NotFound(fmt.Sprintf("environment %s not found", ref))
		}
		return Environment{}, fmt.Errorf("get environment %s: %w", ref, err)
	}
	return e, nil
}

// ListByProject returns every environment of a project, ordered by
// display order then name.
func (s *EnvironmentStore) ListByProject(ctx context.Context, projectID string) ([]Environment, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, project_id, name, "order", require_proposals, created_at, updated_at
		FROM environments WHERE project_id = $1 ORDER BY "order", name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list environments for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var out []Environment
	for rows.Next() {
		var e Environment
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Name, &e.Order, &e.RequireProposals, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan environment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByProject returns how many environments exist in a project, used to
// enforce "last environment cannot be deleted" (spec.md §3).
func (s *EnvironmentStore) CountByProject(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM environments WHERE project_id = $1`, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count environments for project %s: %w", projectID, err)
	}
	return n, nil
}

// Update persists the mutable fields of e.
func (s *EnvironmentStore) Update(ctx context.Context, e Environment) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE environments SET name = $2, "order" = $3, require_proposals = $4, updated_at = $5
		WHERE id = $1`, e.ID, e.Name, e.Order, e.RequireProposals, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update environment %s: %w", e.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("environment %s not found", e.ID))
	}
	return nil
}

// Delete removes an environment row.
func (s *EnvironmentStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM environments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete environment %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("environment %s not found", id))
	}
	return nil
}
