package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// AdminAPIKeyStore provides typed access to the admin_api_keys table
// plus its many-to-many scope/project projection tables
// (admin_api_key_scopes, admin_api_key_projects), per spec.md §6.
type AdminAPIKeyStore struct{ q Querier }

const adminKeyCols = `id, workspace_id, name, description, key_hash, key_prefix, key_suffix,
	created_by_email, expires_at, last_used_at, created_at`

// Create inserts the key row and its scope/project projections.
func (s *AdminAPIKeyStore) Create(ctx context.Context, k AdminAPIKey) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO admin_api_keys
			(id, workspace_id, name, description, key_hash, key_prefix, key_suffix, created_by_email, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		k.ID, k.WorkspaceID, k.Name, k.Description, k.KeyHash, k.KeyPrefix, k.KeySuffix,
		k.CreatedByEmail, k.ExpiresAt, k.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert admin api key %s: %w", k.ID, err)
	}
	for _, scope := range k.Scopes {
		if _, err := s.q.Exec(ctx, `INSERT INTO admin_api_key_scopes (api_key_id, scope) VALUES ($1, $2)`, k.ID, scope); err != nil {
			return fmt.Errorf("insert admin api key scope %s/%s: %w", k.ID, scope, err)
		}
	}
	// ProjectIDs == nil means "all projects in the workspace": no rows.
	for _, projectID := range k.ProjectIDs {
		if _, err := s.q.Exec(ctx, `INSERT INTO admin_api_key_projects (api_key_id, project_id) VALUES ($1, $2)`, k.ID, projectID); err != nil {
			return fmt.Errorf("insert admin api key project %s/%s: %w", k.ID, projectID, err)
		}
	}
	return nil
}

// GetByID fetches a key row by id, with its scopes and projects.
func (s *AdminAPIKeyStore) GetByID(ctx context.Context, id string) (AdminAPIKey, error) {
	row := s.q.QueryRow(ctx, `SELECT `+adminKeyCols+` FROM admin_api_keys WHERE id = $1`, id)
	k, err := scanAdminAPIKey(row, id)
	if err != nil {
		return AdminAPIKey{}, err
	}
	return s.hydrate(ctx, k)
}

// ListByWorkspace returns every admin API key of a workspace, ordered by
// name. Scopes/projects are hydrated per row.
func (s *AdminAPIKeyStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]AdminAPIKey, error) {
	rows, err := s.q.Query(ctx, `SELECT `+adminKeyCols+` FROM admin_api_keys WHERE workspace_id = $1 ORDER BY name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list admin api keys for workspace %s: %w", workspaceID, err)
	}
	var keys []AdminAPIKey
	for rows.Next() {
		k, err := scanAdminAPIKeyRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]AdminAPIKey, 0, len(keys))
	for _, k := range keys {
		hydrated, err := s.hydrate(ctx, k)
		if err != nil {
			return nil, err
		}
		out = append(out, hydrated)
	}
	return out, nil
}

func (s *AdminAPIKeyStore) hydrate(ctx context.Context, k AdminAPIKey) (AdminAPIKey, error) {
	scopeRows, err := s.q.Query(ctx, `SELECT scope FROM admin_api_key_scopes WHERE api_key_id = $1`, k.ID)
	if err != nil {
		return AdminAPIKey{}, fmt.Errorf("load scopes for admin api key %s: %w", k.ID, err)
	}
	for scopeRows.Next() {
		var scope string
		if err := scopeRows.Scan(&scope); err != nil {
			scopeRows.Close()
			return AdminAPIKey{}, fmt.Errorf("scan admin api key scope: %w", err)
		}
		k.Scopes = append(k.Scopes, scope)
	}
	scopeRows.Close()
	if err := scopeRows.Err(); err != nil {
		return AdminAPIKey{}, err
	}

	projRows, err := s.q.Query(ctx, `SELECT project_id FROM admin_api_key_projects WHERE api_key_id = $1`, k.ID)
	if err != nil {
		return AdminAPIKey{}, fmt.Errorf("load projects for admin api key %s: %w", k.ID, err)
	}
	var projects []string
	for projRows.Next() {
		var projectID string
		if err := projRows.Scan(&projectID); err != nil {
			projRows.Close()
			return AdminAPIKey{}, fmt.Errorf("scan admin api key project: %w", err)
		}
		projects = append(projects, projectID)
	}
	projRows.Close()
	if err := projRows.Err(); err != nil {
		return AdminAPIKey{}, err
	}
	k.ProjectIDs = projects // nil stays nil: "all projects in workspace".
	return k, nil
}

// TouchLastUsed updates lastUsedAt for id, best-effort (errors are
// swallowed by the caller per spec.md §4.8 step 4 — "fire-and-forget").
func (s *AdminAPIKeyStore) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := s.q.Exec(ctx, `UPDATE admin_api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch admin api key %s: %w", id, err)
	}
	return nil
}

// Delete removes a key row; cascading scope/project rows are enforced by
// foreign keys in the schema.
func (s *AdminAPIKeyStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM admin_api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete admin api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("admin api key %s not found", id))
	}
	return nil
}

func scanAdminAPIKey(row pgx.Row, ref string) (AdminAPIKey, error) {
	var k AdminAPIKey
	err := row.Scan(&k.ID, &k.WorkspaceID, &k.Name, &k.Description, &k.KeyHash, &k.KeyPrefix, &k.KeySuffix,
		&k.CreatedByEmail, &k.ExpiresAt, &k.LastUsedAt, &k.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return AdminAPIKey{}, apperrors.NotFound(fmt.Sprintf("admin api key %s not found", ref))
		}
		return AdminAPIKey{}, fmt.Errorf("get admin api key %s: %w", ref, err)
	}
	return k, nil
}

func scanAdminAPIKeyRow(rows pgx.Rows) (AdminAPIKey, error) {
	var k AdminAPIKey
	if err := rows.Scan(&k.ID, &k.WorkspaceID, &k.Name, &k.Description, &k.KeyHash, &k.KeyPrefix, &k.KeySuffix,
		&k.CreatedByEmail, &k.ExpiresAt, &k.LastUsedAt, &k.CreatedAt); err != nil {
		return AdminAPIKey{}, fmt.Errorf("scan admin api key: %w", err)
	}
	return k, nil
}
