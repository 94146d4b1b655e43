package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// SDKKeyStore provides typed access to the sdk_keys table.
type SDKKeyStore struct{ q Querier }

const sdkKeyCols = `id, project_id, environment_id, name, description, key_hash, created_at`

// Create inserts a new SDK key row.
func (s *SDKKeyStore) Create(ctx context.Context, k SDKKey) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO sdk_keys (id, project_id, environment_id, name, description, key_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		k.ID, k.ProjectID, k.EnvironmentID, k.Name, k.Description, k.KeyHash, k.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sdk key %s: %w", k.ID, err)
	}
	return nil
}

// GetByID fetches an SDK key by id — the hot-path lookup SDKVerifier
// performs after decoding the token's embedded id (spec.md §4.8 step 2).
func (s *SDKKeyStore) GetByID(ctx context.Context, id string) (SDKKey, error) {
	row := s.q.QueryRow(ctx, `SELECT `+sdkKeyCols+` FROM sdk_keys WHERE id = $1`, id)
	return scanSDKKey(row, id)
}

// ListByProject returns every SDK key of a project.
func (s *SDKKeyStore) ListByProject(ctx context.Context, projectID string) ([]SDKKey, error) {
	rows, err := s.q.Query(ctx, `SELECT `+sdkKeyCols+` FROM sdk_keys WHERE project_id = $1 ORDER BY name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sdk keys for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var out []SDKKey
	for rows.Next() {
		var k SDKKey
		if err := rows.Scan(&k.ID, &k.ProjectID, &k.EnvironmentID, &k.Name, &k.Description, &k.KeyHash, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sdk key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Update renames/redescribes an SDK key; the binding and hash are
// immutable once minted, matching the teacher's "rotate by delete +
// recreate" convention for bearer credentials.
func (s *SDKKeyStore) Update(ctx context.Context, id, name, description string) error {
	tag, err := s.q.Exec(ctx, `UPDATE sdk_keys SET name = $2, description = $3 WHERE id = $1`, id, name, description)
	if err != nil {
		return fmt.Errorf("update sdk key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("sdk key %s not found", id))
	}
	return nil
}

// Delete removes an SDK key row.
func (s *SDKKeyStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM sdk_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sdk key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("sdk key %s not found", id))
	}
	return nil
}

func scanSDKKey(row pgx.Row, ref string) (SDKKey, error) {
	var k SDKKey
	err := row.Scan(&k.ID, &k.ProjectID, &k.EnvironmentID, &k.Name, &k.Description, &k.KeyHash, &k.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return SDKKey{}, apperrors.NotFound(fmt.Sprintf("sdk key %s not found", ref))
		}
		return SDKKey{}, fmt.Errorf("get sdk key %s: %w", ref, err)
	}
	return k, nil
}
