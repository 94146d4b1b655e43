package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// ConfigStore provides typed access to the configs table.
type ConfigStore struct{ q Querier }

// Create inserts a new config row at version 1.
func (s *ConfigStore) Create(ctx context.Context, c Config) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO configs (id, project_id, name, description, version, value, schema, overrides, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8::jsonb, $9, $10, $11)`,
		c.ID, c.ProjectID, c.Name, c.Description, c.Version,
		jsonArg(c.Value), jsonArg(c.Schema), jsonArg(c.Overrides), c.CreatorID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert config %s: %w", c.ID, err)
	}
	return nil
}

// GetByID fetches a config by id.
func (s *ConfigStore) GetByID(ctx context.Context, id string) (Config, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, project_id, name, description, version, value, schema, overrides, creator_id, created_at, updated_at
		FROM configs WHERE id = $1`, id)
	return scanConfig(row, id)
}

// GetByIDForUpdate fetches a config by id with a row lock, used at the
// start of every ConfigService edit operation to serialize concurrent
// writers on the same row (spec.md §4.6 step 1).
func (s *ConfigStore) GetByIDForUpdate(ctx context.Context, id string) (Config, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, project_id, name, description, version, value, schema, overrides, creator_id, created_at, updated_at
		FROM configs WHERE id = $1 FOR UPDATE`, id)
	return scanConfig(row, id)
}

// GetByName fetches a config by project + unique name.
func (s *ConfigStore) GetByName(ctx context.Context, projectID, name string) (Config, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, project_id, name, description, version, value, schema, overrides, creator_id, created_at, updated_at
		FROM configs WHERE project_id = $1 AND name = $2`, projectID, name)
	return scanConfig(row, name)
}

func scanConfig(row pgx.Row, ref string) (Config, error) {
	var c Config
	var value, schema, overrides *string
	err := row.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Description, &c.Version, &value, &schema, &overrides, &c.CreatorID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Config{}, apperrors.NotFound(fmt.Sprintf("config %s not found", ref))
		}
		return Config{}, fmt.Errorf("get config %s: %w", ref, err)
	}
	c.Value = scanJSON(value)
	c.Schema = scanJSON(schema)
	c.Overrides = scanJSON(overrides)
	return c, nil
}

// ListByProject returns every config in a project, ordered by name.
func (s *ConfigStore) ListByProject(ctx context.Context, projectID string) ([]Config, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, project_id, name, description, version, value, schema, overrides, creator_id, created_at, updated_at
		FROM configs WHERE project_id = $1 ORDER BY name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list configs for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var out []Config
	for rows.Next() {
		var c Config
		var value, schema, overrides *string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Description, &c.Version, &value, &schema, &overrides, &c.CreatorID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		c.Value = scanJSON(value)
		c.Schema = scanJSON(schema)
		c.Overrides = scanJSON(overrides)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update persists the post-edit state of c, requiring the row's current
// version to equal prevVersion. Zero rows affected signals a version
// conflict the caller must translate to the appropriate error (a bare
// store method never decides the error Kind for a concurrency race — see
// configsvc for the optimistic-concurrency check that precedes this
// call).
func (s *ConfigStore) Update(ctx context.Context, c Config, prevVersion int64) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE configs SET name = $2, description = $3, version = $4,
			value = $5::jsonb, schema = $6::jsonb, overrides = $7::jsonb, updated_at = $8
		WHERE id = $1 AND version = $9`,
		c.ID, c.Name, c.Description, c.Version,
		jsonArg(c.Value), jsonArg(c.Schema), jsonArg(c.Overrides), c.UpdatedAt, prevVersion)
	if err != nil {
		return false, fmt.Errorf("update config %s: %w", c.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a config row. Cascades to variants, versions, proposals
// and config users are enforced by the schema's foreign keys.
func (s *ConfigStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete config %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("config %s not found", id))
	}
	return nil
}
