package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// ConfigVariantStore provides typed access to the config_variants table.
// Exactly one row exists per (configId, environmentId) pair (spec.md §3).
type ConfigVariantStore struct{ q Querier }

const variantCols = `id, config_id, environment_id, version, value, schema, use_base_schema, overrides, created_at, updated_at`

// Create inserts a new variant row at version 1.
func (s *ConfigVariantStore) Create(ctx context.Context, v ConfigVariant) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO config_variants (id, config_id, environment_id, version, value, schema, use_base_schema, overrides, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8::jsonb, $9, $10)`,
		v.ID, v.ConfigID, v.EnvironmentID, v.Version,
		jsonArg(v.Value), jsonArg(v.Schema), v.UseBaseSchema, jsonArg(v.Overrides), v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert config variant %s: %w", v.ID, err)
	}
	return nil
}

// GetByID fetches a variant by id.
func (s *ConfigVariantStore) GetByID(ctx context.Context, id string) (ConfigVariant, error) {
	row := s.q.QueryRow(ctx, `SELECT `+variantCols+` FROM config_variants WHERE id = $1`, id)
	return scanConfigVariant(row, id)
}

// GetByIDForUpdate fetches a variant by id with a row lock, mirroring
// ConfigStore.GetByIDForUpdate for ConfigService's variant edit path.
func (s *ConfigVariantStore) GetByIDForUpdate(ctx context.Context, id string) (ConfigVariant, error) {
	row := s.q.QueryRow(ctx, `SELECT `+variantCols+` FROM config_variants WHERE id = $1 FOR UPDATE`, id)
	return scanConfigVariant(row, id)
}

// GetByConfigAndEnvironment fetches the single variant for a
// (configId, environmentId) pair.
func (s *ConfigVariantStore) GetByConfigAndEnvironment(ctx context.Context, configID, environmentID string) (ConfigVariant, error) {
	row := s.q.QueryRow(ctx, `
		SELECT `+variantCols+` FROM config_variants WHERE config_id = $1 AND environment_id = $2`,
		configID, environmentID)
	return scanConfigVariant(row, fmt.Sprintf("%s/%s", configID, environmentID))
}

// ListByConfig returns every variant of a config.
func (s *ConfigVariantStore) ListByConfig(ctx context.Context, configID string) ([]ConfigVariant, error) {
	rows, err := s.q.Query(ctx, `SELECT `+variantCols+` FROM config_variants WHERE config_id = $1`, configID)
	if err != nil {
		return nil, fmt.Errorf("list config variants for %s: %w", configID, err)
	}
	defer rows.Close()

	var out []ConfigVariant
	for rows.Next() {
		v, err := scanConfigVariantRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListByEnvironment returns every variant bound to a given environment
// across all configs in its project — the shape ReplicaService's
// getProjectConfigs reads (spec.md §4.8).
func (s *ConfigVariantStore) ListByEnvironment(ctx context.Context, environmentID string) ([]ConfigVariant, error) {
	rows, err := s.q.Query(ctx, `SELECT `+variantCols+` FROM config_variants WHERE environment_id = $1`, environmentID)
	if err != nil {
		return nil, fmt.Errorf("list config variants for environment %s: %w", environmentID, err)
	}
	defer rows.Close()

	var out []ConfigVariant
	for rows.Next() {
		v, err := scanConfigVariantRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Update persists the post-edit state of v, requiring the row's current
// version to equal prevVersion. See ConfigStore.Update for the
// zero-rows-affected convention.
func (s *ConfigVariantStore) Update(ctx context.Context, v ConfigVariant, prevVersion int64) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE config_variants SET version = $2, value = $3::jsonb, schema = $4::jsonb,
			use_base_schema = $5, overrides = $6::jsonb, updated_at = $7
		WHERE id = $1 AND version = $8`,
		v.ID, v.Version, jsonArg(v.Value), jsonArg(v.Schema), v.UseBaseSchema, jsonArg(v.Overrides), v.UpdatedAt, prevVersion)
	if err != nil {
		return false, fmt.Errorf("update config variant %s: %w", v.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a variant row.
func (s *ConfigVariantStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM config_variants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete config variant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("config variant %s not found", id))
	}
	return nil
}

// DeleteByConfig removes every variant of a config, used when cascading
// a config deletion (spec.md §4.6's deleteConfig).
func (s *ConfigVariantStore) DeleteByConfig(ctx context.Context, configID string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM config_variants WHERE config_id = $1`, configID); err != nil {
		return fmt.Errorf("delete config variants for %s: %w", configID, err)
	}
	return nil
}

func scanConfigVariant(row pgx.Row, ref string) (ConfigVariant, error) {
	var v ConfigVariant
	var value, schema, overrides *string
	err := row.Scan(&v.ID, &v.ConfigID, &v.EnvironmentID, &v.Version, &value, &schema, &v.UseBaseSchema, &overrides, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ConfigVariant{}, apperrors.NotFound(fmt.Sprintf("config variant %s not found", ref))
		}
		return ConfigVariant{}, fmt.Errorf("get config variant %s: %w", ref, err)
	}
	v.Value, v.Schema, v.Overrides = scanJSON(value), scanJSON(schema), scanJSON(overrides)
	return v, nil
}

func scanConfigVariantRow(rows pgx.Rows) (ConfigVariant, error) {
	var v ConfigVariant
	var value, schema, overrides *string
	if err := rows.Scan(&v.ID, &v.ConfigID, &v.EnvironmentID, &v.Version, &value, &schema, &v.UseBaseSchema, &overrides, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return ConfigVariant{}, fmt.Errorf("scan config variant: %w", err)
	}
	v.Value, v.Schema, v.Overrides = scanJSON(value), scanJSON(schema), scanJSON(overrides)
	return v, nil
}
