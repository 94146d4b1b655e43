package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// ConfigVariantVersionStore provides typed access to the
// config_variant_versions table, the immutable per-variant snapshot log.
type ConfigVariantVersionStore struct{ q Querier }

// Create inserts a new immutable variant snapshot row.
func (s *ConfigVariantVersionStore) Create(ctx context.Context, v ConfigVariantVersion) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO config_variant_versions
			(id, variant_id, version, author_id, proposal_id, value, schema, use_base_schema, overrides, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8, $9::jsonb, $10)`,
		v.ID, v.VariantID, v.Version, v.AuthorID, v.ProposalID,
		jsonArg(v.Value), jsonArg(v.Schema), v.UseBaseSchema, jsonArg(v.Overrides), v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert config variant version %s v%d: %w", v.VariantID, v.Version, err)
	}
	return nil
}

// ListByVariant returns every snapshot of a variant, newest first.
func (s *ConfigVariantVersionStore) ListByVariant(ctx context.Context, variantID string) ([]ConfigVariantVersion, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, variant_id, version, author_id, proposal_id, value, schema, use_base_schema, overrides, created_at
		FROM config_variant_versions WHERE variant_id = $1 ORDER BY version DESC`, variantID)
	if err != nil {
		return nil, fmt.Errorf("list config variant versions for %s: %w", variantID, err)
	}
	defer rows.Close()

	var out []ConfigVariantVersion
	for rows.Next() {
		var v ConfigVariantVersion
		var value, schema, overrides *string
		if err := rows.Scan(&v.ID, &v.VariantID, &v.Version, &v.AuthorID, &v.ProposalID, &value, &schema, &v.UseBaseSchema, &overrides, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan config variant version: %w", err)
		}
		v.Value, v.Schema, v.Overrides = scanJSON(value), scanJSON(schema), scanJSON(overrides)
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetByVersion fetches a single variant snapshot row.
func (s *ConfigVariantVersionStore) GetByVersion(ctx context.Context, variantID string, version int64) (ConfigVariantVersion, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, variant_id, version, author_id, proposal_id, value, schema, use_base_schema, overrides, created_at
		FROM config_variant_versions WHERE variant_id = $1 AND version = $2`, variantID, version)

	var v ConfigVariantVersion
	var value, schema, overrides *string
	err := row.Scan(&v.ID, &v.VariantID, &v.Version, &v.AuthorID, &v.ProposalID, &value, &schema, &v.UseBaseSchema, &overrides, &v.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ConfigVariantVersion{}, apperrors.NotFound(fmt.Sprintf("config variant version %s v%d not found", variantID, version))
		}
		return ConfigVariantVersion{}, fmt.Errorf("get config variant version: %w", err)
	}
	v.Value, v.Schema, v.Overrides = scanJSON(value), scanJSON(schema), scanJSON(overrides)
	return v, nil
}
