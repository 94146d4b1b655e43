package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// ConfigVersionStore provides typed access to the config_versions table,
// the immutable snapshot log ConfigService appends to on every edit
// (spec.md §3/§4.6).
type ConfigVersionStore struct{ q Querier }

// Create inserts a new immutable snapshot row. Version rows are never
// updated or deleted once written.
func (s *ConfigVersionStore) Create(ctx context.Context, v ConfigVersion) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO config_versions
			(id, config_id, version, author_id, proposal_id, description, value, schema, overrides, members, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10::jsonb, $11)`,
		v.ID, v.ConfigID, v.Version, v.AuthorID, v.ProposalID, v.Description,
		jsonArg(v.Value), jsonArg(v.Schema), jsonArg(v.Overrides), jsonArg(v.Members), v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert config version %s v%d: %w", v.ConfigID, v.Version, err)
	}
	return nil
}

// GetByVersion fetches a single snapshot row by config id + version.
func (s *ConfigVersionStore) GetByVersion(ctx context.Context, configID string, version int64) (ConfigVersion, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, config_id, version, author_id, proposal_id, description, value, schema, overrides, members, created_at
		FROM config_versions WHERE config_id = $1 AND version = $2`, configID, version)
	return scanConfigVersion(row, fmt.Sprintf("%s v%d", configID, version))
}

// ListByConfig returns every snapshot of a config, newest first.
func (s *ConfigVersionStore) ListByConfig(ctx context.Context, configID string) ([]ConfigVersion, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, config_id, version, author_id, proposal_id, description, value, schema, overrides, members, created_at
		FROM config_versions WHERE config_id = $1 ORDER BY version DESC`, configID)
	if err != nil {
		return nil, fmt.Errorf("list config versions for %s: %w", configID, err)
	}
	defer rows.Close()

	var out []ConfigVersion
	for rows.Next() {
		v, err := scanConfigVersionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MaxVersion returns the highest version row recorded for configID, used
// to assert the "config.version == max(config_versions.version)"
// invariant in tests and repair tooling.
func (s *ConfigVersionStore) MaxVersion(ctx context.Context, configID string) (int64, error) {
	var v int64
	err := s.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) FROM config_versions WHERE config_id = $1`, configID).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("max config version for %s: %w", configID, err)
	}
	return v, nil
}

func scanConfigVersion(row pgx.Row, ref string) (ConfigVersion, error) {
	var v ConfigVersion
	var value, schema, overrides, members *string
	err := row.Scan(&v.ID, &v.ConfigID, &v.Version, &v.AuthorID, &v.ProposalID, &v.Description,
		&value, &schema, &overrides, &members, &v.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ConfigVersion{}, apperrors.NotFound(fmt.Sprintf("config version %s not found", ref))
		}
		return ConfigVersion{}, fmt.Errorf("get config version %s: %w", ref, err)
	}
	v.Value, v.Schema, v.Overrides, v.Members = scanJSON(value), scanJSON(schema), scanJSON(overrides), scanJSON(members)
	return v, nil
}

func scanConfigVersionRow(rows pgx.Rows) (ConfigVersion, error) {
	var v ConfigVersion
	var value, schema, overrides, members *string
	if err := rows.Scan(&v.ID, &v.ConfigID, &v.Version, &v.AuthorID, &v.ProposalID, &v.Description,
		&value, &schema, &overrides, &members, &v.CreatedAt); err != nil {
		return ConfigVersion{}, fmt.Errorf("scan config version: %w", err)
	}
	v.Value, v.Schema, v.Overrides, v.Members = scanJSON(value), scanJSON(schema), scanJSON(overrides), scanJSON(members)
	return v, nil
}
