package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// ConfigUserStore provides typed access to the config_users table.
type ConfigUserStore struct{ q Querier }

// Create inserts a new config user row.
func (s *ConfigUserStore) Create(ctx context.Context, u ConfigUser) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO config_users (id, config_id, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.ConfigID, u.Email, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert config user %s: %w", u.ID, err)
	}
	return nil
}

// ListByConfig returns every member of a config, ordered by email.
func (s *ConfigUserStore) ListByConfig(ctx context.Context, configID string) ([]ConfigUser, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, config_id, email, role, created_at
		FROM config_users WHERE config_id = $1 ORDER BY email`, configID)
	if err != nil {
		return nil, fmt.Errorf("list config users for %s: %w", configID, err)
	}
	defer rows.Close()

	var out []ConfigUser
	for rows.Next() {
		var u ConfigUser
		if err := rows.Scan(&u.ID, &u.ConfigID, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan config user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetByEmail fetches a single config user row.
func (s *ConfigUserStore) GetByEmail(ctx context.Context, configID, email string) (ConfigUser, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, config_id, email, role, created_at
		FROM config_users WHERE config_id = $1 AND email = $2`, configID, email)

	var u ConfigUser
	if err := row.Scan(&u.ID, &u.ConfigID, &u.Email, &u.Role, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return ConfigUser{}, apperrors.NotFound(fmt.Sprintf("user %s not found on config %s", email, configID))
		}
		return ConfigUser{}, fmt.Errorf("get config user: %w", err)
	}
	return u, nil
}

// ReplaceRoster deletes every existing member row for configID and
// inserts members in their place, used by ConfigService when a write
// diffs and replaces the full roster atomically (spec.md §4.6 step 5).
func (s *ConfigUserStore) ReplaceRoster(ctx context.Context, configID string, members []ConfigUser) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM config_users WHERE config_id = $1`, configID); err != nil {
		return fmt.Errorf("clear config users for %s: %w", configID, err)
	}
	for _, m := range members {
		if err := s.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a single config user row.
func (s *ConfigUserStore) Delete(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM config_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete config user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(fmt.Sprintf("config user %s not found", id))
	}
	return nil
}

// CountMaintainers returns the number of maintainer-role members on a
// config; used when the last config-maintainer safeguard is needed by a
// caller (spec.md leaves this to project-level admin invariants, but the
// count is exposed for future parity).
func (s *ConfigUserStore) CountMaintainers(ctx context.Context, configID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM config_users WHERE config_id = $1 AND role = $2`,
		configID, ConfigRoleMaintainer).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count config maintainers for %s: %w", configID, err)
	}
	return n, nil
}
