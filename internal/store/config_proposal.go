package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

// ConfigProposalStore provides typed access to the config_proposals
// table. Rows are immutable intents; only the terminal-transition
// columns (approvedAt/rejectedAt/reviewerId/rejectionReason/...) are ever
// updated, and only once (spec.md §3/§4.7).
type ConfigProposalStore struct{ q Querier }

const proposalCols = `id, config_id, author_id, approved_at, rejected_at, reviewer_id, rejection_reason,
	rejected_in_favor_of_proposal_id, base_config_version, is_delete, message, snapshot, proposed, variants,
	created_at, updated_at`

// Create inserts a new pending proposal row.
func (s *ConfigProposalStore) Create(ctx context.Context, p ConfigProposal) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO config_proposals
			(id, config_id, author_id, base_config_version, is_delete, message, snapshot, proposed, variants, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10, $11)`,
		p.ID, p.ConfigID, p.AuthorID, p.BaseConfigVersion, p.IsDelete, p.Message,
		jsonArg(p.Snapshot), jsonArg(p.Proposed), jsonArg(p.Variants), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert config proposal %s: %w", p.ID, err)
	}
	return nil
}

// GetByID fetches a proposal by id.
func (s *ConfigProposalStore) GetByID(ctx context.Context, id string) (ConfigProposal, error) {
	row := s.q.QueryRow(ctx, `SELECT `+proposalCols+` FROM config_proposals WHERE id = $1`, id)
	return scanConfigProposal(row, id)
}

// GetByIDForUpdate fetches a proposal by id with a row lock, used before
// any terminal transition to serialize concurrent approve/reject races.
func (s *ConfigProposalStore) GetByIDForUpdate(ctx context.Context, id string) (ConfigProposal, error) {
	row := s.q.QueryRow(ctx, `SELECT `+proposalCols+` FROM config_proposals WHERE id = $1 FOR UPDATE`, id)
	return scanConfigProposal(row, id)
}

// ListPendingByConfig returns every pending (non-terminal) proposal
// targeting configID, used by rejectAllPendingProposals and by proposal
// listing UIs.
func (s *ConfigProposalStore) ListPendingByConfig(ctx context.Context, configID string) ([]ConfigProposal, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+proposalCols+` FROM config_proposals
		WHERE config_id = $1 AND approved_at IS NULL AND rejected_at IS NULL
		ORDER BY created_at`, configID)
	if err != nil {
		return nil, fmt.Errorf("list pending proposals for config %s: %w", configID, err)
	}
	defer rows.Close()
	return scanConfigProposalRows(rows)
}

// ListByConfig returns every proposal (any state) targeting configID,
// newest first.
func (s *ConfigProposalStore) ListByConfig(ctx context.Context, configID string) ([]ConfigProposal, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+proposalCols+` FROM config_proposals WHERE config_id = $1 ORDER BY created_at DESC`, configID)
	if err != nil {
		return nil, fmt.Errorf("list proposals for config %s: %w", configID, err)
	}
	defer rows.Close()
	return scanConfigProposalRows(rows)
}

// MarkApproved marks a pending proposal approved by reviewerID. Only
// succeeds (RowsAffected>0) if the row was still pending when updated,
// enforcing the "at most one terminal transition" invariant at the SQL
// layer as well as in ProposalService.
func (s *ConfigProposalStore) MarkApproved(ctx context.Context, id, reviewerID string, approvedAt time.Time) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE config_proposals SET approved_at = $2, reviewer_id = $3, updated_at = $2
		WHERE id = $1 AND approved_at IS NULL AND rejected_at IS NULL`,
		id, approvedAt, reviewerID)
	if err != nil {
		return false, fmt.Errorf("approve proposal %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkRejected marks a pending proposal rejected with reason and an
// optional reviewer (nil reviewer for system-triggered rejections like
// rejected_by_config_edit).
func (s *ConfigProposalStore) MarkRejected(ctx context.Context, id string, reviewerID *string, reason string, rejectedInFavorOf *string, rejectedAt time.Time) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE config_proposals SET rejected_at = $2, reviewer_id = $3, rejection_reason = $4,
			rejected_in_favor_of_proposal_id = $5, updated_at = $2
		WHERE id = $1 AND approved_at IS NULL AND rejected_at IS NULL`,
		id, rejectedAt, reviewerID, reason, rejectedInFavorOf)
	if err != nil {
		return false, fmt.Errorf("reject proposal %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanConfigProposal(row pgx.Row, ref string) (ConfigProposal, error) {
	var p ConfigProposal
	var snapshot, proposed, variants *string
	err := row.Scan(&p.ID, &p.ConfigID, &p.AuthorID, &p.ApprovedAt, &p.RejectedAt, &p.ReviewerID, &p.RejectionReason,
		&p.RejectedInFavorOfProposalID, &p.BaseConfigVersion, &p.IsDelete, &p.Message, &snapshot, &proposed, &variants,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ConfigProposal{}, apperrors.NotFound(fmt.Sprintf("config proposal %s not found", ref))
		}
		return ConfigProposal{}, fmt.Errorf("get config proposal %s: %w", ref, err)
	}
	p.Snapshot, p.Proposed, p.Variants = scanJSON(snapshot), scanJSON(proposed), scanJSON(variants)
	return p, nil
}

func scanConfigProposalRows(rows pgx.Rows) ([]ConfigProposal, error) {
	var out []ConfigProposal
	for rows.Next() {
		var p ConfigProposal
		var snapshot, proposed, variants *string
		if err := rows.Scan(&p.ID, &p.ConfigID, &p.AuthorID, &p.ApprovedAt, &p.RejectedAt, &p.ReviewerID, &p.RejectionReason,
			&p.RejectedInFavorOfProposalID, &p.BaseConfigVersion, &p.IsDelete, &p.Message, &snapshot, &proposed, &variants,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan config proposal: %w", err)
		}
		p.Snapshot, p.Proposed, p.Variants = scanJSON(snapshot), scanJSON(proposed), scanJSON(variants)
		out = append(out, p)
	}
	return out, rows.Err()
}
