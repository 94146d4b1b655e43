package proposal

import (
	"context"
	"fmt"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/configsvc"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// ApproveProposal marks a pending proposal approved and applies its
// captured change through ConfigService, then rejects every other
// pending proposal against the same config as stale (spec.md §4.7).
//
// Approval order matters: the proposal is marked approved *before* the
// edit is applied, so the resulting config_versions row carries
// proposalId; if the apply fails, the whole transaction rolls back and
// MarkApproved's effect is undone along with it.
func (s *Service) ApproveProposal(ctx context.Context, tx *store.Tx, proposalID, reviewerID string) (store.ConfigProposal, error) {
	p, err := tx.ConfigProposals.GetByIDForUpdate(ctx, proposalID)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	if p.IsTerminal() {
		return store.ConfigProposal{}, apperrors.Conflict(fmt.Sprintf("proposal %s was already resolved", p.ID))
	}

	cfg, err := tx.Configs.GetByID(ctx, p.ConfigID)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	project, err := tx.Projects.GetByID(ctx, cfg.ProjectID)
	if err != nil {
		return store.ConfigProposal{}, err
	}

	if reviewerID == p.AuthorID && !project.AllowSelfApprovals {
		return store.ConfigProposal{}, apperrors.Forbidden("proposal author cannot approve their own proposal in this project")
	}
	if cfg.Version != p.BaseConfigVersion {
		// Should never fire: every edit rejects stale pending proposals
		// before committing. Surfaced with the same code a normal
		// version race would use, since the caller's remedy is the same.
		return store.ConfigProposal{}, apperrors.BadRequest(
			fmt.Sprintf("config %s advanced to version %d since proposal %s was opened at %d", cfg.ID, cfg.Version, p.ID, p.BaseConfigVersion),
		).WithCode(apperrors.CodeConfigVersionMismatch)
	}

	now := s.clock.Now()
	ok, err := tx.ConfigProposals.MarkApproved(ctx, p.ID, reviewerID, now)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	if !ok {
		return store.ConfigProposal{}, apperrors.Conflict(fmt.Sprintf("proposal %s was resolved concurrently", p.ID))
	}
	p.ApprovedAt, p.ReviewerID = &now, &reviewerID

	if err := s.applyProposedChange(ctx, tx, cfg, p, reviewerID); err != nil {
		return store.ConfigProposal{}, err
	}

	if err := s.audit.Log(ctx, tx, audit.Entry{
		UserID: ref(reviewerID), ProjectID: ref(cfg.ProjectID), ConfigID: ref(cfg.ID),
		Type:    audit.EventConfigProposalApproved,
		Payload: map[string]interface{}{"proposalId": p.ID},
	}); err != nil {
		return store.ConfigProposal{}, err
	}

	if err := s.RejectAllPendingProposals(ctx, tx, cfg.ID, ReasonRejectedByConfigEdit, &p.ID); err != nil {
		return store.ConfigProposal{}, err
	}

	return p, nil
}

// applyProposedChange replays a proposal's captured state through
// ConfigService, bypassing the requireProposals gate since the review
// workflow already satisfied it.
func (s *Service) applyProposedChange(ctx context.Context, tx *store.Tx, cfg store.Config, p store.ConfigProposal, reviewerID string) error {
	if p.IsDelete {
		_, err := s.configs.DeleteConfig(ctx, tx, configsvc.DeleteConfigInput{
			ConfigID: cfg.ID, AuthorID: p.AuthorID, BypassApprovalGate: true,
		})
		return err
	}

	proposed, err := unmarshalConfigState(p.Proposed)
	if err != nil {
		return err
	}
	variants, err := unmarshalVariantStates(p.Variants)
	if err != nil {
		return err
	}

	_, err = s.configs.UpdateConfig(ctx, tx, configsvc.UpdateConfigInput{
		ConfigID:            cfg.ID,
		PrevVersion:         cfg.Version,
		AuthorID:            p.AuthorID,
		ProposalID:          &p.ID,
		BypassApprovalGate:  true,
		SetDescription:      true,
		Description:         proposed.Description,
		SetValue:            true,
		Value:               proposed.Value,
		SetSchema:           true,
		Schema:              proposed.Schema,
		SetOverrides:        true,
		Overrides:           proposed.Overrides,
		SetMembers:          true,
		Members:             memberStateToConfigsvcInput(proposed.Members),
		Variants:            variantStatesToConfigsvcInput(variants),
	})
	return err
}
