package proposal

import (
	"context"
	"fmt"

	"kv-shepherd.io/shepherd/internal/audit"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// RejectProposal marks a pending proposal rejected with an explicit
// reviewer-supplied reason.
func (s *Service) RejectProposal(ctx context.Context, tx *store.Tx, proposalID, reviewerID, reason string) (store.ConfigProposal, error) {
	p, err := tx.ConfigProposals.GetByIDForUpdate(ctx, proposalID)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	if p.IsTerminal() {
		return store.ConfigProposal{}, apperrors.Conflict(fmt.Sprintf("proposal %s was already resolved", p.ID))
	}

	now := s.clock.Now()
	ok, err := tx.ConfigProposals.MarkRejected(ctx, p.ID, &reviewerID, reason, nil, now)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	if !ok {
		return store.ConfigProposal{}, apperrors.Conflict(fmt.Sprintf("proposal %s was resolved concurrently", p.ID))
	}
	p.RejectedAt, p.ReviewerID, p.RejectionReason = &now, &reviewerID, &reason

	cfg, err := tx.Configs.GetByID(ctx, p.ConfigID)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	if err := s.audit.Log(ctx, tx, audit.Entry{
		UserID: ref(reviewerID), ProjectID: ref(cfg.ProjectID), ConfigID: ref(cfg.ID),
		Type:    audit.EventConfigProposalRejected,
		Payload: map[string]interface{}{"proposalId": p.ID, "reason": reason},
	}); err != nil {
		return store.ConfigProposal{}, err
	}

	return p, nil
}

// RejectAllPendingProposals rejects every pending proposal against
// configID except excludeProposalID (the one whose approval triggered
// this call, if any), enforcing the "no stale proposal survives an
// edit" invariant (spec.md §4.7/§8). System-triggered rejections carry
// no reviewer.
func (s *Service) RejectAllPendingProposals(ctx context.Context, tx *store.Tx, configID, reason string, excludeProposalID *string) error {
	pending, err := tx.ConfigProposals.ListPendingByConfig(ctx, configID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	cfg, err := tx.Configs.GetByID(ctx, configID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	for _, p := range pending {
		if excludeProposalID != nil && p.ID == *excludeProposalID {
			continue
		}
		ok, err := tx.ConfigProposals.MarkRejected(ctx, p.ID, nil, reason, excludeProposalID, now)
		if err != nil {
			return err
		}
		if !ok {
			continue // resolved concurrently by another path; nothing to do.
		}
		if err := s.audit.Log(ctx, tx, audit.Entry{
			ProjectID: ref(cfg.ProjectID), ConfigID: ref(cfg.ID),
			Type:    audit.EventConfigProposalRejected,
			Payload: map[string]interface{}{"proposalId": p.ID, "reason": reason},
		}); err != nil {
			return err
		}
	}
	return nil
}
