package usecase

import (
	"context"

	"kv-shepherd.io/shepherd/internal/configsvc"
	"kv-shepherd.io/shepherd/internal/proposal"
	"kv-shepherd.io/shepherd/internal/store"
)

// CreateProposalInput is the usecase-facing shape of a new proposal.
type CreateProposalInput struct {
	ConfigID            string
	Message             *string
	ExpectedBaseVersion int64
	IsDelete            bool
	Description         string
	Value               []byte
	Schema              []byte
	Overrides           []byte
	Members             []configsvc.MemberInput
	Variants            []proposal.ProposedVariant
}

// CreateProposal opens a new pending proposal against a config. Gated
// the same way a direct value edit would be: a config editor/maintainer,
// project admin, or api-key with config:write (spec.md §4.7 — proposing
// a change never requires more authority than making it directly would).
func (d *Deps) CreateProposal(ctx context.Context, in CreateProposalInput) (store.ConfigProposal, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	var out store.ConfigProposal
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, cfg, err := loadProjectAndConfig(ctx, tx, in.ConfigID)
		if err != nil {
			return err
		}
		cc, err := configContext(ctx, tx, id, p, cfg)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanEditConfigValue(id, cc); err != nil {
			return err
		}
		out, err = d.Proposals.CreateProposal(ctx, tx, proposal.CreateProposalInput{
			ConfigID: in.ConfigID, AuthorID: callerID(id), Message: in.Message,
			ExpectedBaseVersion: in.ExpectedBaseVersion, IsDelete: in.IsDelete,
			Description: in.Description, Value: in.Value, Schema: in.Schema, Overrides: in.Overrides,
			Members: in.Members, Variants: in.Variants,
		})
		return err
	})
	return out, err
}

// ApproveProposal approves a pending proposal and applies its captured
// change. The required config role depends on what the proposal touches
// (proposal.RequiredApproverRole): a maintainer is required for
// description/member/schema/delete changes, an editor suffices for
// value/overrides-only changes. Self-approval is enforced inside
// proposal.Service against the project's allowSelfApprovals flag.
func (d *Deps) ApproveProposal(ctx context.Context, proposalID string) (store.ConfigProposal, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	var out store.ConfigProposal
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		pr, err := tx.ConfigProposals.GetByID(ctx, proposalID)
		if err != nil {
			return err
		}
		p, cfg, err := loadProjectAndConfig(ctx, tx, pr.ConfigID)
		if err != nil {
			return err
		}
		cc, err := configContext(ctx, tx, id, p, cfg)
		if err != nil {
			return err
		}
		requiredRole, err := proposal.RequiredApproverRole(pr)
		if err != nil {
			return err
		}
		if requiredRole == store.ConfigRoleMaintainer {
			if err := d.Permissions.CanManageConfig(id, cc); err != nil {
				return err
			}
		} else {
			if err := d.Permissions.CanEditConfigValue(id, cc); err != nil {
				return err
			}
		}
		out, err = d.Proposals.ApproveProposal(ctx, tx, proposalID, callerID(id))
		return err
	})
	return out, err
}

// RejectProposal explicitly declines a pending proposal, gated the same
// way approval is (the role required to approve is also the role
// required to reject).
func (d *Deps) RejectProposal(ctx context.Context, proposalID, reason string) (store.ConfigProposal, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	var out store.ConfigProposal
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		pr, err := tx.ConfigProposals.GetByID(ctx, proposalID)
		if err != nil {
			return err
		}
		p, cfg, err := loadProjectAndConfig(ctx, tx, pr.ConfigID)
		if err != nil {
			return err
		}
		cc, err := configContext(ctx, tx, id, p, cfg)
		if err != nil {
			return err
		}
		requiredRole, err := proposal.RequiredApproverRole(pr)
		if err != nil {
			return err
		}
		if requiredRole == store.ConfigRoleMaintainer {
			if err := d.Permissions.CanManageConfig(id, cc); err != nil {
				return err
			}
		} else {
			if err := d.Permissions.CanEditConfigValue(id, cc); err != nil {
				return err
			}
		}
		if reason == "" {
			reason = proposal.ReasonRejectedExplicitly
		}
		out, err = d.Proposals.RejectProposal(ctx, tx, proposalID, callerID(id), reason)
		return err
	})
	return out, err
}

// ListProposals returns every proposal (any state) against a config,
// newest first, gated by read access to the owning project.
func (d *Deps) ListProposals(ctx context.Context, configID string) ([]store.ConfigProposal, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.ConfigProposal
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, _, err := loadProjectAndConfig(ctx, tx, configID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanReadProject(id, pc); err != nil {
			return err
		}
		out, err = tx.ConfigProposals.ListByConfig(ctx, configID)
		return err
	})
	return out, err
}

// GetProposal fetches a single proposal, enforcing read access on its
// owning project.
func (d *Deps) GetProposal(ctx context.Context, proposalID string) (store.ConfigProposal, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	var out store.ConfigProposal
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		pr, err := tx.ConfigProposals.GetByID(ctx, proposalID)
		if err != nil {
			return err
		}
		p, _, err := loadProjectAndConfig(ctx, tx, pr.ConfigID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanReadProject(id, pc); err != nil {
			return err
		}
		out = pr
		return nil
	})
	return out, err
}
