package proposal

import (
	"context"
	"fmt"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/canonicaljson"
	"kv-shepherd.io/shepherd/internal/configsvc"
	"kv-shepherd.io/shepherd/internal/idgen"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// ProposedVariant is the proposed (value, schema, useBaseSchema,
// overrides) state for one environment's variant.
type ProposedVariant struct {
	EnvironmentID string
	Value         []byte
	Schema        []byte
	UseBaseSchema bool
	Overrides     []byte
}

// CreateProposalInput describes a new proposal. ExpectedBaseVersion must
// equal the config's current version: a mismatch means the author's view
// is already stale (spec.md §8, "create a proposal whose base version
// != current version → BadRequest with CONFIG_VERSION_MISMATCH").
type CreateProposalInput struct {
	ConfigID            string
	AuthorID            string
	Message             *string
	ExpectedBaseVersion int64

	IsDelete bool

	// The following are ignored when IsDelete is true.
	Description string
	Value       []byte
	Schema      []byte
	Overrides   []byte
	Members     []configsvc.MemberInput
	Variants    []ProposedVariant
}

// CreateProposal captures both the current and proposed states of a
// config and inserts a pending proposal row (spec.md §4.7).
func (s *Service) CreateProposal(ctx context.Context, tx *store.Tx, in CreateProposalInput) (store.ConfigProposal, error) {
	cfg, err := tx.Configs.GetByID(ctx, in.ConfigID)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	if cfg.Version != in.ExpectedBaseVersion {
		return store.ConfigProposal{}, apperrors.BadRequest(
			fmt.Sprintf("config %s is at version %d, not %d: refresh before proposing", cfg.ID, cfg.Version, in.ExpectedBaseVersion),
		).WithCode(apperrors.CodeConfigVersionMismatch)
	}

	currentMembers, err := tx.ConfigUsers.ListByConfig(ctx, cfg.ID)
	if err != nil {
		return store.ConfigProposal{}, err
	}
	snapshot, err := marshalConfigState(configState{
		Description: cfg.Description,
		Value:       orNull(cfg.Value),
		Schema:      orNull(cfg.Schema),
		Overrides:   orNull(cfg.Overrides),
		Members:     rosterToMemberState(currentMembers),
	})
	if err != nil {
		return store.ConfigProposal{}, fmt.Errorf("marshal proposal snapshot: %w", err)
	}

	var proposed, variantsJSON []byte
	if !in.IsDelete {
		value, err := canonicaljson.MarshalRaw(orNull(in.Value))
		if err != nil {
			return store.ConfigProposal{}, fmt.Errorf("canonicalize proposed value: %w", err)
		}
		schema, err := canonicaljson.MarshalRaw(orNull(in.Schema))
		if err != nil {
			return store.ConfigProposal{}, fmt.Errorf("canonicalize proposed schema: %w", err)
		}
		overrides, err := canonicaljson.MarshalRaw(orNull(in.Overrides))
		if err != nil {
			return store.ConfigProposal{}, fmt.Errorf("canonicalize proposed overrides: %w", err)
		}
		proposedMembers := make([]memberState, 0, len(in.Members))
		for _, m := range in.Members {
			proposedMembers = append(proposedMembers, memberState{Email: m.Email, Role: m.Role})
		}
		proposed, err = marshalConfigState(configState{
			Description: in.Description, Value: value, Schema: schema, Overrides: overrides, Members: proposedMembers,
		})
		if err != nil {
			return store.ConfigProposal{}, fmt.Errorf("marshal proposed state: %w", err)
		}

		variants := make([]variantState, 0, len(in.Variants))
		for _, v := range in.Variants {
			val, err := canonicaljson.MarshalRaw(orNull(v.Value))
			if err != nil {
				return store.ConfigProposal{}, fmt.Errorf("canonicalize proposed variant value: %w", err)
			}
			sch, err := canonicaljson.MarshalRaw(orNull(v.Schema))
			if err != nil {
				return store.ConfigProposal{}, fmt.Errorf("canonicalize proposed variant schema: %w", err)
			}
			ov, err := canonicaljson.MarshalRaw(orNull(v.Overrides))
			if err != nil {
				return store.ConfigProposal{}, fmt.Errorf("canonicalize proposed variant overrides: %w", err)
			}
			variants = append(variants, variantState{
				EnvironmentID: v.EnvironmentID, Value: val, Schema: sch, UseBaseSchema: v.UseBaseSchema, Overrides: ov,
			})
		}
		variantsJSON, err = marshalVariantStates(variants)
		if err != nil {
			return store.ConfigProposal{}, fmt.Errorf("marshal proposed variants: %w", err)
		}
	}

	now := s.clock.Now()
	p := store.ConfigProposal{
		ID:                idgen.New(),
		ConfigID:          cfg.ID,
		AuthorID:          in.AuthorID,
		BaseConfigVersion: in.ExpectedBaseVersion,
		IsDelete:          in.IsDelete,
		Message:           in.Message,
		Snapshot:          snapshot,
		Proposed:          proposed,
		Variants:          variantsJSON,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := tx.ConfigProposals.Create(ctx, p); err != nil {
		return store.ConfigProposal{}, err
	}

	if err := s.audit.Log(ctx, tx, audit.Entry{
		UserID: ref(in.AuthorID), ProjectID: ref(cfg.ProjectID), ConfigID: ref(cfg.ID),
		Type:    audit.EventConfigProposalCreated,
		Payload: map[string]interface{}{"proposalId": p.ID, "isDelete": p.IsDelete},
	}); err != nil {
		return store.ConfigProposal{}, err
	}

	return p, nil
}

func orNull(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
