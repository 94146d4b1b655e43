package configsvc

import (
	"context"
	"encoding/json"

	"kv-shepherd.io/shepherd/internal/audit"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// DeleteConfigInput describes a config deletion.
type DeleteConfigInput struct {
	ConfigID string
	AuthorID string

	// BypassApprovalGate mirrors UpdateConfigInput's field: API-key
	// callers and proposal-driven applies skip the requireProposals
	// check. A direct user delete on a requireProposals project is
	// unconditionally forbidden (spec.md §4.6: "deleteConfig is
	// forbidden when the project requires proposals").
	BypassApprovalGate bool
}

// DeleteConfig removes a config and everything that hangs off it,
// recording a config_deleted audit entry carrying the full
// pre-deletion snapshot.
func (s *Service) DeleteConfig(ctx context.Context, tx *store.Tx, in DeleteConfigInput) (store.Config, error) {
	cfg, err := tx.Configs.GetByIDForUpdate(ctx, in.ConfigID)
	if err != nil {
		return store.Config{}, err
	}

	if !in.BypassApprovalGate {
		project, err := tx.Projects.GetByID(ctx, cfg.ProjectID)
		if err != nil {
			return store.Config{}, err
		}
		if project.RequireProposals {
			return store.Config{}, apperrors.BadRequest(
				"project requires proposals: submit a deletion proposal instead of deleting directly",
			).WithCode(apperrors.CodeApprovalRequired)
		}
	}

	members, err := tx.ConfigUsers.ListByConfig(ctx, cfg.ID)
	if err != nil {
		return store.Config{}, err
	}
	rosterJSON, err := rosterSnapshot(members)
	if err != nil {
		return store.Config{}, err
	}

	if err := tx.ConfigVariants.DeleteByConfig(ctx, cfg.ID); err != nil {
		return store.Config{}, err
	}
	if err := tx.Configs.Delete(ctx, cfg.ID); err != nil {
		return store.Config{}, err
	}

	if err := s.audit.Log(ctx, tx, audit.Entry{
		UserID: ref(in.AuthorID), ProjectID: ref(cfg.ProjectID), ConfigID: ref(cfg.ID),
		Type: audit.EventConfigDeleted,
		Payload: map[string]interface{}{
			"name": cfg.Name, "version": cfg.Version, "description": cfg.Description,
			"value": json.RawMessage(orNull(cfg.Value)), "schema": json.RawMessage(orNull(cfg.Schema)),
			"overrides": json.RawMessage(orNull(cfg.Overrides)), "members": json.RawMessage(rosterJSON),
		},
	}); err != nil {
		return store.Config{}, err
	}

	return cfg, nil
}

func orNull(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
