package configsvc

import (
	"context"
	"fmt"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/idgen"
	"kv-shepherd.io/shepherd/internal/store"
)

// CreateConfigInput describes a new config, its default variant, and its
// initial roster.
type CreateConfigInput struct {
	ProjectID   string
	Name        string
	Description string
	Value       []byte
	Schema      []byte
	Overrides   []byte
	AuthorID    string
	Members     []MemberInput
}

// CreateConfig inserts a config at version 1, its v1 snapshot, and its
// initial roster, all within tx. Callers (usecase.CreateConfig) are
// responsible for the authorization check and for the config/project
// name-collision check before calling this.
func (s *Service) CreateConfig(ctx context.Context, tx *store.Tx, in CreateConfigInput) (store.Config, error) {
	if err := s.validateValueAndOverrides(in.ProjectID, in.Schema, in.Value, in.Overrides); err != nil {
		return store.Config{}, err
	}

	value, err := canonicalOrNil(in.Value)
	if err != nil {
		return store.Config{}, fmt.Errorf("canonicalize value: %w", err)
	}
	schema, err := canonicalOrNil(in.Schema)
	if err != nil {
		return store.Config{}, fmt.Errorf("canonicalize schema: %w", err)
	}
	overrides, err := canonicalOrNil(in.Overrides)
	if err != nil {
		return store.Config{}, fmt.Errorf("canonicalize overrides: %w", err)
	}

	now := s.clock.Now()
	cfg := store.Config{
		ID:          idgen.New(),
		ProjectID:   in.ProjectID,
		Name:        in.Name,
		Description: in.Description,
		Version:     1,
		Value:       value,
		Schema:      schema,
		Overrides:   overrides,
		CreatorID:   in.AuthorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.Configs.Create(ctx, cfg); err != nil {
		return store.Config{}, err
	}

	members := make([]store.ConfigUser, 0, len(in.Members))
	for _, m := range in.Members {
		members = append(members, store.ConfigUser{
			ID:        idgen.New(),
			ConfigID:  cfg.ID,
			Email:     m.Email,
			Role:      m.Role,
			CreatedAt: now,
		})
	}
	if len(members) > 0 {
		if err := tx.ConfigUsers.ReplaceRoster(ctx, cfg.ID, members); err != nil {
			return store.Config{}, err
		}
	}

	rosterJSON, err := rosterSnapshot(members)
	if err != nil {
		return store.Config{}, err
	}
	if err := tx.ConfigVersions.Create(ctx, store.ConfigVersion{
		ID:          idgen.New(),
		ConfigID:    cfg.ID,
		Version:     1,
		AuthorID:    in.AuthorID,
		Description: in.Description,
		Value:       value,
		Schema:      schema,
		Overrides:   overrides,
		Members:     rosterJSON,
		CreatedAt:   now,
	}); err != nil {
		return store.Config{}, err
	}

	if err := s.audit.Log(ctx, tx, audit.Entry{
		UserID:    ref(in.AuthorID),
		ProjectID: ref(in.ProjectID),
		ConfigID:  ref(cfg.ID),
		Type:      audit.EventConfigCreated,
		Payload:   map[string]interface{}{"name": cfg.Name},
	}); err != nil {
		return store.Config{}, err
	}

	return cfg, nil
}
