package replica

import (
	"context"
	"encoding/json"
	"fmt"

	"kv-shepherd.io/shepherd/internal/override"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
)

// ResolvedConfig is one entry of ReplicaService.GetProjectConfigs'
// result: the effective (value, overrides) pair for one config within a
// single environment, plus the version an SDK client can cache against.
type ResolvedConfig struct {
	Name      string              `json:"name"`
	Value     json.RawMessage     `json:"value"`
	Overrides []override.Override `json:"overrides"`
	Version   int64               `json:"version"`
}

// Service implements the read-mostly ReplicaService (spec.md §4.8): it
// is backed by the same store as configsvc but never opens a write
// transaction, so it never blocks behind a pending management edit.
type Service struct {
	db *store.DB
}

// New builds a Service over db.
func New(db *store.DB) *Service {
	return &Service{db: db}
}

// GetProjectConfigs returns every config visible in environmentID,
// applying each variant override (falling back to the config's base
// value/overrides when no variant exists) and resolving one-hop
// override references to literals so the SDK never needs a second
// round-trip to evaluate a cross-config override.
func (s *Service) GetProjectConfigs(ctx context.Context, projectID, environmentID string) ([]ResolvedConfig, error) {
	tx := s.db.ReadTx()

	if _, err := tx.Environments.GetByID(ctx, environmentID); err != nil {
		return nil, err
	}

	configs, err := tx.Configs.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	variants, err := tx.ConfigVariants.ListByEnvironment(ctx, environmentID)
	if err != nil {
		return nil, err
	}
	variantByConfig := make(map[string]store.ConfigVariant, len(variants))
	for _, v := range variants {
		variantByConfig[v.ConfigID] = v
	}

	resolver := &configNameResolver{tx: tx, projectID: projectID}

	out := make([]ResolvedConfig, 0, len(configs))
	for _, cfg := range configs {
		value := cfg.Value
		overridesRaw := cfg.Overrides
		version := cfg.Version

		if variant, ok := variantByConfig[cfg.ID]; ok {
			value = variant.Value
			overridesRaw = variant.Overrides
			version = variant.Version
		}

		overrides, err := unmarshalOverrides(overridesRaw)
		if err != nil {
			return nil, fmt.Errorf("parse overrides for config %s: %w", cfg.Name, err)
		}
		resolved, err := resolveOverrideReferences(ctx, resolver, overrides)
		if err != nil {
			return nil, fmt.Errorf("resolve overrides for config %s: %w", cfg.Name, err)
		}

		out = append(out, ResolvedConfig{
			Name:      cfg.Name,
			Value:     orNullJSON(value),
			Overrides: resolved,
			Version:   version,
		})
	}
	return out, nil
}

func unmarshalOverrides(raw []byte) ([]override.Override, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var overrides []override.Override
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

// resolveOverrideReferences returns a copy of overrides with every
// reference-kind Value replaced by the literal it resolves to.
// Condition trees are left untouched: their leaf RHS values are resolved
// lazily, at evaluation time, against the SDK's own attribute bag.
func resolveOverrideReferences(ctx context.Context, resolver override.ReferenceResolver, overrides []override.Override) ([]override.Override, error) {
	if len(overrides) == 0 {
		return overrides, nil
	}
	out := make([]override.Override, len(overrides))
	for i, ov := range overrides {
		out[i] = ov
		if ov.Value.Kind != override.ValueKindReference || ov.Value.Reference == nil {
			continue
		}
		literal, err := resolver.Resolve(ctx, *ov.Value.Reference)
		if err != nil {
			return nil, err
		}
		out[i].Value = override.Value{Kind: override.ValueKindLiteral, Literal: literal}
	}
	return out, nil
}

func orNullJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(raw)
}

// configNameResolver implements override.ReferenceResolver by looking a
// referenced config up by name within the same project and walking its
// JSON value along the reference's path (spec.md §4.5/§9: references are
// one hop, never chained).
type configNameResolver struct {
	tx        *store.Tx
	projectID string
}

func (r *configNameResolver) Resolve(ctx context.Context, ref override.Reference) (interface{}, error) {
	if ref.ProjectID != "" && ref.ProjectID != r.projectID {
		return nil, apperrors.BadRequest(fmt.Sprintf("override reference to project %s crosses project %s", ref.ProjectID, r.projectID))
	}
	target, err := r.tx.Configs.GetByName(ctx, r.projectID, ref.ConfigName)
	if err != nil {
		return nil, err
	}

	var value interface{}
	if len(target.Value) > 0 {
		if err := json.Unmarshal(target.Value, &value); err != nil {
			return nil, fmt.Errorf("parse value of referenced config %s: %w", ref.ConfigName, err)
		}
	}
	return walkPath(value, ref.Path)
}

func walkPath(value interface{}, path []interface{}) (interface{}, error) {
	current := value
	for _, step := range path {
		switch node := current.(type) {
		case map[string]interface{}:
			key, ok := step.(string)
			if !ok {
				return nil, fmt.Errorf("path step %v is not a valid object key", step)
			}
			current = node[key]
		case []interface{}:
			idx, err := pathIndex(step)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("path index %d out of range", idx)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("cannot descend into a non-object/array value at %v", step)
		}
	}
	return current, nil
}

func pathIndex(step interface{}) (int, error) {
	switch n := step.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("path step %v is not a valid array index", step)
	}
}
