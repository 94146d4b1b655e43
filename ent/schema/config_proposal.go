package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ConfigProposal holds the schema definition for the ConfigProposal
// entity: an immutable intent to change or delete a config, anchored to
// baseConfigVersion. approved and rejected are sticky terminal states;
// at most one terminal transition is ever applied to a given row.
type ConfigProposal struct {
	ent.Schema
}

// Mixin of the ConfigProposal.
func (ConfigProposal) Mixin() []ent.Mixin {
	return []ent.Mixin{
		AuditMixin{},
	}
}

// Fields of the ConfigProposal.
func (ConfigProposal) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("author_id").
			NotEmpty().
			Immutable(),
		field.Time("approved_at").
			Optional().
			Nillable(),
		field.Time("rejected_at").
			Optional().
			Nillable(),
		field.String("reviewer_id").
			Optional().
			Nillable(),
		field.String("rejection_reason").
			Optional().
			Nillable(),
		field.String("rejected_in_favor_of_proposal_id").
			Optional().
			Nillable(),
		field.Int64("base_config_version").
			Immutable(),
		field.Bool("is_delete").
			Default(false).
			Immutable(),
		field.String("message").
			Optional().
			Immutable(),
		field.JSON("snapshot", map[string]interface{}{}).
			Immutable().
			Comment("original description/value/schema/overrides/members at proposal time"),
		field.JSON("proposed", map[string]interface{}{}).
			Immutable().
			Comment("proposed description/value/schema/overrides/members"),
		field.JSON("variants", []interface{}{}).
			Optional().
			Immutable().
			Comment("proposed per-environment variant triples"),
	}
}

// Edges of the ConfigProposal.
func (ConfigProposal) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("config", Config.Type).
			Ref("proposals").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ConfigProposal.
func (ConfigProposal) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("base_config_version"),
	}
}
