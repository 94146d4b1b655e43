package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ConfigVersion holds the schema definition for the ConfigVersion
// entity: an immutable snapshot of a config's default variant plus its
// member roster, written on every successful edit. No row is ever
// mutated or deleted.
type ConfigVersion struct {
	ent.Schema
}

// Mixin of the ConfigVersion.
func (ConfigVersion) Mixin() []ent.Mixin {
	return []ent.Mixin{
		AuditMixin{},
	}
}

// Fields of the ConfigVersion.
func (ConfigVersion) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.Int64("version").
			Immutable(),
		field.String("author_id").
			NotEmpty().
			Immutable(),
		field.String("proposal_id").
			Optional().
			Nillable().
			Immutable(),
		field.String("description").
			Optional().
			Immutable(),
		field.JSON("value", map[string]interface{}{}).
			Optional().
			Immutable(),
		field.JSON("schema", map[string]interface{}{}).
			Optional().
			Immutable(),
		field.JSON("overrides", []interface{}{}).
			Optional().
			Immutable(),
		field.JSON("members", []interface{}{}).
			Optional().
			Immutable().
			Comment("config member roster at this version"),
	}
}

// Edges of the ConfigVersion.
func (ConfigVersion) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("config", Config.Type).
			Ref("versions").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ConfigVersion.
func (ConfigVersion) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("version"),
	}
}
