package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ConfigVariantVersion holds the schema definition for the
// ConfigVariantVersion entity: an immutable snapshot of one
// (config, environment) variant, written on every successful variant
// edit.
type ConfigVariantVersion struct {
	ent.Schema
}

// Mixin of the ConfigVariantVersion.
func (ConfigVariantVersion) Mixin() []ent.Mixin {
	return []ent.Mixin{
		AuditMixin{},
	}
}

// Fields of the ConfigVariantVersion.
func (ConfigVariantVersion) Fields() []ent.Field {
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
		field.JSON("value", map[string]interface{}{}).
			Optional().
			Immutable(),
		field.JSON("schema", map[string]interface{}{}).
			Optional().
			Immutable(),
		field.Bool("use_base_schema").
			Immutable(),
		field.JSON("overrides", []interface{}{}).
			Optional().
			Immutable(),
	}
}

// Edges of the ConfigVariantVersion.
func (ConfigVariantVersion) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("variant", ConfigVariant.Type).
			Ref("versions").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ConfigVariantVersion.
func (ConfigVariantVersion) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("version"),
	}
}
