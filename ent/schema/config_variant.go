package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ConfigVariant holds the schema definition for the ConfigVariant
// entity: exactly one row per (configId, environmentId) pair, holding
// that environment's value/schema/overrides triple.
type ConfigVariant struct {
	ent.Schema
}

// Mixin of the ConfigVariant.
func (ConfigVariant) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

// Fields of the ConfigVariant.
func (ConfigVariant) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.Int64("version").
			Default(1),
		field.JSON("value", map[string]interface{}{}).
			Optional(),
		field.JSON("schema", map[string]interface{}{}).
			Optional().
			Comment("ignored entirely when use_base_schema is true"),
		field.Bool("use_base_schema").
			Default(true),
		field.JSON("overrides", []interface{}{}).
			Optional(),
	}
}

// Edges of the ConfigVariant.
func (ConfigVariant) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("config", Config.Type).
			Ref("variants").
			Unique().
			Required().
			Immutable(),
		edge.From("environment", Environment.Type).
			Ref("variants").
			Unique().
			Required().
			Immutable(),
		edge.To("versions", ConfigVariantVersion.Type),
	}
}

// Indexes of the ConfigVariant.
func (ConfigVariant) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("version"),
	}
}
