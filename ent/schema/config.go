package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Config holds the schema definition for the Config entity. Names are
// unique within a project. The default variant triple (value, schema,
// overrides) lives on this row directly; per-environment overrides of
// that triple live in ConfigVariant.
type Config struct {
	ent.Schema
}

// Mixin of the Config.
func (Config) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

// Fields of the Config.
func (Config) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name").
			NotEmpty(),
		field.String("description").
			Optional(),
		field.Int64("version").
			Default(1).
			Comment("must equal the highest config_versions.version row for this config"),
		field.JSON("value", map[string]interface{}{}).
			Optional().
			Comment("default variant value; any JSON shape, not just objects"),
		field.JSON("schema", map[string]interface{}{}).
			Optional().
			Comment("default variant JSON Schema document; nil means unvalidated"),
		field.JSON("overrides", []interface{}{}).
			Optional().
			Comment("default variant override list; see internal/override"),
		field.String("creator_id").
			NotEmpty().
			Immutable(),
	}
}

// Edges of the Config.
func (Config) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("project", Project.Type).
			Ref("configs").
			Unique().
			Required().
			Immutable(),
		edge.To("variants", ConfigVariant.Type),
		edge.To("versions", ConfigVersion.Type),
		edge.To("members", ConfigUser.Type),
		edge.To("proposals", ConfigProposal.Type),
	}
}

// Indexes of the Config.
func (Config) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("name"),
	}
}
