package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SdkKey holds the schema definition for the SdkKey entity: a token
// scoped to reading one project's configs in one environment.
type SdkKey struct {
	ent.Schema
}

// Mixin of the SdkKey.
func (SdkKey) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

// Fields of the SdkKey.
func (SdkKey) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name").
			NotEmpty(),
		field.String("description").
			Optional(),
		field.String("key_hash").
			Sensitive().
			NotEmpty(),
	}
}

// Edges of the SdkKey.
func (SdkKey) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("project", Project.Type).
			Ref("sdk_keys").
			Unique().
			Required().
			Immutable(),
		edge.From("environment", Environment.Type).
			Ref("sdk_keys").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the SdkKey.
func (SdkKey) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("name"),
	}
}
