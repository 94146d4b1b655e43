package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ConfigUser holds the schema definition for the config_users join
// entity: an email's editor/maintainer role on a specific config.
type ConfigUser struct {
	ent.Schema
}

// Mixin of the ConfigUser.
func (ConfigUser) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

// Fields of the ConfigUser.
func (ConfigUser) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("email").
			NotEmpty(),
		field.Enum("role").
			Values("editor", "maintainer"),
	}
}

// Edges of the ConfigUser.
func (ConfigUser) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("config", Config.Type).
			Ref("members").
			Unique().
			Required(),
	}
}

// Indexes of the ConfigUser.
func (ConfigUser) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("email"),
	}
}
