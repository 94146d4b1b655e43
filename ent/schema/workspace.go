package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Workspace holds the schema definition for the Workspace entity.
// Top-level tenant; every project, environment and config lives inside
// exactly one workspace.
type Workspace struct {
	ent.Schema
}

// Mixin of the Workspace.
func (Workspace) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

// Fields of the Workspace.
func (Workspace) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name").
			NotEmpty(),
		field.Bool("auto_add_new_users").
			Default(false).
			Comment("when true, new authenticated users are auto-enrolled as members"),
	}
}

// Edges of the Workspace.
func (Workspace) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("projects", Project.Type),
		edge.To("members", WorkspaceMember.Type),
		edge.To("admin_api_keys", AdminApiKey.Type),
	}
}

// Indexes of the Workspace.
func (Workspace) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("name"),
	}
}
