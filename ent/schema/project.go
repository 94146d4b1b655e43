package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Project holds the schema definition for the Project entity. Names are
// unique within a workspace; a project must always retain at least one
// admin in its user list and at least one environment.
type Project struct {
	ent.Schema
}

// Mixin of the Project.
func (Project) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

// Fields of the Project.
func (Project) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("name").
			NotEmpty(),
		field.String("description").
			Optional(),
		field.Bool("require_proposals").
			Default(false).
			Comment("gates direct edits for non-API-key identities; enforced by ConfigService"),
		field.Bool("allow_self_approvals").
			Default(true),
	}
}

// Edges of the Project.
func (Project) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("workspace", Workspace.Type).
			Ref("projects").
			Unique().
			Required().
			Immutable(),
		edge.To("environments", Environment.Type),
		edge.To("configs", Config.Type),
		edge.To("users", ProjectUser.Type),
		edge.To("sdk_keys", SdkKey.Type),
	}
}

// Indexes of the Project.
func (Project) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("name"), // uniqueness is scoped per-workspace, enforced in internal/store
	}
}
