package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// WorkspaceMember holds the schema definition for the workspace_members
// join entity: an email's admin/member role within a workspace. A
// workspace must always retain at least one admin row (enforced by the
// usecase package's workspace-member operations, not by the schema).
type WorkspaceMember struct {
	ent.Schema
}

// Mixin of the WorkspaceMember.
func (WorkspaceMember) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

// Fields of the WorkspaceMember.
func (WorkspaceMember) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("email").
			NotEmpty(),
		field.Enum("role").
			Values("admin", "member"),
	}
}

// Edges of the WorkspaceMember.
func (WorkspaceMember) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("workspace", Workspace.Type).
			Ref("members").
			Unique().
			Required(),
	}
}

// Indexes of the WorkspaceMember.
func (WorkspaceMember) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("email"),
	}
}
