package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ProjectUser holds the schema definition for the project_users join
// entity: an email's admin/maintainer role within a project.
type ProjectUser struct {
	ent.Schema
}

// Mixin of the ProjectUser.
func (ProjectUser) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

// Fields of the ProjectUser.
func (ProjectUser) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("email").
			NotEmpty(),
		field.Enum("role").
			Values("admin", "maintainer"),
	}
}

// Edges of the ProjectUser.
func (ProjectUser) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("project", Project.Type).
			Ref("users").
			Unique().
			Required(),
	}
}

// Indexes of the ProjectUser.
func (ProjectUser) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("email"),
	}
}
