package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AdminApiKey holds the schema definition for the AdminApiKey entity.
// Scopes and the project restriction list are projected into the
// admin_api_key_scopes / admin_api_key_projects join tables
// (AdminApiKeyScope / AdminApiKeyProject below); a nil project
// restriction means "all projects in the workspace."
type AdminApiKey struct {
	ent.Schema
}

// Mixin of the AdminApiKey.
func (AdminApiKey) Mixin() []ent.Mixin {
	return []ent.Mixin{
		TimeMixin{},
	}
}

// Fields of the AdminApiKey.
func (AdminApiKey) Fields() []ent.Field {
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
		field.String("key_prefix").
			NotEmpty().
			Immutable(),
		field.String("key_suffix").
			NotEmpty().
			Immutable().
			Comment("last few chars of the plaintext token, shown in listings for recognition"),
		field.String("created_by_email").
			NotEmpty().
			Immutable(),
		field.Time("expires_at").
			Optional().
			Nillable(),
		field.Time("last_used_at").
			Optional().
			Nillable(),
	}
}

// Edges of the AdminApiKey.
func (AdminApiKey) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("workspace", Workspace.Type).
			Ref("admin_api_keys").
			Unique().
			Required().
			Immutable(),
		edge.To("scopes", AdminApiKeyScope.Type),
		edge.To("project_restrictions", AdminApiKeyProject.Type),
	}
}

// Indexes of the AdminApiKey.
func (AdminApiKey) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("key_prefix"),
	}
}

// AdminApiKeyScope holds the schema definition for the
// admin_api_key_scopes join entity: one scope string granted to a key.
type AdminApiKeyScope struct {
	ent.Schema
}

// Fields of the AdminApiKeyScope.
func (AdminApiKeyScope) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("scope").
			NotEmpty().
			Immutable(),
	}
}

// Edges of the AdminApiKeyScope.
func (AdminApiKeyScope) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("admin_api_key", AdminApiKey.Type).
			Ref("scopes").
			Unique().
			Required().
			Immutable(),
	}
}

// AdminApiKeyProject holds the schema definition for the
// admin_api_key_projects join entity: one project a key is restricted
// to. Absence of any rows for a key means "all projects."
type AdminApiKeyProject struct {
	ent.Schema
}

// Fields of the AdminApiKeyProject.
func (AdminApiKeyProject) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("project_id").
			NotEmpty().
			Immutable(),
	}
}

// Edges of the AdminApiKeyProject.
func (AdminApiKeyProject) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("admin_api_key", AdminApiKey.Type).
			Ref("project_restrictions").
			Unique().
			Required().
			Immutable(),
	}
}
