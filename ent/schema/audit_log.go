package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AuditLog holds the schema definition for the AuditLog entity.
// Append-only; hard-delete is never performed. payload.type is drawn
// from the closed set in spec.md §3.
type AuditLog struct {
	ent.Schema
}

// Mixin of the AuditLog.
func (AuditLog) Mixin() []ent.Mixin {
	return []ent.Mixin{
		AuditMixin{},
	}
}

// Fields of the AuditLog.
func (AuditLog) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("user_id").
			Optional().
			Nillable().
			Immutable(),
		field.String("project_id").
			Optional().
			Nillable().
			Immutable(),
		field.String("config_id").
			Optional().
			Nillable().
			Immutable(),
		field.JSON("payload", map[string]interface{}{}).
			Immutable().
			Comment(`{"type": "...", ...} — type drawn from the closed set in spec.md §3`),
	}
}

// Indexes of the AuditLog.
func (AuditLog) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("project_id"),
		index.Fields("config_id"),
		index.Fields("created_at"),
	}
}
