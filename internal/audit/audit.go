// Package audit appends compliance records to the audit_logs table
// (spec.md §3/§4.6/§4.7). It replaces the teacher's VM-operation audit
// logger with a domain-agnostic one: every record is a typed event name
// plus a canonical-JSON payload, written inside the caller's open
// transaction so audit entries are never observed without the mutation
// they describe.
package audit

import (
	"context"
	"fmt"

	"kv-shepherd.io/shepherd/internal/canonicaljson"
	"kv-shepherd.io/shepherd/internal/idgen"
	"kv-shepherd.io/shepherd/internal/pkg/clock"
	"kv-shepherd.io/shepherd/internal/store"
)

// Event names drawn from the closed payload.type set in spec.md §3.
const (
	EventConfigCreated                = "config_created"
	EventConfigUpdated                = "config_updated"
	EventConfigDeleted                = "config_deleted"
	EventConfigVersionRestored        = "config_version_restored"
	EventConfigVariantUpdated         = "config_variant_updated"
	EventConfigVariantVersionRestored = "config_variant_version_restored"
	EventConfigMembersChanged         = "config_members_changed"
	EventConfigProposalCreated        = "config_proposal_created"
	EventConfigProposalApproved       = "config_proposal_approved"
	EventConfigProposalRejected       = "config_proposal_rejected"
	EventConfigVariantProposalCreated  = "config_variant_proposal_created"
	EventConfigVariantProposalApproved = "config_variant_proposal_approved"
	EventConfigVariantProposalRejected = "config_variant_proposal_rejected"
	EventAPIKeyCreated      = "api_key_created"
	EventAPIKeyDeleted      = "api_key_deleted"
	EventSDKKeyCreated      = "sdk_key_created"
	EventSDKKeyDeleted      = "sdk_key_deleted"
	EventSDKKeyUpdated      = "sdk_key_updated"
	EventAdminAPIKeyCreated = "admin_api_key_created"
	EventAdminAPIKeyDeleted = "admin_api_key_deleted"
	EventProjectCreated     = "project_created"
	EventProjectUpdated     = "project_updated"
	EventProjectDeleted     = "project_deleted"
	EventProjectMembersChanged = "project_members_changed"
	EventEnvironmentCreated   = "environment_created"
	EventEnvironmentDeleted   = "environment_deleted"
	EventWorkspaceCreated        = "workspace_created"
	EventWorkspaceUpdated        = "workspace_updated"
	EventWorkspaceDeleted        = "workspace_deleted"
	EventWorkspaceMemberAdded    = "workspace_member_added"
	EventWorkspaceMemberRemoved  = "workspace_member_removed"
	EventWorkspaceMemberRoleChanged = "workspace_member_role_changed"
	EventUserAccountDeleted = "user_account_deleted"
)

// Logger appends audit records through a store.Tx.
type Logger struct {
	clock clock.Clock
}

// New returns a ready-to-use Logger.
func New(c clock.Clock) *Logger {
	return &Logger{clock: c}
}

// Entry describes one audit record before it is assigned an id and
// timestamp.
type Entry struct {
	UserID    *string
	ProjectID *string
	ConfigID  *string
	Type      string
	Payload   map[string]interface{}
}

// Log appends an entry to audit_logs within tx.
func (l *Logger) Log(ctx context.Context, tx *store.Tx, e Entry) error {
	if e.Payload == nil {
		e.Payload = map[string]interface{}{}
	}
	e.Payload["type"] = e.Type

	payload, err := canonicaljson.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload for %s: %w", e.Type, err)
	}

	return tx.AuditLogs.Create(ctx, store.AuditLog{
		ID:        idgen.New(),
		UserID:    e.UserID,
		ProjectID: e.ProjectID,
		ConfigID:  e.ConfigID,
		Payload:   payload,
		CreatedAt: l.clock.Now(),
	})
}
