package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/identity"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
	"kv-shepherd.io/shepherd/internal/tokencodec"
)

// CreateAdminAPIKeyInput describes a new workspace-scoped admin key.
// ProjectIDs == nil grants access to every project in the workspace
// (spec.md §4.1).
type CreateAdminAPIKeyInput struct {
	WorkspaceID string
	Name        string
	Description string
	Scopes      []identity.Scope
	ProjectIDs  []string
	ExpiresAt   *time.Time
}

// CreateAdminAPIKeyResult carries the one-time plaintext token alongside
// the persisted row, which never stores it.
type CreateAdminAPIKeyResult struct {
	Key   store.AdminAPIKey
	Token string
}

// CreateAdminAPIKey mints a new admin API key. Requires a user identity
// and workspace-admin role (spec.md §4.4: "create/delete admin API keys:
// workspace admin, users only").
func (d *Deps) CreateAdminAPIKey(ctx context.Context, in CreateAdminAPIKeyInput) (CreateAdminAPIKeyResult, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return CreateAdminAPIKeyResult{}, err
	}
	u, err := requireUserIdentity(id)
	if err != nil {
		return CreateAdminAPIKeyResult{}, err
	}

	for _, s := range in.Scopes {
		if !identity.IsValidScope(s) {
			return CreateAdminAPIKeyResult{}, apperrors.BadRequest("unknown scope: " + string(s))
		}
	}

	var out CreateAdminAPIKeyResult
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := requireWorkspaceAdmin(ctx, tx, id, in.WorkspaceID); err != nil {
			return err
		}

		keyUUID, uerr := uuid.NewV7()
		if uerr != nil {
			keyUUID = uuid.New()
		}
		token, _, berr := tokencodec.Build(tokencodec.PrefixAdminKey, keyUUID)
		if berr != nil {
			return berr
		}
		hash, herr := d.Hashing.HashAdminKey(token)
		if herr != nil {
			return herr
		}

		scopes := make([]string, 0, len(in.Scopes))
		for _, s := range in.Scopes {
			scopes = append(scopes, string(s))
		}

		key := store.AdminAPIKey{
			ID: keyUUID.String(), WorkspaceID: in.WorkspaceID, Name: in.Name, Description: in.Description,
			KeyHash: hash, KeyPrefix: tokencodec.PrefixAdminKey, KeySuffix: token[len(token)-4:],
			CreatedByEmail: u.Email, ExpiresAt: in.ExpiresAt, Scopes: scopes, ProjectIDs: in.ProjectIDs,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.AdminAPIKeys.Create(ctx, key); err != nil {
			return err
		}
		out = CreateAdminAPIKeyResult{Key: key, Token: token}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(u.Email), Type: audit.EventAdminAPIKeyCreated,
			Payload: map[string]interface{}{"workspaceId": in.WorkspaceID, "name": in.Name, "keyId": key.ID},
		})
	})
	return out, err
}

// ListAdminAPIKeys returns a workspace's admin keys (never including the
// plaintext token). Requires a user identity and workspace-admin role.
func (d *Deps) ListAdminAPIKeys(ctx context.Context, workspaceID string) ([]store.AdminAPIKey, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.AdminAPIKey
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := requireWorkspaceAdmin(ctx, tx, id, workspaceID); err != nil {
			return err
		}
		out, err = tx.AdminAPIKeys.ListByWorkspace(ctx, workspaceID)
		return err
	})
	return out, err
}

// DeleteAdminAPIKey revokes an admin API key. Requires a user identity
// and workspace-admin role on the key's workspace.
func (d *Deps) DeleteAdminAPIKey(ctx context.Context, workspaceID, keyID string) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := requireWorkspaceAdmin(ctx, tx, id, workspaceID); err != nil {
			return err
		}
		key, err := tx.AdminAPIKeys.GetByID(ctx, keyID)
		if err != nil {
			return err
		}
		if key.WorkspaceID != workspaceID {
			return apperrors.NotFound("admin api key not found in this workspace")
		}
		if err := tx.AdminAPIKeys.Delete(ctx, keyID); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), Type: audit.EventAdminAPIKeyDeleted,
			Payload: map[string]interface{}{"workspaceId": workspaceID, "keyId": keyID, "name": key.Name},
		})
	})
}
