package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/store"
	"kv-shepherd.io/shepherd/internal/tokencodec"
)

// CreateSDKKeyInput describes a new SDK key, bound to exactly one
// (project, environment) pair for its lifetime (spec.md §4.2/§6).
type CreateSDKKeyInput struct {
	ProjectID     string
	EnvironmentID string
	Name          string
	Description   string
}

// CreateSDKKeyResult carries the one-time plaintext token.
type CreateSDKKeyResult struct {
	Key   store.SDKKey
	Token string
}

// CreateSDKKey mints a new SDK key. Gated by CanManageSDKKeys (project
// admin, or api-key with sdk_key:write).
func (d *Deps) CreateSDKKey(ctx context.Context, in CreateSDKKeyInput) (CreateSDKKeyResult, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return CreateSDKKeyResult{}, err
	}
	var out CreateSDKKeyResult
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, err := tx.Projects.GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageSDKKeys(id, pc); err != nil {
			return err
		}
		if _, err := tx.Environments.GetByID(ctx, in.EnvironmentID); err != nil {
			return err
		}

		keyUUID, uerr := uuid.NewV7()
		if uerr != nil {
			keyUUID = uuid.New()
		}
		token, _, berr := tokencodec.Build(tokencodec.PrefixSDKKey, keyUUID)
		if berr != nil {
			return berr
		}
		hash, herr := d.Hashing.HashSDKKey(token)
		if herr != nil {
			return herr
		}

		key := store.SDKKey{
			ID: keyUUID.String(), ProjectID: in.ProjectID, EnvironmentID: in.EnvironmentID,
			Name: in.Name, Description: in.Description, KeyHash: hash, CreatedAt: time.Now().UTC(),
		}
		if err := tx.SDKKeys.Create(ctx, key); err != nil {
			return err
		}
		out = CreateSDKKeyResult{Key: key, Token: token}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), Type: audit.EventSDKKeyCreated,
			Payload: map[string]interface{}{"name": in.Name, "environmentId": in.EnvironmentID, "keyId": key.ID},
		})
	})
	return out, err
}

// ListSDKKeys returns a project's SDK keys, gated by read access.
func (d *Deps) ListSDKKeys(ctx context.Context, projectID string) ([]store.SDKKey, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.SDKKey
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		p, err := tx.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanReadProject(id, pc); err != nil {
			return err
		}
		out, err = tx.SDKKeys.ListByProject(ctx, projectID)
		return err
	})
	return out, err
}

// UpdateSDKKeyInput renames/redescribes an SDK key. The binding and
// secret are immutable once minted (internal/store/sdk_key.go).
type UpdateSDKKeyInput struct {
	SDKKeyID    string
	Name        string
	Description string
}

// UpdateSDKKey renames/redescribes an SDK key, gated by CanManageSDKKeys.
func (d *Deps) UpdateSDKKey(ctx context.Context, in UpdateSDKKeyInput) (store.SDKKey, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return store.SDKKey{}, err
	}
	var out store.SDKKey
	err = d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		key, err := tx.SDKKeys.GetByID(ctx, in.SDKKeyID)
		if err != nil {
			return err
		}
		p, err := tx.Projects.GetByID(ctx, key.ProjectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageSDKKeys(id, pc); err != nil {
			return err
		}
		if err := tx.SDKKeys.Update(ctx, in.SDKKeyID, in.Name, in.Description); err != nil {
			return err
		}
		key.Name, key.Description = in.Name, in.Description
		out = key
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), Type: audit.EventSDKKeyUpdated,
			Payload: map[string]interface{}{"keyId": key.ID, "name": key.Name},
		})
	})
	return out, err
}

// DeleteSDKKey revokes an SDK key, gated by CanManageSDKKeys.
func (d *Deps) DeleteSDKKey(ctx context.Context, sdkKeyID string) error {
	id, err := requireIdentity(ctx)
	if err != nil {
		return err
	}
	return d.DB.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		key, err := tx.SDKKeys.GetByID(ctx, sdkKeyID)
		if err != nil {
			return err
		}
		p, err := tx.Projects.GetByID(ctx, key.ProjectID)
		if err != nil {
			return err
		}
		pc, err := projectContext(ctx, tx, id, p)
		if err != nil {
			return err
		}
		if err := d.Permissions.CanManageSDKKeys(id, pc); err != nil {
			return err
		}
		if err := tx.SDKKeys.Delete(ctx, sdkKeyID); err != nil {
			return err
		}
		return d.audit().Log(ctx, tx, audit.Entry{
			UserID: refStr(callerID(id)), ProjectID: refStr(p.ID), Type: audit.EventSDKKeyDeleted,
			Payload: map[string]interface{}{"keyId": key.ID, "name": key.Name},
		})
	})
}
