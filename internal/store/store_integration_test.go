package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/store"
	"kv-shepherd.io/shepherd/internal/testutil"
)

// TestDB_WithTx_CommitsAcrossStores exercises the one-transaction-per-use-case
// pattern end to end against a migrated schema: a workspace, project, and
// environment are created under a single Tx, committed, then read back both
// through a fresh transaction and through ReadTx's pool-bound handle.
func TestDB_WithTx_CommitsAcrossStores(t *testing.T) {
	pool := testutil.OpenPGXPool(t, t.Name())
	db := store.NewDB(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	ws := store.Workspace{ID: "ws_1", Name: "Acme", CreatedAt: now, UpdatedAt: now}
	proj := store.Project{ID: "proj_1", WorkspaceID: ws.ID, Name: "payments", CreatedAt: now, UpdatedAt: now}
	env := store.Environment{ID: "env_1", ProjectID: proj.ID, Name: "production", Order: 0, CreatedAt: now, UpdatedAt: now}

	err := db.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := tx.Workspaces.Create(ctx, ws); err != nil {
			return err
		}
		if err := tx.Projects.Create(ctx, proj); err != nil {
			return err
		}
		return tx.Environments.Create(ctx, env)
	})
	require.NoError(t, err)

	got, err := db.ReadTx().Environments.GetByID(ctx, env.ID)
	require.NoError(t, err)
	require.Equal(t, env.Name, got.Name)
	require.Equal(t, proj.ID, got.ProjectID)

	projects, err := db.ReadTx().Projects.ListByWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, proj.Name, projects[0].Name)
}

// TestDB_WithTx_RollsBackOnError confirms a failing use case leaves no
// partial row behind: the workspace insert inside the failing transaction
// must not be visible afterward.
func TestDB_WithTx_RollsBackOnError(t *testing.T) {
	pool := testutil.OpenPGXPool(t, t.Name())
	db := store.NewDB(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	ws := store.Workspace{ID: "ws_rollback", Name: "Doomed", CreatedAt: now, UpdatedAt: now}
	boom := apperrors.BadRequest("simulated use case failure")

	err := db.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := tx.Workspaces.Create(ctx, ws); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = db.ReadTx().Workspaces.GetByID(ctx, ws.ID)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.KindNotFound, appErr.Kind)
}

// TestWorkspaceStore_Delete_CascadesToProjects verifies the foreign-key
// cascade the migration relies on instead of application-level fan-out
// deletes: removing a workspace must remove its projects with it.
func TestWorkspaceStore_Delete_CascadesToProjects(t *testing.T) {
	pool := testutil.OpenPGXPool(t, t.Name())
	db := store.NewDB(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	ws := store.Workspace{ID: "ws_cascade", Name: "Cascading", CreatedAt: now, UpdatedAt: now}
	proj := store.Project{ID: "proj_cascade", WorkspaceID: ws.ID, Name: "api", CreatedAt: now, UpdatedAt: now}

	err := db.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := tx.Workspaces.Create(ctx, ws); err != nil {
			return err
		}
		return tx.Projects.Create(ctx, proj)
	})
	require.NoError(t, err)

	err = db.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		return tx.Workspaces.Delete(ctx, ws.ID)
	})
	require.NoError(t, err)

	_, err = db.ReadTx().Projects.GetByID(ctx, proj.ID)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.KindNotFound, appErr.Kind)
}
