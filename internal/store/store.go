// Package store implements the transactional, typed persistence layer
// spec.md §4.3 calls "Stores": narrow, typed operations per entity, with
// no cross-entity invariant checking — that responsibility belongs to
// configsvc and proposal. Every use case opens exactly one pgx
// transaction and builds a Tx bundling every store handle bound to it,
// per the "transaction struct" design note in spec.md §9.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx's connection-like interface every store
// needs. It is satisfied by both *pgxpool.Pool (read-mostly access, e.g.
// ReplicaService) and pgx.Tx (use-case-scoped writes), so a store's
// methods work unmodified whether they are bound to a transaction or not.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Tx bundles every store handle against one active Querier (almost
// always a pgx.Tx). Use cases obtain exactly one Tx per request via
// DB.WithTx and pass it to ConfigService/ProposalService rather than
// resolving stores from a container, per spec.md §9.
type Tx struct {
	Workspaces            *WorkspaceStore
	WorkspaceMembers      *WorkspaceMemberStore
	Projects              *ProjectStore
	ProjectUsers          *ProjectUserStore
	Environments          *EnvironmentStore
	Configs               *ConfigStore
	ConfigUsers           *ConfigUserStore
	ConfigVersions        *ConfigVersionStore
	ConfigVariants        *ConfigVariantStore
	ConfigVariantVersions *ConfigVariantVersionStore
	ConfigProposals       *ConfigProposalStore
	AdminAPIKeys          *AdminAPIKeyStore
	SDKKeys               *SDKKeyStore
	AuditLogs             *AuditLogStore

	pgTx pgx.Tx
}

// NewTx builds a Tx bundling every store bound to q.
func NewTx(q Querier) *Tx {
	return &Tx{
		Workspaces:            &WorkspaceStore{q: q},
		WorkspaceMembers:      &WorkspaceMemberStore{q: q},
		Projects:              &ProjectStore{q: q},
		ProjectUsers:          &ProjectUserStore{q: q},
		Environments:          &EnvironmentStore{q: q},
		Configs:               &ConfigStore{q: q},
		ConfigUsers:           &ConfigUserStore{q: q},
		ConfigVersions:        &ConfigVersionStore{q: q},
		ConfigVariants:        &ConfigVariantStore{q: q},
		ConfigVariantVersions: &ConfigVariantVersionStore{q: q},
		ConfigProposals:       &ConfigProposalStore{q: q},
		AdminAPIKeys:          &AdminAPIKeyStore{q: q},
		SDKKeys:               &SDKKeyStore{q: q},
		AuditLogs:             &AuditLogStore{q: q},
	}
}

// DB wraps the shared connection pool and builds per-request Tx values.
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB wraps an existing pool.
func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{Pool: pool}
}

// WithTx begins a pgx transaction, builds a Tx bound to it, runs fn, and
// commits on success or rolls back on error/panic. This is the one
// transaction-per-use-case pattern spec.md §4.3/§9 requires.
func (d *DB) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	pgTx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = pgTx.Rollback(ctx)
		}
	}()

	tx := NewTx(pgTx)
	tx.pgTx = pgTx

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReadTx builds a Tx bound directly to the pool, for read-only access
// that doesn't need transactional isolation (e.g. ReplicaService).
func (d *DB) ReadTx() *Tx {
	return NewTx(d.Pool)
}
