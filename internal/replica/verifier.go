// Package replica implements the hot read path: ReplicaService resolves
// a project+environment's config list for the SDK, and SDKVerifier
// authenticates the bearer token in front of it (spec.md §4.8).
//
// The only process-wide mutable state in this codebase lives here: an
// in-process, single-tier LRU keyed by raw token, with futures instead
// of values so
// concurrent verifications of the same token share one round-trip.
package replica

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"kv-shepherd.io/shepherd/internal/hashing"
	"kv-shepherd.io/shepherd/internal/identity"
	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/pkg/worker"
	"kv-shepherd.io/shepherd/internal/store"
	"kv-shepherd.io/shepherd/internal/tokencodec"
)

// VerifiedKey is the result of a successful verification. Exactly one of
// Identity (admin key) or ProjectID/EnvironmentID (SDK key) is set,
// discriminated by IsAdmin.
type VerifiedKey struct {
	IsAdmin       bool
	Identity      identity.Identity
	ProjectID     string
	EnvironmentID string
}

// future is a single in-flight or completed verification, shared by
// every concurrent caller that looks up the same token while it is
// pending.
type future struct {
	done       chan struct{}
	insertedAt time.Time
	result     VerifiedKey
	err        error // non-nil means "invalid token" or a lookup failure
}

// SDKVerifier authenticates admin-API-key and SDK-key bearer tokens
// against an LRU of in-flight/completed futures (spec.md §4.8). Entries
// older than TTL are treated as misses and recomputed; a failed future
// is evicted immediately rather than cached, so a transient store error
// never poisons the cache for the TTL window.
type SDKVerifier struct {
	cache   *lru.Cache[string, *future]
	mu      sync.Mutex
	ttl     time.Duration
	db      *store.DB
	hashing *hashing.Service
	pools   *worker.Pools
}

// NewSDKVerifier builds a verifier with a bounded LRU of size cacheSize
// and the given TTL (default 60s; see replica.verifier_cache_size and
// replica.verifier_ttl in configuration).
func NewSDKVerifier(db *store.DB, h *hashing.Service, pools *worker.Pools, cacheSize int, ttl time.Duration) (*SDKVerifier, error) {
	c, err := lru.New[string, *future](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("build verifier cache: %w", err)
	}
	return &SDKVerifier{cache: c, ttl: ttl, db: db, hashing: h, pools: pools}, nil
}

// Verify authenticates token, returning the resolved identity/binding or
// a Forbidden AppError. Concurrent callers for the same still-pending
// token block on the same underlying verification rather than each
// issuing their own store round-trip.
func (v *SDKVerifier) Verify(ctx context.Context, token string) (VerifiedKey, error) {
	f, owner := v.claim(token)
	if owner {
		f.result, f.err = v.doVerify(ctx, token)
		close(f.done)
		if f.err != nil {
			v.mu.Lock()
			if cur, ok := v.cache.Peek(token); ok && cur == f {
				v.cache.Remove(token)
			}
			v.mu.Unlock()
		}
		return f.result, f.err
	}

	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return VerifiedKey{}, ctx.Err()
	}
}

// claim returns the future for token, creating and inserting one if none
// exists or the existing one has aged past TTL. owner reports whether
// the caller is responsible for running doVerify and closing done.
func (v *SDKVerifier) claim(token string) (f *future, owner bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if existing, ok := v.cache.Get(token); ok {
		if time.Since(existing.insertedAt) < v.ttl {
			return existing, false
		}
		v.cache.Remove(token)
	}

	f = &future{done: make(chan struct{}), insertedAt: time.Now()}
	v.cache.Add(token, f)
	return f, true
}

func (v *SDKVerifier) doVerify(ctx context.Context, token string) (VerifiedKey, error) {
	prefix, id, _, err := tokencodec.Parse(token)
	if err != nil {
		return VerifiedKey{}, apperrors.Forbidden("malformed bearer token")
	}

	tx := v.db.ReadTx()
	switch prefix {
	case tokencodec.PrefixAdminKey:
		return v.verifyAdminKey(ctx, tx, id.String(), token)
	case tokencodec.PrefixSDKKey:
		return v.verifySDKKey(ctx, tx, id.String(), token)
	default:
		return VerifiedKey{}, apperrors.Forbidden("unrecognized token prefix")
	}
}

func (v *SDKVerifier) verifyAdminKey(ctx context.Context, tx *store.Tx, id, token string) (VerifiedKey, error) {
	key, err := tx.AdminAPIKeys.GetByID(ctx, id)
	if err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Kind == apperrors.KindNotFound {
			return VerifiedKey{}, apperrors.Forbidden("invalid api key")
		}
		return VerifiedKey{}, err
	}
	ok, err := v.hashing.Verify(key.KeyHash, token)
	if err != nil {
		return VerifiedKey{}, err
	}
	if !ok {
		return VerifiedKey{}, apperrors.Forbidden("invalid api key")
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now().UTC()) {
		return VerifiedKey{}, apperrors.Forbidden("api key has expired")
	}

	if v.pools != nil {
		keyID := key.ID
		_ = v.pools.SubmitDetached(func(bgCtx context.Context) {
			_ = tx.AdminAPIKeys.TouchLastUsed(bgCtx, keyID, time.Now().UTC())
		})
	}

	scopes := make([]identity.Scope, 0, len(key.Scopes))
	for _, s := range key.Scopes {
		scopes = append(scopes, identity.Scope(s))
	}
	return VerifiedKey{
		IsAdmin: true,
		Identity: identity.ApiKey{
			ID:          key.ID,
			WorkspaceID: key.WorkspaceID,
			ProjectIDs:  key.ProjectIDs,
			Scopes:      scopes,
		},
	}, nil
}

func (v *SDKVerifier) verifySDKKey(ctx context.Context, tx *store.Tx, id, token string) (VerifiedKey, error) {
	key, err := tx.SDKKeys.GetByID(ctx, id)
	if err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Kind == apperrors.KindNotFound {
			return VerifiedKey{}, apperrors.Forbidden("invalid sdk key")
		}
		return VerifiedKey{}, err
	}
	ok, err := v.hashing.Verify(key.KeyHash, token)
	if err != nil {
		return VerifiedKey{}, err
	}
	if !ok {
		return VerifiedKey{}, apperrors.Forbidden("invalid sdk key")
	}

	return VerifiedKey{ProjectID: key.ProjectID, EnvironmentID: key.EnvironmentID}, nil
}
