// Package identity implements the tagged-principal model shared by every
// request the control plane handles: an authenticated human (User), a
// workspace-scoped admin API key (ApiKey), or the instance-wide operational
// bypass (Superuser). It is a sum type in spirit — a closed set of
// variants distinguished by Kind() — rather than a class hierarchy, so
// callers are forced to switch on Kind rather than relying on virtual
// dispatch for authorization-sensitive code.
package identity

import apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"

// Kind discriminates the Identity variants.
type Kind string

const (
	KindUser      Kind = "user"
	KindAPIKey    Kind = "api_key"
	KindSuperuser Kind = "superuser"
)

// Scope is a capability token attached to an admin API key.
type Scope string

const (
	ScopeProjectRead     Scope = "project:read"
	ScopeProjectWrite    Scope = "project:write"
	ScopeConfigRead      Scope = "config:read"
	ScopeConfigWrite     Scope = "config:write"
	ScopeEnvironmentRead Scope = "environment:read"
	ScopeEnvWrite        Scope = "environment:write"
	ScopeSDKKeyRead      Scope = "sdk_key:read"
	ScopeSDKKeyWrite     Scope = "sdk_key:write"
	ScopeMemberRead      Scope = "member:read"
	ScopeMemberWrite     Scope = "member:write"
)

// AllScopes is the closed set accepted when minting or validating an
// AdminApiKey's scope list.
var AllScopes = []Scope{
	ScopeProjectRead, ScopeProjectWrite,
	ScopeConfigRead, ScopeConfigWrite,
	ScopeEnvironmentRead, ScopeEnvWrite,
	ScopeSDKKeyRead, ScopeSDKKeyWrite,
	ScopeMemberRead, ScopeMemberWrite,
}

// IsValidScope reports whether s belongs to the closed scope set.
func IsValidScope(s Scope) bool {
	for _, known := range AllScopes {
		if known == s {
			return true
		}
	}
	return false
}

// ProjectRef is the minimal project shape PermissionService needs to
// evaluate hasProjectAccess without pulling in the store package.
type ProjectRef struct {
	ID          string
	WorkspaceID string
}

// Identity is the tagged union of request principals.
type Identity interface {
	Kind() Kind

	// HasScope reports whether the identity carries the given scope.
	// Users and Superuser always report true: scope checks only gate
	// API keys, per spec.md §4.1 ("Certain operations require a user
	// identity").
	HasScope(scope Scope) bool

	// HasProjectAccess reports whether the identity may act on project p
	// at all (before any role-based checks are applied).
	HasProjectAccess(p ProjectRef) bool
}

// User is an authenticated human principal.
type User struct {
	ID    string
	Email string
	Name  string
}

func (User) Kind() Kind                            { return KindUser }
func (User) HasScope(Scope) bool                   { return true }
func (User) HasProjectAccess(ProjectRef) bool       { return true }

// ApiKey is a workspace-scoped admin API key principal.
//
// ProjectIDs == nil means "all projects in the workspace"; spec.md §4.1.
type ApiKey struct {
	ID          string
	WorkspaceID string
	ProjectIDs  []string
	Scopes      []Scope
}

func (a ApiKey) Kind() Kind { return KindAPIKey }

func (a ApiKey) HasScope(scope Scope) bool {
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
		// project:write implies config:write/read for that project, per
		// spec.md §4.4's note on API-key scope implication.
		if s == ScopeProjectWrite && (scope == ScopeConfigWrite || scope == ScopeConfigRead) {
			return true
		}
		if s == ScopeConfigWrite && scope == ScopeConfigRead {
			return true
		}
	}
	return false
}

func (a ApiKey) HasProjectAccess(p ProjectRef) bool {
	if p.WorkspaceID != a.WorkspaceID {
		return false
	}
	if a.ProjectIDs == nil {
		return true
	}
	for _, id := range a.ProjectIDs {
		if id == p.ID {
			return true
		}
	}
	return false
}

// Superuser is the instance-wide operational bypass. It is never derived
// from an HTTP request; operational tooling constructs it directly.
type Superuser struct{}

func (Superuser) Kind() Kind                      { return KindSuperuser }
func (Superuser) HasScope(Scope) bool             { return true }
func (Superuser) HasProjectAccess(ProjectRef) bool { return true }

// RequireUser returns the normalized User out of id, or a Forbidden
// AppError when id is not a user — the gate used by operations that spec.md
// §4.1 marks "requires a user identity" (workspace creation, account
// deletion, project-user role changes, some restores).
func RequireUser(id Identity) (User, error) {
	u, ok := id.(User)
	if !ok {
		return User{}, apperrors.Forbidden("this operation requires an authenticated user, not an API key")
	}
	return u, nil
}
