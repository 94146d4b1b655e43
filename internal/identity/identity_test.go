package identity

import (
	"context"
	"testing"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
)

func TestApiKeyHasProjectAccess_AllProjects(t *testing.T) {
	key := ApiKey{WorkspaceID: "ws-1", ProjectIDs: nil}
	if !key.HasProjectAccess(ProjectRef{ID: "p-1", WorkspaceID: "ws-1"}) {
		t.Fatal("nil ProjectIDs should mean access to all projects in the workspace")
	}
	if key.HasProjectAccess(ProjectRef{ID: "p-1", WorkspaceID: "ws-2"}) {
		t.Fatal("cross-workspace access must be denied regardless of ProjectIDs")
	}
}

func TestApiKeyHasProjectAccess_Restricted(t *testing.T) {
	key := ApiKey{WorkspaceID: "ws-1", ProjectIDs: []string{"p-1"}}
	if !key.HasProjectAccess(ProjectRef{ID: "p-1", WorkspaceID: "ws-1"}) {
		t.Fatal("p-1 should be accessible")
	}
	if key.HasProjectAccess(ProjectRef{ID: "p-2", WorkspaceID: "ws-1"}) {
		t.Fatal("p-2 should not be accessible")
	}
}

func TestApiKeyHasScope_ProjectWriteImpliesConfigWrite(t *testing.T) {
	key := ApiKey{Scopes: []Scope{ScopeProjectWrite}}
	if !key.HasScope(ScopeConfigWrite) {
		t.Fatal("project:write should imply config:write")
	}
	if !key.HasScope(ScopeConfigRead) {
		t.Fatal("project:write should imply config:read")
	}
	if key.HasScope(ScopeMemberWrite) {
		t.Fatal("project:write should not imply member:write")
	}
}

func TestApiKeyHasScope_ConfigWriteImpliesConfigRead(t *testing.T) {
	key := ApiKey{Scopes: []Scope{ScopeConfigWrite}}
	if !key.HasScope(ScopeConfigRead) {
		t.Fatal("config:write should imply config:read")
	}
}

func TestRequireUser(t *testing.T) {
	u := User{ID: "u-1", Email: "a@example.com"}
	got, err := RequireUser(u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "u-1" {
		t.Fatalf("got %q", got.ID)
	}

	_, err = RequireUser(ApiKey{ID: "k-1"})
	if err == nil {
		t.Fatal("expected forbidden error for API key")
	}
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind != apperrors.KindForbidden {
		t.Fatalf("expected Forbidden AppError, got %v", err)
	}
}

func TestSuperuserBypassesEverything(t *testing.T) {
	su := Superuser{}
	if !su.HasScope(ScopeMemberWrite) {
		t.Fatal("superuser must satisfy any scope")
	}
	if !su.HasProjectAccess(ProjectRef{ID: "p-1", WorkspaceID: "ws-1"}) {
		t.Fatal("superuser must satisfy any project access check")
	}
}

func TestContextRoundTrip(t *testing.T) {
	u := User{ID: "u-1"}
	ctx := WithIdentity(context.Background(), u)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected identity in context")
	}
	if got.Kind() != KindUser {
		t.Fatalf("got kind %v", got.Kind())
	}
}
