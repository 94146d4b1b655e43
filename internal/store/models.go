package store

import "time"

// Workspace is the top-level tenant container (spec.md §3).
type Workspace struct {
	ID              string
	Name            string
	AutoAddNewUsers bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WorkspaceMemberRole is the closed role set for workspace members.
type WorkspaceMemberRole string

const (
	WorkspaceRoleAdmin  WorkspaceMemberRole = "admin"
	WorkspaceRoleMember WorkspaceMemberRole = "member"
)

// WorkspaceMember is a workspace's user roster entry.
type WorkspaceMember struct {
	ID          string
	WorkspaceID string
	Email       string
	Role        WorkspaceMemberRole
	CreatedAt   time.Time
}

// Project groups configs and environments within a workspace.
type Project struct {
	ID                  string
	WorkspaceID         string
	Name                string
	Description         string
	RequireProposals    bool
	AllowSelfApprovals  bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ProjectUserRole is the closed role set for project members.
type ProjectUserRole string

const (
	ProjectRoleAdmin      ProjectUserRole = "admin"
	ProjectRoleMaintainer ProjectUserRole = "maintainer"
)

// ProjectUser is a project's user roster entry.
type ProjectUser struct {
	ID        string
	ProjectID string
	Email     string
	Role      ProjectUserRole
	CreatedAt time.Time
}

// Environment is a named deployment context within a project.
type Environment struct {
	ID               string
	ProjectID        string
	Name             string
	Order            int
	RequireProposals bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Config is a named configuration entry owning the default variant.
type Config struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	Version     int64
	Value       []byte // canonical JSON
	Schema      []byte // canonical JSON, nil = no schema
	Overrides   []byte // canonical JSON array, nil = no overrides
	CreatorID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ConfigUserRole is the closed role set for config members.
type ConfigUserRole string

const (
	ConfigRoleEditor     ConfigUserRole = "editor"
	ConfigRoleMaintainer ConfigUserRole = "maintainer"
)

// ConfigUser is a config's user roster entry.
type ConfigUser struct {
	ID        string
	ConfigID  string
	Email     string
	Role      ConfigUserRole
	CreatedAt time.Time
}

// ConfigVersion is an immutable snapshot row written on every config edit.
type ConfigVersion struct {
	ID          string
	ConfigID    string
	Version     int64
	AuthorID    string
	ProposalID  *string
	Description string
	Value       []byte
	Schema      []byte
	Overrides   []byte
	Members     []byte // canonical JSON roster at this version
	CreatedAt   time.Time
}

// ConfigVariant is the (value, schema?, overrides) triple for one
// (config, environment) pair.
type ConfigVariant struct {
	ID            string
	ConfigID      string
	EnvironmentID string
	Version       int64
	Value         []byte
	Schema        []byte // ignored entirely when UseBaseSchema is true
	UseBaseSchema bool
	Overrides     []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ConfigVariantVersion is an immutable snapshot row for a variant edit.
type ConfigVariantVersion struct {
	ID            string
	VariantID     string
	Version       int64
	AuthorID      string
	ProposalID    *string
	Value         []byte
	Schema        []byte
	UseBaseSchema bool
	Overrides     []byte
	CreatedAt     time.Time
}

// ConfigProposal is an immutable intent to change or delete a config,
// pending approval. See spec.md §4.7 for the state machine.
type ConfigProposal struct {
	ID                            string
	ConfigID                      string
	AuthorID                      string
	ApprovedAt                    *time.Time
	RejectedAt                    *time.Time
	ReviewerID                    *string
	RejectionReason               *string
	RejectedInFavorOfProposalID   *string
	BaseConfigVersion             int64
	IsDelete                      bool
	Message                       *string
	Snapshot                      []byte // {description, value, schema, overrides, members}
	Proposed                      []byte // {description, value, schema, overrides, members}
	Variants                      []byte // [{environmentId, value, schema, overrides, useBaseSchema}]
	CreatedAt                     time.Time
	UpdatedAt                     time.Time
}

// IsTerminal reports whether the proposal has reached a sticky terminal
// state (spec.md §3: "Terminal states approved and rejected are sticky").
func (p ConfigProposal) IsTerminal() bool {
	return p.ApprovedAt != nil || p.RejectedAt != nil
}

// AdminAPIKey is a workspace-scoped bearer key for the management surface.
type AdminAPIKey struct {
	ID             string
	WorkspaceID    string
	Name           string
	Description    string
	KeyHash        string
	KeyPrefix      string
	KeySuffix      string
	CreatedByEmail string
	ExpiresAt      *time.Time
	LastUsedAt     *time.Time
	Scopes         []string
	ProjectIDs     []string // nil means "all projects in workspace"
	CreatedAt      time.Time
}

// SDKKey is a bearer key scoped to one (project, environment) config read.
type SDKKey struct {
	ID            string
	ProjectID     string
	EnvironmentID string
	Name          string
	Description   string
	KeyHash       string
	CreatedAt     time.Time
}

// AuditLog is an append-only compliance record (spec.md §3).
type AuditLog struct {
	ID        string
	UserID    *string
	ProjectID *string
	ConfigID  *string
	Payload   []byte // {type, ...}
	CreatedAt time.Time
}
