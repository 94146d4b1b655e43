// Package app wires every service package into one running instance:
// the pgx pool, the use-case layer, the SDK verifier cache, the
// background worker pool, and the Gin router, in the order
// cmd/server/main.go expects (Bootstrap, then Start, then Shutdown).
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/api/handlers"
	"kv-shepherd.io/shepherd/internal/api/middleware"
	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/config"
	"kv-shepherd.io/shepherd/internal/configsvc"
	"kv-shepherd.io/shepherd/internal/hashing"
	"kv-shepherd.io/shepherd/internal/infrastructure"
	"kv-shepherd.io/shepherd/internal/jsonschema"
	"kv-shepherd.io/shepherd/internal/permission"
	"kv-shepherd.io/shepherd/internal/pkg/clock"
	"kv-shepherd.io/shepherd/internal/pkg/logger"
	"kv-shepherd.io/shepherd/internal/pkg/worker"
	"kv-shepherd.io/shepherd/internal/proposal"
	"kv-shepherd.io/shepherd/internal/replica"
	"kv-shepherd.io/shepherd/internal/store"
	"kv-shepherd.io/shepherd/internal/tokencodec"
	"kv-shepherd.io/shepherd/internal/usecase"
)

// Application bundles every long-lived component built by Bootstrap.
type Application struct {
	Router *gin.Engine

	dbClients *infrastructure.DatabaseClients
	pools     *worker.Pools
	verifier  *replica.SDKVerifier
}

// Bootstrap constructs the full dependency graph from cfg: the
// connection pool, every service (hashing, jsonschema, configsvc,
// proposal, permission, replica + its SDKVerifier), the use-case Deps,
// and the Gin router with every route registered.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	dbClients, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{GeneralPoolSize: cfg.Worker.GeneralPoolSize})
	if err != nil {
		dbClients.Close()
		return nil, fmt.Errorf("start worker pools: %w", err)
	}

	db := store.NewDB(dbClients.Pool)
	realClock := clock.Real()
	auditLogger := audit.New(realClock)
	validator := jsonschema.New()
	hashingSvc := hashing.New(hashing.Params{
		MemoryKiB: cfg.Hashing.Argon2MemoryKiB, TimeCost: cfg.Hashing.Argon2TimeCost,
		Parallelism: cfg.Hashing.Argon2Parallelism, SaltLen: 16, KeyLen: 32,
	})
	configs := configsvc.New(realClock, validator, auditLogger)
	proposals := proposal.New(realClock, validator, configs, auditLogger)
	permissions := permission.New()
	replicaSvc := replica.New(db)
	verifier, err := replica.NewSDKVerifier(db, hashingSvc, pools, cfg.Replica.VerifierCacheSize, cfg.Replica.VerifierTTL)
	if err != nil {
		pools.Shutdown()
		dbClients.Close()
		return nil, fmt.Errorf("build sdk verifier: %w", err)
	}

	deps := &usecase.Deps{
		DB: db, Configs: configs, Proposals: proposals, Permissions: permissions,
		Replica: replicaSvc, AuditLogger: auditLogger, Hashing: hashingSvc,
	}
	api := &handlers.API{UC: deps}

	router := newRouter(cfg, api, verifier)

	return &Application{Router: router, dbClients: dbClients, pools: pools, verifier: verifier}, nil
}

func newRouter(cfg *config.Config, api *handlers.API, verifier *replica.SDKVerifier) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: cfg.Server.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	if cfg.Server.UnsafeAllowAllOrigins {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	jwtCfg := middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.SessionSecret),
		Issuer:     cfg.Security.JWTIssuer,
		ExpiresIn:  cfg.Security.JWTExpiresIn,
		Leeway:     cfg.Security.JWTLeeway,
	}
	sessionAuth := middleware.JWTAuthWithConfig(jwtCfg)
	keyAuth := middleware.BearerKeyAuth(verifier)

	v1 := r.Group("/api/v1")
	v1.Use(sessionAuthOrAdminKey(sessionAuth, keyAuth))
	registerManagementRoutes(v1, api)

	sdk := r.Group("/sdk/v1")
	sdk.Use(keyAuth)
	sdk.GET("/configs", api.GetSDKConfigs)

	return r
}

// sessionAuthOrAdminKey lets the management surface accept either a
// session JWT (identity.User) or an admin API key (identity.ApiKey) on
// the same routes (spec.md §4.1: most operations accept either, with
// individual use cases refusing API keys where the spec requires a
// user). It tries the admin-key prefix first since that's unambiguous
// from the token shape; anything else falls through to session auth.
func sessionAuthOrAdminKey(sessionAuth, keyAuth gin.HandlerFunc) gin.HandlerFunc {
	adminPrefix := "Bearer " + tokencodec.PrefixAdminKey + "_"
	return func(c *gin.Context) {
		if strings.HasPrefix(c.GetHeader("Authorization"), adminPrefix) {
			keyAuth(c)
			return
		}
		sessionAuth(c)
	}
}

func registerManagementRoutes(g *gin.RouterGroup, api *handlers.API) {
	g.POST("/workspaces", api.CreateWorkspace)
	g.PATCH("/workspaces/:workspaceId", api.UpdateWorkspace)
	g.DELETE("/workspaces/:workspaceId", api.DeleteWorkspace)
	g.GET("/workspaces/:workspaceId/members", api.ListWorkspaceMembers)
	g.POST("/workspaces/:workspaceId/members", api.AddWorkspaceMember)
	g.PATCH("/workspaces/:workspaceId/members/:memberId", api.UpdateWorkspaceMemberRole)
	g.DELETE("/workspaces/:workspaceId/members/:memberId", api.RemoveWorkspaceMember)
	g.DELETE("/workspaces/:workspaceId/account", api.DeleteUserAccount)

	g.POST("/workspaces/:workspaceId/admin-api-keys", api.CreateAdminAPIKey)
	g.GET("/workspaces/:workspaceId/admin-api-keys", api.ListAdminAPIKeys)
	g.DELETE("/workspaces/:workspaceId/admin-api-keys/:keyId", api.DeleteAdminAPIKey)

	g.POST("/workspaces/:workspaceId/projects", api.CreateProject)
	g.GET("/workspaces/:workspaceId/projects", api.ListProjects)
	g.GET("/projects/:projectId", api.GetProject)
	g.PATCH("/projects/:projectId", api.UpdateProject)
	g.DELETE("/projects/:projectId", api.DeleteProject)

	g.GET("/projects/:projectId/users", api.ListProjectUsers)
	g.POST("/projects/:projectId/users", api.AddProjectUser)
	g.PATCH("/projects/:projectId/users/:userId", api.UpdateProjectUserRole)
	g.DELETE("/projects/:projectId/users/:userId", api.RemoveProjectUser)

	g.GET("/projects/:projectId/environments", api.ListEnvironments)
	g.POST("/projects/:projectId/environments", api.CreateEnvironment)
	g.PATCH("/environments/:environmentId", api.UpdateEnvironment)
	g.DELETE("/environments/:environmentId", api.DeleteEnvironment)

	g.GET("/projects/:projectId/sdk-keys", api.ListSDKKeys)
	g.POST("/projects/:projectId/sdk-keys", api.CreateSDKKey)
	g.PATCH("/sdk-keys/:sdkKeyId", api.UpdateSDKKey)
	g.DELETE("/sdk-keys/:sdkKeyId", api.DeleteSDKKey)

	g.GET("/projects/:projectId/configs", api.ListConfigs)
	g.POST("/projects/:projectId/configs", api.CreateConfig)
	g.GET("/configs/:configId", api.GetConfig)
	g.PATCH("/configs/:configId", api.UpdateConfig)
	g.DELETE("/configs/:configId", api.DeleteConfig)
	g.GET("/configs/:configId/versions", api.ListConfigVersions)
	g.POST("/configs/:configId/versions/restore", api.RestoreConfigVersion)
	g.GET("/variants/:variantId/versions", api.ListVariantVersions)
	g.POST("/variants/:variantId/versions/restore", api.RestoreVariantVersion)

	g.GET("/configs/:configId/proposals", api.ListProposals)
	g.POST("/configs/:configId/proposals", api.CreateProposal)
	g.GET("/proposals/:proposalId", api.GetProposal)
	g.POST("/proposals/:proposalId/approve", api.ApproveProposal)
	g.POST("/proposals/:proposalId/reject", api.RejectProposal)

	g.GET("/projects/:projectId/audit-logs", api.ListAuditLogsByProject)
	g.GET("/configs/:configId/audit-logs", api.ListAuditLogsByConfig)
}

// Start runs any background services an Application needs once the
// dependency graph is built. Presently a no-op: the worker pool starts
// accepting submissions as soon as NewPools returns, and SDKVerifier's
// LRU warms lazily on first use.
func (a *Application) Start(ctx context.Context) error {
	return nil
}

// Shutdown releases the worker pool and connection pool. Safe to call
// even if Bootstrap failed partway, since both fields are left nil in
// that case and never dereferenced here.
func (a *Application) Shutdown() {
	if a.pools != nil {
		a.pools.Shutdown()
	}
	if a.dbClients != nil {
		a.dbClients.Close()
	}
	logger.Info("application shut down")
}
