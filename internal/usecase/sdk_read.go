package usecase

import (
	"context"

	apperrors "kv-shepherd.io/shepherd/internal/pkg/errors"
	"kv-shepherd.io/shepherd/internal/replica"
)

// GetSDKConfigs serves the SDK-facing config read (spec.md §4.8). The
// caller is an SDK key, not an identity.Identity — its binding comes
// straight out of replica.SDKVerifier.Verify, not the request context —
// so this enforces that the requested (projectId, environmentId) match
// the key's binding before delegating to ReplicaService.
func (d *Deps) GetSDKConfigs(ctx context.Context, boundProjectID, boundEnvironmentID, requestedProjectID, requestedEnvironmentID string) ([]replica.ResolvedConfig, error) {
	if requestedProjectID != boundProjectID || requestedEnvironmentID != boundEnvironmentID {
		return nil, apperrors.Forbidden("sdk key is not bound to the requested project/environment")
	}
	return d.Replica.GetProjectConfigs(ctx, boundProjectID, boundEnvironmentID)
}
