// Package proposal implements ProposalService: the review workflow
// layered on top of ConfigService (spec.md §4.7). A proposal is an
// immutable intent anchored to a base config version; approving one
// applies the captured change through configsvc and then rejects every
// other pending proposal against the same config, so no stale proposal
// ever survives an edit.
//
// This package imports configsvc (to apply an approved proposal) but is
// never imported back by it — the usecase layer is the one place both
// are wired together, for direct edits that must also reject stale
// proposals.
package proposal

import (
	"kv-shepherd.io/shepherd/internal/audit"
	"kv-shepherd.io/shepherd/internal/configsvc"
	"kv-shepherd.io/shepherd/internal/jsonschema"
	"kv-shepherd.io/shepherd/internal/pkg/clock"
)

// ReasonRejectedExplicitly is recorded when a reviewer explicitly
// declines a proposal.
const ReasonRejectedExplicitly = "rejected_explicitly"

// ReasonRejectedByConfigEdit is recorded when an edit elsewhere makes a
// pending proposal's base version stale (spec.md §4.7).
const ReasonRejectedByConfigEdit = "rejected_by_config_edit"

// Service implements ProposalService.
type Service struct {
	clock     clock.Clock
	validator *jsonschema.Validator
	configs   *configsvc.Service
	audit     *audit.Logger
}

// New returns a ready-to-use Service.
func New(c clock.Clock, v *jsonschema.Validator, configs *configsvc.Service, a *audit.Logger) *Service {
	return &Service{clock: c, validator: v, configs: configs, audit: a}
}

func ref(s string) *string { return &s }
