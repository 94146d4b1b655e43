package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/proposal"
	"kv-shepherd.io/shepherd/internal/usecase"
)

type proposedVariantRequest struct {
	EnvironmentID string          `json:"environmentId" binding:"required"`
	Value         json.RawMessage `json:"value"`
	Schema        json.RawMessage `json:"schema"`
	UseBaseSchema bool            `json:"useBaseSchema"`
	Overrides     json.RawMessage `json:"overrides"`
}

func toProposedVariants(in []proposedVariantRequest) []proposal.ProposedVariant {
	out := make([]proposal.ProposedVariant, 0, len(in))
	for _, v := range in {
		out = append(out, proposal.ProposedVariant{
			EnvironmentID: v.EnvironmentID, Value: v.Value, Schema: v.Schema,
			UseBaseSchema: v.UseBaseSchema, Overrides: v.Overrides,
		})
	}
	return out
}

type createProposalRequest struct {
	Message             *string                  `json:"message"`
	ExpectedBaseVersion int64                    `json:"expectedBaseVersion" binding:"required"`
	IsDelete            bool                     `json:"isDelete"`
	Description         string                   `json:"description"`
	Value               json.RawMessage          `json:"value"`
	Schema              json.RawMessage          `json:"schema"`
	Overrides           json.RawMessage          `json:"overrides"`
	Members             []memberRequest          `json:"members"`
	Variants            []proposedVariantRequest `json:"variants"`
}

// CreateProposal handles POST /api/v1/configs/:configId/proposals.
func (a *API) CreateProposal(c *gin.Context) {
	var req createProposalRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := a.UC.CreateProposal(c.Request.Context(), usecase.CreateProposalInput{
		ConfigID: c.Param("configId"), Message: req.Message, ExpectedBaseVersion: req.ExpectedBaseVersion,
		IsDelete: req.IsDelete, Description: req.Description, Value: req.Value, Schema: req.Schema,
		Overrides: req.Overrides, Members: toMemberInputs(req.Members), Variants: toProposedVariants(req.Variants),
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, p)
}

// ApproveProposal handles POST /api/v1/proposals/:proposalId/approve.
func (a *API) ApproveProposal(c *gin.Context) {
	p, err := a.UC.ApproveProposal(c.Request.Context(), c.Param("proposalId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

type rejectProposalRequest struct {
	Reason string `json:"reason"`
}

// RejectProposal handles POST /api/v1/proposals/:proposalId/reject.
func (a *API) RejectProposal(c *gin.Context) {
	var req rejectProposalRequest
	_ = c.ShouldBindJSON(&req)
	p, err := a.UC.RejectProposal(c.Request.Context(), c.Param("proposalId"), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

// ListProposals handles GET /api/v1/configs/:configId/proposals.
func (a *API) ListProposals(c *gin.Context) {
	proposals, err := a.UC.ListProposals(c.Request.Context(), c.Param("configId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, proposals)
}

// GetProposal handles GET /api/v1/proposals/:proposalId.
func (a *API) GetProposal(c *gin.Context) {
	p, err := a.UC.GetProposal(c.Request.Context(), c.Param("proposalId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}
