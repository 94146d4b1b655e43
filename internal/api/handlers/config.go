package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"kv-shepherd.io/shepherd/internal/configsvc"
	"kv-shepherd.io/shepherd/internal/store"
	"kv-shepherd.io/shepherd/internal/usecase"
)

type memberRequest struct {
	Email string                `json:"email" binding:"required"`
	Role  store.ConfigUserRole  `json:"role" binding:"required"`
}

func toMemberInputs(in []memberRequest) []configsvc.MemberInput {
	out := make([]configsvc.MemberInput, 0, len(in))
	for _, m := range in {
		out = append(out, configsvc.MemberInput{Email: m.Email, Role: m.Role})
	}
	return out
}

type variantRequest struct {
	EnvironmentID string          `json:"environmentId" binding:"required"`
	Value         json.RawMessage `json:"value"`
	Schema        json.RawMessage `json:"schema"`
	UseBaseSchema bool            `json:"useBaseSchema"`
	Overrides     json.RawMessage `json:"overrides"`
}

func toVariantInputs(in []variantRequest) []configsvc.VariantInput {
	out := make([]configsvc.VariantInput, 0, len(in))
	for _, v := range in {
		out = append(out, configsvc.VariantInput{
			EnvironmentID: v.EnvironmentID, Value: v.Value, Schema: v.Schema,
			UseBaseSchema: v.UseBaseSchema, Overrides: v.Overrides,
		})
	}
	return out
}

type createConfigRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Value       json.RawMessage `json:"value" binding:"required"`
	Schema      json.RawMessage `json:"schema"`
	Overrides   json.RawMessage `json:"overrides"`
	Members     []memberRequest `json:"members"`
}

// CreateConfig handles POST /api/v1/projects/:projectId/configs.
func (a *API) CreateConfig(c *gin.Context) {
	var req createConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := a.UC.CreateConfig(c.Request.Context(), usecase.CreateConfigInput{
		ProjectID: c.Param("projectId"), Name: req.Name, Description: req.Description,
		Value: req.Value, Schema: req.Schema, Overrides: req.Overrides,
		Members: toMemberInputs(req.Members),
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, cfg)
}

// GetConfig handles GET /api/v1/configs/:configId.
func (a *API) GetConfig(c *gin.Context) {
	cfg, err := a.UC.GetConfig(c.Request.Context(), c.Param("configId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, cfg)
}

// ListConfigs handles GET /api/v1/projects/:projectId/configs.
func (a *API) ListConfigs(c *gin.Context) {
	configs, err := a.UC.ListConfigs(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, configs)
}

type updateConfigRequest struct {
	PrevVersion int64 `json:"prevVersion" binding:"required"`

	SetDescription bool            `json:"setDescription"`
	Description    string          `json:"description"`
	SetValue       bool            `json:"setValue"`
	Value          json.RawMessage `json:"value"`
	SetSchema      bool            `json:"setSchema"`
	Schema         json.RawMessage `json:"schema"`
	SetOverrides   bool            `json:"setOverrides"`
	Overrides      json.RawMessage `json:"overrides"`
	SetMembers     bool            `json:"setMembers"`
	Members        []memberRequest `json:"members"`
	Variants       []variantRequest `json:"variants"`
}

// UpdateConfig handles PATCH /api/v1/configs/:configId.
func (a *API) UpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := a.UC.UpdateConfig(c.Request.Context(), usecase.UpdateConfigInput{
		ConfigID: c.Param("configId"), PrevVersion: req.PrevVersion,
		SetDescription: req.SetDescription, Description: req.Description,
		SetValue: req.SetValue, Value: req.Value,
		SetSchema: req.SetSchema, Schema: req.Schema,
		SetOverrides: req.SetOverrides, Overrides: req.Overrides,
		SetMembers: req.SetMembers, Members: toMemberInputs(req.Members),
		Variants: toVariantInputs(req.Variants),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, cfg)
}

// DeleteConfig handles DELETE /api/v1/configs/:configId.
func (a *API) DeleteConfig(c *gin.Context) {
	cfg, err := a.UC.DeleteConfig(c.Request.Context(), c.Param("configId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, cfg)
}

// ListConfigVersions handles GET /api/v1/configs/:configId/versions.
func (a *API) ListConfigVersions(c *gin.Context) {
	versions, err := a.UC.ListConfigVersions(c.Request.Context(), c.Param("configId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, versions)
}

// ListVariantVersions handles GET /api/v1/variants/:variantId/versions.
func (a *API) ListVariantVersions(c *gin.Context) {
	versions, err := a.UC.ListVariantVersions(c.Request.Context(), c.Param("variantId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, versions)
}

type restoreVersionRequest struct {
	Version int64 `json:"version" binding:"required"`
}

// RestoreConfigVersion handles POST
// /api/v1/configs/:configId/versions/restore.
func (a *API) RestoreConfigVersion(c *gin.Context) {
	var req restoreVersionRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := a.UC.RestoreConfigVersion(c.Request.Context(), c.Param("configId"), req.Version)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, cfg)
}

// RestoreVariantVersion handles POST
// /api/v1/variants/:variantId/versions/restore.
func (a *API) RestoreVariantVersion(c *gin.Context) {
	var req restoreVersionRequest
	if !bindJSON(c, &req) {
		return
	}
	variant, err := a.UC.RestoreVariantVersion(c.Request.Context(), c.Param("variantId"), req.Version)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, variant)
}
