package controller

import (
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// IdentityController 外部身份（GitHub 访问令牌）的关联与解除
type IdentityController struct {
	IdentityService *service.IdentityService
}

func NewIdentityController(identityService *service.IdentityService) *IdentityController {
	return &IdentityController{IdentityService: identityService}
}

// LinkIdentityRequest 外部平台访问令牌
// swagger:model LinkIdentityRequest
type LinkIdentityRequest struct {
	Token string `json:"token" binding:"required"`
}

// ListIdentities godoc
// @Summary 已关联的外部身份
// @Tags 身份
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.LinkedIdentity}
// @Router /api/identities [get]
func (c *IdentityController) ListIdentities(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	identities, err := c.IdentityService.List(ctx.Request.Context(), learnerID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, identities)
}

// LinkIdentity godoc
// @Summary 关联外部身份
// @Tags 身份
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param provider path string true "github"
// @Param request body LinkIdentityRequest true "访问令牌"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/identities/{provider} [put]
func (c *IdentityController) LinkIdentity(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	var req LinkIdentityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.IdentityService.Link(ctx.Request.Context(), learnerID, ctx.Param("provider"), req.Token); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UnlinkIdentity godoc
// @Summary 解除外部身份
// @Tags 身份
// @Produce json
// @Security ApiKeyAuth
// @Param provider path string true "github"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "未关联"
// @Router /api/identities/{provider} [delete]
func (c *IdentityController) UnlinkIdentity(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	if err := c.IdentityService.Unlink(ctx.Request.Context(), learnerID, ctx.Param("provider")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
