package controller

import (
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// GetDashboard godoc
// @Summary 学习看板
// @Description XP、等级、表现评分、技能分布与项目/挑战统计
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.Dashboard}
// @Router /api/dashboard [get]
func (c *ProgressController) GetDashboard(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	dashboard, err := c.ProgressService.Dashboard(ctx.Request.Context(), learnerID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}

// GetSkills godoc
// @Summary 技能分布
// @Description 已完成项目中各技能的使用次数，按次数升序
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.SkillCount}
// @Router /api/dashboard/skills [get]
func (c *ProgressController) GetSkills(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	skills, err := c.ProgressService.SkillHistogram(ctx.Request.Context(), learnerID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, skills)
}

// GetPortfolio godoc
// @Summary 公开作品集
// @Tags 作品集
// @Produce json
// @Param username path string true "用户名"
// @Success 200 {object} util.Response{data=service.Portfolio}
// @Failure 404 {object} util.Response
// @Router /api/portfolio/{username} [get]
func (c *ProgressController) GetPortfolio(ctx *gin.Context) {
	portfolio, err := c.ProgressService.Portfolio(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, portfolio)
}
