package controller

import (
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ChallengeController 挑战目录、每日推荐与挑战生命周期
type ChallengeController struct {
	ChallengeService *service.ChallengeService
}

func NewChallengeController(challengeService *service.ChallengeService) *ChallengeController {
	return &ChallengeController{ChallengeService: challengeService}
}

// ListChallenges godoc
// @Summary 挑战目录
// @Tags 挑战
// @Produce json
// @Security ApiKeyAuth
// @Param difficulty query string false "Beginner | Intermediate | Expert"
// @Success 200 {object} util.Response{data=[]model.Challenge}
// @Router /api/challenges [get]
func (c *ChallengeController) ListChallenges(ctx *gin.Context) {
	challenges, err := c.ChallengeService.ListCatalog(ctx.Request.Context(), model.Difficulty(ctx.Query("difficulty")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, challenges)
}

// ListMyChallenges godoc
// @Summary 我的挑战
// @Tags 挑战
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "not-started | in-progress | completed | failed"
// @Success 200 {object} util.Response{data=[]repository.LearnerChallengeView}
// @Router /api/challenges/mine [get]
func (c *ChallengeController) ListMyChallenges(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	views, err := c.ChallengeService.ListMine(ctx.Request.Context(), learnerID, model.ChallengeStatus(ctx.Query("status")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// GenerateChallenge godoc
// @Summary 生成挑战
// @Description XP 与预计耗时由难度决定
// @Tags 挑战
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.GenerateChallengeRequest true "生成参数"
// @Success 201 {object} util.Response{data=model.Challenge}
// @Failure 400 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /api/challenges [post]
func (c *ChallengeController) GenerateChallenge(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	var req service.GenerateChallengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	challenge, err := c.ChallengeService.GenerateChallenge(ctx.Request.Context(), learnerID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, challenge)
}

// DailyChallenges godoc
// @Summary 每日推荐挑战
// @Description 基于最常用技能生成三个推荐，不落库
// @Tags 挑战
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.ChallengeSuggestion}
// @Failure 502 {object} util.Response
// @Router /api/challenges/daily [get]
func (c *ChallengeController) DailyChallenges(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	suggestions, err := c.ChallengeService.DailyChallenges(ctx.Request.Context(), learnerID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, suggestions)
}

// AcceptChallenge godoc
// @Summary 接受推荐挑战
// @Description 推荐落库并直接开始
// @Tags 挑战
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.ChallengeSuggestion true "推荐内容"
// @Success 201 {object} util.Response{data=model.Challenge}
// @Failure 400 {object} util.Response
// @Router /api/challenges/accept [post]
func (c *ChallengeController) AcceptChallenge(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	var suggestion service.ChallengeSuggestion
	if err := ctx.ShouldBindJSON(&suggestion); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	challenge, err := c.ChallengeService.AcceptChallenge(ctx.Request.Context(), learnerID, suggestion)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, challenge)
}

// StartChallenge godoc
// @Summary 开始挑战
// @Tags 挑战
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "挑战ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "挑战已完成"
// @Router /api/challenges/{id}/start [post]
func (c *ChallengeController) StartChallenge(ctx *gin.Context) {
	c.transition(ctx, func(learnerID string, challengeID uint) error {
		return c.ChallengeService.StartChallenge(ctx.Request.Context(), learnerID, challengeID)
	})
}

// SubmitChallenge godoc
// @Summary 提交挑战
// @Description 仓库可访问即视为完成并发放 XP
// @Tags 挑战
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "挑战ID"
// @Param request body service.SubmitChallengeRequest true "仓库地址"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "未关联 GitHub 或状态不允许"
// @Failure 502 {object} util.Response
// @Router /api/challenges/{id}/submit [post]
func (c *ChallengeController) SubmitChallenge(ctx *gin.Context) {
	var req service.SubmitChallengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.transition(ctx, func(learnerID string, challengeID uint) error {
		return c.ChallengeService.SubmitChallengeSolution(ctx.Request.Context(), learnerID, challengeID, req.RepoURL)
	})
}

// AbandonChallenge godoc
// @Summary 放弃挑战
// @Tags 挑战
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "挑战ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/challenges/{id}/abandon [post]
func (c *ChallengeController) AbandonChallenge(ctx *gin.Context) {
	c.transition(ctx, func(learnerID string, challengeID uint) error {
		return c.ChallengeService.AbandonChallenge(ctx.Request.Context(), learnerID, challengeID)
	})
}

func (c *ChallengeController) transition(ctx *gin.Context, fn func(learnerID string, challengeID uint) error) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}
	challengeID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := fn(learnerID, challengeID); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
