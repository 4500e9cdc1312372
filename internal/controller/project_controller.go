package controller

import (
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ProjectController 项目生成、里程碑与评审
type ProjectController struct {
	ProjectService *service.ProjectService
}

func NewProjectController(projectService *service.ProjectService) *ProjectController {
	return &ProjectController{ProjectService: projectService}
}

// UpdateMilestonesRequest 里程碑列表需与项目原有列表一一对应
// swagger:model UpdateMilestonesRequest
type UpdateMilestonesRequest struct {
	Milestones model.Milestones `json:"milestones" binding:"required"`
}

// GenerateProject godoc
// @Summary 生成项目
// @Description 根据技能和项目类型生成项目，难度随学习者表现评分自适应
// @Tags 项目
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.GenerateProjectRequest true "生成参数"
// @Success 201 {object} util.Response{data=model.Project}
// @Failure 400 {object} util.Response
// @Failure 502 {object} util.Response "预测服务不可用或返回格式错误"
// @Router /api/projects [post]
func (c *ProjectController) GenerateProject(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	var req service.GenerateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	project, err := c.ProjectService.GenerateProject(ctx.Request.Context(), learnerID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, project)
}

// ListProjects godoc
// @Summary 我的项目列表
// @Tags 项目
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "in-progress | completed"
// @Success 200 {object} util.Response{data=[]model.Project}
// @Router /api/projects [get]
func (c *ProjectController) ListProjects(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	projects, err := c.ProjectService.ListProjects(ctx.Request.Context(), learnerID, model.ProjectStatus(ctx.Query("status")))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, projects)
}

// GetProject godoc
// @Summary 项目详情
// @Tags 项目
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "项目ID"
// @Success 200 {object} util.Response{data=model.Project}
// @Failure 404 {object} util.Response
// @Router /api/projects/{id} [get]
func (c *ProjectController) GetProject(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	project, err := c.ProjectService.GetProject(ctx.Request.Context(), learnerID, projectID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, project)
}

// UpdateMilestones godoc
// @Summary 更新里程碑
// @Description 每个新完成的里程碑奖励 XP，重复提交不会重复奖励
// @Tags 项目
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "项目ID"
// @Param request body UpdateMilestonesRequest true "里程碑"
// @Success 200 {object} util.Response{data=model.Project}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "项目已完成"
// @Router /api/projects/{id}/milestones [put]
func (c *ProjectController) UpdateMilestones(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req UpdateMilestonesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	project, err := c.ProjectService.UpdateMilestones(ctx.Request.Context(), learnerID, projectID, req.Milestones)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, project)
}

// SubmitProject godoc
// @Summary 提交项目评审
// @Description 拉取仓库代码作为证据并评审，完成后发放 XP 并调整表现评分
// @Tags 项目
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "项目ID"
// @Param request body service.SubmitProjectRequest true "仓库地址"
// @Success 200 {object} util.Response{data=model.Project}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "未关联 GitHub 或项目已完成"
// @Failure 502 {object} util.Response
// @Failure 504 {object} util.Response
// @Router /api/projects/{id}/submit [post]
func (c *ProjectController) SubmitProject(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.SubmitProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	project, err := c.ProjectService.SubmitForReview(ctx.Request.Context(), learnerID, projectID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, project)
}

// GetHint godoc
// @Summary 获取项目提示
// @Tags 项目
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "项目ID"
// @Success 200 {object} util.Response{data=map[string]string}
// @Router /api/projects/{id}/hint [post]
func (c *ProjectController) GetHint(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	hint, err := c.ProjectService.ProjectHint(ctx.Request.Context(), learnerID, projectID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"hint": hint})
}
