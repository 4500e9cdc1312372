package controller

import (
	"skillforge_backend/internal/service"
	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ProfileController 学习者资料与作品集可见性
type ProfileController struct {
	ProfileService *service.ProfileService
}

func NewProfileController(profileService *service.ProfileService) *ProfileController {
	return &ProfileController{ProfileService: profileService}
}

// GetProfile godoc
// @Summary 当前学习者资料
// @Tags 资料
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.Learner}
// @Router /api/profile [get]
func (c *ProfileController) GetProfile(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	learner, err := c.ProfileService.GetProfile(ctx.Request.Context(), learnerID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, learner)
}

// UpdateProfile godoc
// @Summary 更新资料
// @Tags 资料
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.UpdateProfileRequest true "资料"
// @Success 200 {object} util.Response{data=model.Learner}
// @Router /api/profile [put]
func (c *ProfileController) UpdateProfile(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	var req service.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	learner, err := c.ProfileService.UpdateProfile(ctx.Request.Context(), learnerID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, learner)
}

// UpdateVisibility godoc
// @Summary 设置作品集用户名与公开状态
// @Tags 资料
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.UpdateVisibilityRequest true "可见性"
// @Success 200 {object} util.Response{data=model.Learner}
// @Failure 400 {object} util.Response "用户名无效或已被占用"
// @Router /api/profile/visibility [put]
func (c *ProfileController) UpdateVisibility(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	var req service.UpdateVisibilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	learner, err := c.ProfileService.UpdateVisibility(ctx.Request.Context(), learnerID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, learner)
}

// UploadFile godoc
// @Summary 上传头像或简历
// @Tags 资料
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param kind path string true "avatar | resume"
// @Param file formData file true "文件"
// @Success 200 {object} util.Response{data=model.Learner}
// @Failure 400 {object} util.Response
// @Router /api/profile/{kind} [post]
func (c *ProfileController) UploadFile(ctx *gin.Context) {
	learnerID, ok := currentLearner(ctx)
	if !ok {
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		util.BadRequest(ctx, "cannot read uploaded file")
		return
	}
	defer file.Close()

	kind := service.UploadKind(ctx.Param("kind"))
	learner, err := c.ProfileService.UploadFile(ctx.Request.Context(), learnerID, kind, header.Filename, file, header.Size)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, learner)
}
