package controller

import (
	"strconv"

	"skillforge_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// pathID 解析路径中的数字 ID，失败时直接写出 400
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentLearner 取当前学习者 ID，未认证时直接写出 401
func currentLearner(ctx *gin.Context) (string, bool) {
	id, err := util.CurrentLearnerID(ctx)
	if err != nil {
		util.RespondError(ctx, err)
		return "", false
	}
	return id, true
}
