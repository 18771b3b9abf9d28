package controller

import (
	"codepulse_backend/internal/service"
	"codepulse_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type StreakController struct {
	StreakService *service.StreakService
}

func NewStreakController(streakService *service.StreakService) *StreakController {
	return &StreakController{StreakService: streakService}
}

// GetCurrentStreak godoc
// @Summary 当前连续天数
// @Description 今天尚未同步时按昨天计算，不会因此清零
// @Tags 连续打卡
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.StreakRecord}
// @Router /api/streak [get]
func (c *StreakController) GetCurrentStreak(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	rec, err := c.StreakService.CurrentStreak(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}

// GetStreakHistory godoc
// @Summary 连续天数历史
// @Tags 连续打卡
// @Produce json
// @Security ApiKeyAuth
// @Param days query int false "天数，默认 7，不超过回看窗口"
// @Success 200 {object} util.Response{data=[]model.StreakRecord}
// @Router /api/streak/history [get]
func (c *StreakController) GetStreakHistory(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	days, err := strconv.Atoi(ctx.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		util.BadRequest(ctx, "days must be a positive integer")
		return
	}

	history, err := c.StreakService.StreakHistory(ctx.Request.Context(), userID, days)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, history)
}
