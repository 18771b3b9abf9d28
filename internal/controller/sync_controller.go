package controller

import (
	"codepulse_backend/internal/service"
	"codepulse_backend/internal/util"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type SyncController struct {
	SyncService *service.SyncService
}

func NewSyncController(syncService *service.SyncService) *SyncController {
	return &SyncController{SyncService: syncService}
}

// SyncNow godoc
// @Summary 立即同步刷题数据
// @Description 并发抓取已绑定平台的累计做题数并写入当天台账。个别平台失败时仍返回 200，失败信息在 errors 中
// @Tags 同步
// @Produce json
// @Security ApiKeyAuth
// @Param monthlyOnly query bool false "只刷新本月累计值"
// @Success 200 {object} util.Response{data=service.SyncResult}
// @Failure 500 {object} util.Response "提交失败，已回滚"
// @Router /api/sync [post]
func (c *SyncController) SyncNow(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	monthlyOnly, _ := strconv.ParseBool(ctx.DefaultQuery("monthlyOnly", "false"))
	res, err := c.SyncService.SyncUser(ctx.Request.Context(), userID, service.SyncOptions{MonthlyOnly: monthlyOnly})
	if err != nil {
		if service.IsCommitFailure(err) {
			ctx.JSON(http.StatusInternalServerError, util.Response{
				Code:    http.StatusInternalServerError,
				Message: "同步失败，请稍后重试",
				Data:    res,
			})
			return
		}
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Sweep godoc
// @Summary 批量同步所有活跃用户
// @Tags 同步
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.SweepResult}
// @Failure 403 {object} util.Response
// @Router /api/admin/sync/sweep [post]
func (c *SyncController) Sweep(ctx *gin.Context) {
	res, err := c.SyncService.SyncAllActiveUsers(ctx.Request.Context())
	if err != nil && res == nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
