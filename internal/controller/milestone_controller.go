package controller

import (
	"codepulse_backend/internal/service"
	"codepulse_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MilestoneController struct {
	MilestoneService *service.MilestoneService
}

func NewMilestoneController(milestoneService *service.MilestoneService) *MilestoneController {
	return &MilestoneController{MilestoneService: milestoneService}
}

// MilestoneRequest 里程碑完成
// swagger:model MilestoneRequest
type MilestoneRequest struct {
	RoadmapID   string `json:"roadmapId" binding:"required"`
	MilestoneID string `json:"milestoneId" binding:"required"`
}

// Complete godoc
// @Summary 标记里程碑完成
// @Description 同一里程碑只计入一次当天的 career 进度
// @Tags 里程碑
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body MilestoneRequest true "路线图与里程碑"
// @Success 200 {object} util.Response{data=service.MilestoneResult}
// @Failure 400 {object} util.Response
// @Router /api/milestones/complete [post]
func (c *MilestoneController) Complete(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req MilestoneRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.MilestoneService.RecordMilestoneCompletion(ctx.Request.Context(), userID, req.RoadmapID, req.MilestoneID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// List godoc
// @Summary 已完成的里程碑
// @Tags 里程碑
// @Produce json
// @Security ApiKeyAuth
// @Param roadmapId query string false "路线图"
// @Success 200 {object} util.Response{data=[]model.MilestoneCompletion}
// @Router /api/milestones [get]
func (c *MilestoneController) List(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	rows, err := c.MilestoneService.ListCompletions(ctx.Request.Context(), userID, ctx.Query("roadmapId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}
