package controller

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/service"
	"codepulse_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// GetMonthlyProgress godoc
// @Summary 月度目标完成情况
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param year path int true "年"
// @Param month path int true "月 (1-12)"
// @Success 200 {object} util.Response{data=service.MonthlyProgressReport}
// @Failure 400 {object} util.Response
// @Router /api/progress/{year}/{month} [get]
func (c *ProgressController) GetMonthlyProgress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	year, month, err := yearMonthParams(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}

	report, err := c.ProgressService.MonthlyProgress(ctx.Request.Context(), userID, year, month)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// GetGoal godoc
// @Summary 获取月度目标
// @Description 未设置时返回全零目标
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param year path int true "年"
// @Param month path int true "月 (1-12)"
// @Success 200 {object} util.Response{data=model.MonthlyGoal}
// @Router /api/goals/{year}/{month} [get]
func (c *ProgressController) GetGoal(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	year, month, err := yearMonthParams(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}

	goal, err := c.ProgressService.GetGoal(ctx.Request.Context(), userID, year, month)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, goal)
}

// GoalRequest 月度目标
// swagger:model GoalRequest
type GoalRequest struct {
	DailyStudyMinutes    int `json:"dailyStudyMinutes" binding:"min=0"`
	LeetCodeProblems     int `json:"leetcodeProblems" binding:"min=0"`
	CodeChefProblems     int `json:"codechefProblems" binding:"min=0"`
	CodeforcesProblems   int `json:"codeforcesProblems" binding:"min=0"`
	ContestParticipation int `json:"contestParticipation" binding:"min=0"`
	CareerMilestones     int `json:"careerMilestones" binding:"min=0"`
}

// UpsertGoal godoc
// @Summary 设置月度目标
// @Tags 进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param year path int true "年"
// @Param month path int true "月 (1-12)"
// @Param body body GoalRequest true "目标"
// @Success 200 {object} util.Response{data=model.MonthlyGoal}
// @Failure 400 {object} util.Response
// @Router /api/goals/{year}/{month} [put]
func (c *ProgressController) UpsertGoal(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	year, month, err := yearMonthParams(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}

	var req GoalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	goal := &model.MonthlyGoal{
		UserID:               userID,
		Year:                 year,
		Month:                month,
		DailyStudyMinutes:    req.DailyStudyMinutes,
		LeetCodeProblems:     req.LeetCodeProblems,
		CodeChefProblems:     req.CodeChefProblems,
		CodeforcesProblems:   req.CodeforcesProblems,
		ContestParticipation: req.ContestParticipation,
		CareerMilestones:     req.CareerMilestones,
	}
	if err := c.ProgressService.UpsertGoal(ctx.Request.Context(), goal); err != nil {
		respondError(ctx, err)
		return
	}

	saved, err := c.ProgressService.GetGoal(ctx.Request.Context(), userID, year, month)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, saved)
}
