package controller

import (
	"codepulse_backend/internal/service"
	"codepulse_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ActivityController struct {
	ActivityService *service.ActivityService
}

func NewActivityController(activityService *service.ActivityService) *ActivityController {
	return &ActivityController{ActivityService: activityService}
}

// StudyRequest 学习时长记录
// swagger:model StudyRequest
type StudyRequest struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes" binding:"required,min=1"`
}

// AddStudyMinutes godoc
// @Summary 记录学习时长
// @Description 在某天（默认今天）的台账上累加学习分钟数
// @Tags 台账
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body StudyRequest true "学习时长"
// @Success 200 {object} util.Response{data=model.ActivityLedgerEntry}
// @Failure 400 {object} util.Response
// @Router /api/activity/study [post]
func (c *ActivityController) AddStudyMinutes(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req StudyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	row, err := c.ActivityService.AddStudyMinutes(ctx.Request.Context(), userID, req.Date, req.Minutes)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, row)
}

// GetDay godoc
// @Summary 某天的台账
// @Description 没有记录时返回全零行
// @Tags 台账
// @Produce json
// @Security ApiKeyAuth
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} util.Response{data=model.ActivityLedgerEntry}
// @Failure 400 {object} util.Response
// @Router /api/activity/{date} [get]
func (c *ActivityController) GetDay(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	row, err := c.ActivityService.GetDay(ctx.Request.Context(), userID, ctx.Param("date"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, row)
}

// ListRange godoc
// @Summary 区间台账
// @Tags 台账
// @Produce json
// @Security ApiKeyAuth
// @Param from query string true "开始日期 YYYY-MM-DD"
// @Param to query string true "结束日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=[]model.ActivityLedgerEntry}
// @Failure 400 {object} util.Response
// @Router /api/activity [get]
func (c *ActivityController) ListRange(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	rows, err := c.ActivityService.ListRange(ctx.Request.Context(), userID, ctx.Query("from"), ctx.Query("to"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}
