package controller

import (
	"codepulse_backend/internal/util"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// respondError 把业务错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrEmailRegistered):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrInvalidDate),
		errors.Is(err, util.ErrInvalidMonth),
		errors.Is(err, util.ErrInvalidAmount),
		errors.Is(err, util.ErrInvalidMilestone):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// currentUserID 已通过 AuthMiddleware 的请求才能拿到
func currentUserID(ctx *gin.Context) (uint, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return 0, false
	}
	return claims.UserID, true
}

func yearMonthParams(ctx *gin.Context) (int, int, error) {
	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil {
		return 0, 0, util.ErrInvalidMonth
	}
	month, err := strconv.Atoi(ctx.Param("month"))
	if err != nil {
		return 0, 0, util.ErrInvalidMonth
	}
	return year, month, nil
}
