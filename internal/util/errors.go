package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidMonth       = errors.New("invalid year/month")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidMilestone   = errors.New("roadmapId and milestoneId are required")
	// ErrTransactionFailed 台账与快照写入事务失败，整体已回滚
	ErrTransactionFailed = errors.New("ledger commit failed")
)
