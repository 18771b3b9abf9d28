// Package platform 封装外部刷题平台（LeetCode / CodeChef / Codeforces）的累计做题数抓取。
// 调用方只会拿到固定结构的 Stat，上游任何失败都被吸收为 StatusFailed，不会返回 error。
package platform

import (
	"context"
	"errors"
	"fmt"
)

type Platform string

const (
	LeetCode   Platform = "leetcode"
	CodeChef   Platform = "codechef"
	Codeforces Platform = "codeforces"
)

// All 固定顺序，日志与结果展示都按这个顺序
var All = []Platform{LeetCode, CodeChef, Codeforces}

type Status int

const (
	StatusOK Status = iota
	StatusFailed
)

func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	return "failed"
}

// Stat 单个平台的抓取结果。
// StatusOK 表示上游返回了结构合法的数据（值可以是 0）；
// StatusFailed 表示所有来源都失败，Solved 为 0，Err 记录原因。
type Stat struct {
	Platform     Platform
	Status       Status
	Solved       int
	ContestCount *int // 平台未提供或本次未取到时为 nil
	Source       string
	Err          error
}

func (s Stat) OK() bool {
	return s.Status == StatusOK
}

// Contests 比赛数，未知时按 0
func (s Stat) Contests() int {
	if s.ContestCount == nil {
		return 0
	}
	return *s.ContestCount
}

func failed(p Platform, err error) Stat {
	zero := 0
	return Stat{
		Platform:     p,
		Status:       StatusFailed,
		ContestCount: &zero,
		Err:          err,
	}
}

// Fetcher 同步编排依赖的抓取接口
type Fetcher interface {
	FetchCumulative(ctx context.Context, p Platform, handle string) Stat
}

// source 某个平台的一个上游来源
type source struct {
	name  string
	fetch func(ctx context.Context, handle string) (Stat, error)
}

var (
	ErrEmptyHandle     = errors.New("empty handle")
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrMalformed 上游返回了但结构不合法（字段缺失、用户不存在、页面改版）
	ErrMalformed = errors.New("malformed upstream payload")
)

// StatusError 上游返回非 2xx
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned HTTP %d", e.URL, e.Code)
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// retryable 仅对网络错误、5xx 与 429 在同一来源上重试；结构错误直接换下一个来源
func retryable(err error) bool {
	if errors.Is(err, ErrMalformed) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == 429
	}
	return true
}

func intPtr(v int) *int {
	return &v
}
