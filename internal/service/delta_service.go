package service

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/util"
	"context"
	"fmt"
	"time"
)

// PlatformCounts 各平台做题数与参赛场次（增量或本月累计，取决于上下文）
type PlatformCounts struct {
	LeetCode   int `json:"leetcode"`
	CodeChef   int `json:"codechef"`
	Codeforces int `json:"codeforces"`
	Contests   int `json:"contests"`
}

// Problems 三个平台的做题数之和
func (c PlatformCounts) Problems() int {
	return c.LeetCode + c.CodeChef + c.Codeforces
}

// DeltaResult 一次同步的差量计算结果。
// Snapshot 保存原始累计值，Monthly/Daily 是写入台账的推导值。
type DeltaResult struct {
	Date     string
	Monthly  PlatformCounts
	Daily    PlatformCounts
	Snapshot model.PlatformSnapshot
}

type DeltaService struct {
	Snapshots *repository.SnapshotRepository
	Ledger    *repository.LedgerRepository
}

func NewDeltaService(snapshots *repository.SnapshotRepository, ledger *repository.LedgerRepository) *DeltaService {
	return &DeltaService{
		Snapshots: snapshots,
		Ledger:    ledger,
	}
}

// ComputeDeltas 根据当天的累计快照计算本月增量与当天增量，结果恒为非负。
// 基线取本月第一天之前最近的快照，没有基线时本月增量等于当前累计值。
// 当天增量 = 本月增量 - 昨天台账中的本月累计值；昨天无记录或跨月时等于本月增量。
func (s *DeltaService) ComputeDeltas(ctx context.Context, userID uint, today time.Time, current model.PlatformSnapshot) (*DeltaResult, error) {
	today = util.Day(today)
	date := util.FormatDate(today)

	baseline, err := s.Snapshots.FindLatestBefore(ctx, userID, util.FormatDate(util.MonthStart(today)))
	if err != nil {
		return nil, fmt.Errorf("load month baseline: %w", err)
	}
	if baseline == nil {
		baseline = &model.PlatformSnapshot{}
	}

	monthly := PlatformCounts{
		LeetCode:   clampDiff(current.LeetCodeTotal, baseline.LeetCodeTotal),
		CodeChef:   clampDiff(current.CodeChefTotal, baseline.CodeChefTotal),
		Codeforces: clampDiff(current.CodeforcesTotal, baseline.CodeforcesTotal),
		Contests: clampDiff(current.CodeforcesContestTotal, baseline.CodeforcesContestTotal) +
			clampDiff(current.CodeChefContestTotal, baseline.CodeChefContestTotal),
	}

	daily := monthly
	yesterday := today.AddDate(0, 0, -1)
	if util.SameMonth(today, yesterday) {
		prev, err := s.Ledger.FindDay(ctx, userID, util.FormatDate(yesterday))
		if err != nil {
			return nil, fmt.Errorf("load yesterday ledger: %w", err)
		}
		if prev != nil {
			daily = PlatformCounts{
				LeetCode:   clampDiff(monthly.LeetCode, prev.LeetCodeSolved),
				CodeChef:   clampDiff(monthly.CodeChef, prev.CodeChefSolved),
				Codeforces: clampDiff(monthly.Codeforces, prev.CodeforcesSolved),
				Contests:   clampDiff(monthly.Contests, prev.ContestsParticipated),
			}
		}
	}

	current.UserID = userID
	current.Date = date
	return &DeltaResult{
		Date:     date,
		Monthly:  monthly,
		Daily:    daily,
		Snapshot: current,
	}, nil
}

func clampDiff(a, b int) int {
	if a-b < 0 {
		return 0
	}
	return a - b
}
