package service

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/util"
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const defaultStreakWindow = 45

// dayActivity 某天各类别是否有活动
type dayActivity struct {
	leetcode   bool
	codechef   bool
	codeforces bool
	career     bool
	study      bool
	contests   bool
}

func activityOf(e model.ActivityLedgerEntry) dayActivity {
	return dayActivity{
		leetcode:   e.LeetCodeDaily > 0,
		codechef:   e.CodeChefDaily > 0,
		codeforces: e.CodeforcesDaily > 0,
		career:     e.CareerMilestonesCompleted > 0,
		study:      e.StudyMinutes > 0,
		contests:   e.ContestsDaily > 0,
	}
}

func (a dayActivity) coding() bool {
	return a.leetcode || a.codechef || a.codeforces
}

func (a dayActivity) overall() bool {
	return a.coding() || a.career || a.study || a.contests
}

type StreakService struct {
	Ledger  *repository.LedgerRepository
	Streaks *repository.StreakRepository
	Cache   *repository.ProgressCacheRepository
	Loc     *time.Location

	window atomic.Int32
	now    func() time.Time
}

func NewStreakService(
	ledger *repository.LedgerRepository,
	streaks *repository.StreakRepository,
	cache *repository.ProgressCacheRepository,
	loc *time.Location,
	windowDays int,
) *StreakService {
	if loc == nil {
		loc = time.UTC
	}
	s := &StreakService{
		Ledger:  ledger,
		Streaks: streaks,
		Cache:   cache,
		Loc:     loc,
		now:     time.Now,
	}
	s.SetWindow(windowDays)
	return s
}

// SetWindow 修改回看窗口天数，配置热更新时调用
func (s *StreakService) SetWindow(days int) {
	if days <= 0 {
		days = defaultStreakWindow
	}
	s.window.Store(int32(days))
}

func (s *StreakService) Window() int {
	return int(s.window.Load())
}

func (s *StreakService) today() time.Time {
	return util.Day(s.now().In(s.Loc))
}

// Recompute 根据 asOf 之前窗口内的台账重算各类连续天数并写入 streak_records。
// 每个类别单独锚定：asOf 当天有活动则从 asOf 开始往回数，否则从前一天开始。
// 超过窗口的连续天数按窗口长度计。
func (s *StreakService) Recompute(ctx context.Context, userID uint, asOf time.Time) (*model.StreakRecord, error) {
	asOf = util.Day(asOf)
	window := s.Window()
	// 锚点可能是 asOf-1，多取一天
	from := asOf.AddDate(0, 0, -window)

	rows, err := s.Ledger.FindRange(ctx, userID, util.FormatDate(from), util.FormatDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("load ledger window: %w", err)
	}
	days := make(map[string]dayActivity, len(rows))
	for _, row := range rows {
		days[row.Date] = activityOf(row)
	}

	count := func(active func(dayActivity) bool) int {
		anchor := asOf
		if !active(days[util.FormatDate(asOf)]) {
			anchor = asOf.AddDate(0, 0, -1)
		}
		n := 0
		for d := anchor; n < window; d = d.AddDate(0, 0, -1) {
			if !active(days[util.FormatDate(d)]) {
				break
			}
			n++
		}
		return n
	}

	at := days[util.FormatDate(asOf)]
	rec := &model.StreakRecord{
		UserID:           userID,
		Date:             util.FormatDate(asOf),
		LeetCodeStreak:   count(func(a dayActivity) bool { return a.leetcode }),
		CodeChefStreak:   count(func(a dayActivity) bool { return a.codechef }),
		CodeforcesStreak: count(func(a dayActivity) bool { return a.codeforces }),
		CodingStreak:     count(dayActivity.coding),
		CareerStreak:     count(func(a dayActivity) bool { return a.career }),
		StudyStreak:      count(func(a dayActivity) bool { return a.study }),
		OverallStreak:    count(dayActivity.overall),

		HadLeetCodeActivity:   at.leetcode,
		HadCodeChefActivity:   at.codechef,
		HadCodeforcesActivity: at.codeforces,
		HadCodingActivity:     at.coding(),
		HadCareerActivity:     at.career,
		HadStudyActivity:      at.study,
		HadOverallActivity:    at.overall(),
	}

	if err := s.Streaks.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("save streak record: %w", err)
	}
	return rec, nil
}

// RecomputeSince 补录历史数据后，从 since 到 asOf 逐日重算已保存的记录，
// 早于窗口的日期不再重算。返回 asOf 当天的记录。
func (s *StreakService) RecomputeSince(ctx context.Context, userID uint, since, asOf time.Time) (*model.StreakRecord, error) {
	asOf = util.Day(asOf)
	since = util.Day(since)
	if oldest := asOf.AddDate(0, 0, -(s.Window() - 1)); since.Before(oldest) {
		since = oldest
	}

	var rec *model.StreakRecord
	for d := since; !d.After(asOf); d = d.AddDate(0, 0, 1) {
		r, err := s.Recompute(ctx, userID, d)
		if err != nil {
			return nil, fmt.Errorf("recompute %s: %w", util.FormatDate(d), err)
		}
		rec = r
	}
	if rec == nil {
		return s.Recompute(ctx, userID, asOf)
	}
	return rec, nil
}

// CurrentStreak 今天的连续天数，优先读缓存
func (s *StreakService) CurrentStreak(ctx context.Context, userID uint) (*model.StreakRecord, error) {
	var cached model.StreakRecord
	if s.Cache.GetStreak(ctx, userID, &cached) && cached.Date == util.FormatDate(s.today()) {
		return &cached, nil
	}

	rec, err := s.Recompute(ctx, userID, s.today())
	if err != nil {
		return nil, err
	}
	s.Cache.SetStreak(ctx, userID, rec)
	return rec, nil
}

// StreakHistory 最近 days 天已保存的记录（最近的在前），days 不超过窗口
func (s *StreakService) StreakHistory(ctx context.Context, userID uint, days int) ([]model.StreakRecord, error) {
	if days <= 0 {
		days = 7
	}
	if w := s.Window(); days > w {
		days = w
	}
	to := s.today()
	from := to.AddDate(0, 0, -(days - 1))
	return s.Streaks.FindRange(ctx, userID, util.FormatDate(from), util.FormatDate(to))
}
