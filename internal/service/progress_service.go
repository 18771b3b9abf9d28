package service

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/util"
	"codepulse_backend/pkg/logger"
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// 进度类别
const (
	CategoryStudyMinutes  = "study_minutes"
	CategoryLeetCode      = "leetcode"
	CategoryCodeChef      = "codechef"
	CategoryCodeforces    = "codeforces"
	CategoryTotalProblems = "total_problems"
	CategoryContests      = "contests"
	CategoryCareer        = "career_milestones"
)

type CategoryProgress struct {
	Category   string `json:"category"`
	Value      int    `json:"value"`
	Target     int    `json:"target"`
	Percentage int    `json:"percentage"`
}

// MonthlyProgressReport 某月各类别的完成情况，Value 为原始值（不截断），Percentage 截断到 100
type MonthlyProgressReport struct {
	UserID      uint               `json:"userId"`
	Year        int                `json:"year"`
	Month       int                `json:"month"`
	DaysInMonth int                `json:"daysInMonth"`
	DaysTracked int                `json:"daysTracked"`
	Goal        model.MonthlyGoal  `json:"goal"`
	Categories  []CategoryProgress `json:"categories"`
}

// Category 按名称取类别，不存在时返回零值
func (r *MonthlyProgressReport) Category(name string) CategoryProgress {
	for _, c := range r.Categories {
		if c.Category == name {
			return c
		}
	}
	return CategoryProgress{Category: name}
}

// Percentage min(100, round(100*value/target))，target 为 0 时为 0
func Percentage(value, target int) int {
	if target <= 0 || value <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(value) / float64(target)))
	if p > 100 {
		return 100
	}
	return p
}

type ProgressService struct {
	Goals  *repository.GoalRepository
	Ledger *repository.LedgerRepository
	Cache  *repository.ProgressCacheRepository
}

func NewProgressService(goals *repository.GoalRepository, ledger *repository.LedgerRepository, cache *repository.ProgressCacheRepository) *ProgressService {
	return &ProgressService{
		Goals:  goals,
		Ledger: ledger,
		Cache:  cache,
	}
}

// GetGoal 未设置目标时返回全零目标（不落库）
func (s *ProgressService) GetGoal(ctx context.Context, userID uint, year, month int) (*model.MonthlyGoal, error) {
	if _, _, err := util.MonthRange(year, month); err != nil {
		return nil, err
	}
	goal, err := s.Goals.FindByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		goal = &model.MonthlyGoal{UserID: userID, Year: year, Month: month}
	}
	return goal, nil
}

// UpsertGoal 设置某月目标，所有目标值必须非负
func (s *ProgressService) UpsertGoal(ctx context.Context, goal *model.MonthlyGoal) error {
	if _, _, err := util.MonthRange(goal.Year, goal.Month); err != nil {
		return err
	}
	for _, v := range []int{
		goal.DailyStudyMinutes,
		goal.LeetCodeProblems,
		goal.CodeChefProblems,
		goal.CodeforcesProblems,
		goal.ContestParticipation,
		goal.CareerMilestones,
	} {
		if v < 0 {
			return fmt.Errorf("%w: goal targets must not be negative", util.ErrInvalidAmount)
		}
	}
	if err := s.Goals.Upsert(ctx, goal); err != nil {
		return err
	}
	month := time.Date(goal.Year, time.Month(goal.Month), 1, 0, 0, 0, 0, time.UTC)
	if err := s.Cache.Invalidate(ctx, goal.UserID, month); err != nil {
		logger.L().Warn("invalidate progress cache failed",
			zap.Uint("userID", goal.UserID),
			zap.Int("year", goal.Year),
			zap.Int("month", goal.Month),
			zap.Error(err),
		)
	}
	return nil
}

// MonthlyProgress 汇总某月台账与目标。
// 学习时长和里程碑为当月各天之和；刷题数与参赛场次存的是本月累计值，取当月最大值。
func (s *ProgressService) MonthlyProgress(ctx context.Context, userID uint, year, month int) (*MonthlyProgressReport, error) {
	from, to, err := util.MonthRange(year, month)
	if err != nil {
		return nil, err
	}

	var cached MonthlyProgressReport
	if s.Cache.GetProgress(ctx, userID, year, month, &cached) {
		return &cached, nil
	}

	goal, err := s.GetGoal(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	rows, err := s.Ledger.FindRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	var study, milestones, leetcode, codechef, codeforces, contests int
	for _, row := range rows {
		study += row.StudyMinutes
		milestones += row.CareerMilestonesCompleted
		leetcode = max(leetcode, row.LeetCodeSolved)
		codechef = max(codechef, row.CodeChefSolved)
		codeforces = max(codeforces, row.CodeforcesSolved)
		contests = max(contests, row.ContestsParticipated)
	}

	days := util.DaysInMonth(year, month)
	problemTarget := goal.LeetCodeProblems + goal.CodeChefProblems + goal.CodeforcesProblems
	entry := func(name string, value, target int) CategoryProgress {
		return CategoryProgress{Category: name, Value: value, Target: target, Percentage: Percentage(value, target)}
	}

	report := &MonthlyProgressReport{
		UserID:      userID,
		Year:        year,
		Month:       month,
		DaysInMonth: days,
		DaysTracked: len(rows),
		Goal:        *goal,
		Categories: []CategoryProgress{
			entry(CategoryStudyMinutes, study, goal.DailyStudyMinutes*days),
			entry(CategoryLeetCode, leetcode, goal.LeetCodeProblems),
			entry(CategoryCodeChef, codechef, goal.CodeChefProblems),
			entry(CategoryCodeforces, codeforces, goal.CodeforcesProblems),
			entry(CategoryTotalProblems, leetcode+codechef+codeforces, problemTarget),
			entry(CategoryContests, contests, goal.ContestParticipation),
			entry(CategoryCareer, milestones, goal.CareerMilestones),
		},
	}

	s.Cache.SetProgress(ctx, userID, year, month, report)
	return report, nil
}
