package service

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/util"
	"codepulse_backend/pkg/logger"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// maxRangeDays 区间查询最多返回的天数
const maxRangeDays = 366

// ActivityService 台账的手动记录与查询
type ActivityService struct {
	Ledger  *repository.LedgerRepository
	Cache   *repository.ProgressCacheRepository
	Streaks *StreakService
	Loc     *time.Location

	now func() time.Time
}

func NewActivityService(ledger *repository.LedgerRepository, cache *repository.ProgressCacheRepository, streaks *StreakService, loc *time.Location) *ActivityService {
	if loc == nil {
		loc = time.UTC
	}
	return &ActivityService{
		Ledger:  ledger,
		Cache:   cache,
		Streaks: streaks,
		Loc:     loc,
		now:     time.Now,
	}
}

// AddStudyMinutes 给某天累加学习时长，date 为空时取今天，不允许记录未来日期
func (s *ActivityService) AddStudyMinutes(ctx context.Context, userID uint, date string, minutes int) (*model.ActivityLedgerEntry, error) {
	if minutes <= 0 || minutes > 24*60 {
		return nil, util.ErrInvalidAmount
	}

	today := util.Day(s.now().In(s.Loc))
	day := today
	if date != "" {
		var err error
		if day, err = util.ParseDate(date, s.Loc); err != nil {
			return nil, err
		}
		if day.After(today) {
			return nil, fmt.Errorf("%w: %s is in the future", util.ErrInvalidDate, date)
		}
	}
	date = util.FormatDate(day)

	if err := s.Ledger.UpsertDay(ctx, userID, date, repository.LedgerPatch{StudyMinutesDelta: minutes}); err != nil {
		return nil, err
	}

	log := logger.L().With(zap.Uint("userID", userID), zap.String("date", date))
	// 补录过去的日期时，之后各天已保存的连续天数也要更新
	if _, err := s.Streaks.RecomputeSince(ctx, userID, day, today); err != nil {
		log.Warn("streak recompute failed after study log", zap.Error(err))
	}
	if err := s.Cache.Invalidate(ctx, userID, day); err != nil {
		log.Warn("invalidate progress cache failed", zap.Error(err))
	}
	return s.Ledger.GetDay(ctx, userID, date)
}

// GetDay 没有记录时返回全零行
func (s *ActivityService) GetDay(ctx context.Context, userID uint, date string) (*model.ActivityLedgerEntry, error) {
	day, err := util.ParseDate(date, s.Loc)
	if err != nil {
		return nil, err
	}
	return s.Ledger.GetDay(ctx, userID, util.FormatDate(day))
}

// ListRange [from, to] 区间内已有的台账行
func (s *ActivityService) ListRange(ctx context.Context, userID uint, from, to string) ([]model.ActivityLedgerEntry, error) {
	start, err := util.ParseDate(from, s.Loc)
	if err != nil {
		return nil, err
	}
	end, err := util.ParseDate(to, s.Loc)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: from must not be after to", util.ErrInvalidDate)
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("%w: range exceeds %d days", util.ErrInvalidDate, maxRangeDays)
	}
	return s.Ledger.FindRange(ctx, userID, util.FormatDate(start), util.FormatDate(end))
}
