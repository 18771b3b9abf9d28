package service

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/util"
	"codepulse_backend/pkg/logger"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MilestoneResult struct {
	Completion *model.MilestoneCompletion `json:"completion"`
	// Created 为 false 表示此前已完成过，本次没有计入台账
	Created bool                `json:"created"`
	Streak  *model.StreakRecord `json:"streak,omitempty"`
}

type MilestoneService struct {
	DB         *gorm.DB
	Milestones *repository.MilestoneRepository
	Ledger     *repository.LedgerRepository
	Cache      *repository.ProgressCacheRepository
	Streaks    *StreakService
	Loc        *time.Location

	now func() time.Time
}

func NewMilestoneService(
	db *gorm.DB,
	milestones *repository.MilestoneRepository,
	ledger *repository.LedgerRepository,
	cache *repository.ProgressCacheRepository,
	streaks *StreakService,
	loc *time.Location,
) *MilestoneService {
	if loc == nil {
		loc = time.UTC
	}
	return &MilestoneService{
		DB:         db,
		Milestones: milestones,
		Ledger:     ledger,
		Cache:      cache,
		Streaks:    streaks,
		Loc:        loc,
		now:        time.Now,
	}
}

// RecordMilestoneCompletion 记录里程碑完成。同一里程碑只计一次：
// 首次完成时在同一事务内写入完成记录并给当天台账的 career_milestones_completed 加 1，随后重算连续天数。
func (s *MilestoneService) RecordMilestoneCompletion(ctx context.Context, userID uint, roadmapID, milestoneID string) (*MilestoneResult, error) {
	roadmapID = strings.TrimSpace(roadmapID)
	milestoneID = strings.TrimSpace(milestoneID)
	if roadmapID == "" || milestoneID == "" {
		return nil, util.ErrInvalidMilestone
	}

	now := s.now().In(s.Loc)
	today := util.Day(now)
	mc := &model.MilestoneCompletion{
		UserID:      userID,
		RoadmapID:   roadmapID,
		MilestoneID: milestoneID,
		CompletedAt: now,
		CreditDate:  util.FormatDate(today),
	}

	var created bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = s.Milestones.WithTx(tx).CreateIfAbsent(ctx, mc)
		if err != nil || !created {
			return err
		}
		return s.Ledger.WithTx(tx).UpsertDay(ctx, userID, mc.CreditDate, repository.LedgerPatch{MilestonesDelta: 1})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrTransactionFailed, err)
	}

	res := &MilestoneResult{Completion: mc, Created: created}
	if !created {
		existing, err := s.Milestones.Find(ctx, userID, roadmapID, milestoneID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			res.Completion = existing
		}
		return res, nil
	}

	log := logger.L().With(zap.Uint("userID", userID), zap.String("roadmapID", roadmapID), zap.String("milestoneID", milestoneID))
	if streak, err := s.Streaks.Recompute(ctx, userID, today); err != nil {
		log.Warn("streak recompute failed after milestone", zap.Error(err))
	} else {
		res.Streak = streak
	}
	if err := s.Cache.Invalidate(ctx, userID, today); err != nil {
		log.Warn("invalidate progress cache failed", zap.Error(err))
	}
	log.Info("milestone completed")
	return res, nil
}

func (s *MilestoneService) ListCompletions(ctx context.Context, userID uint, roadmapID string) ([]model.MilestoneCompletion, error) {
	return s.Milestones.ListByUser(ctx, userID, strings.TrimSpace(roadmapID))
}
