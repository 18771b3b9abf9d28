package repository

import (
	"codepulse_backend/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GoalRepository 月度目标的数据访问
type GoalRepository struct {
	DB *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{DB: db}
}

// FindByMonth 未设置时返回 nil, nil
func (r *GoalRepository) FindByMonth(ctx context.Context, userID uint, year, month int) (*model.MonthlyGoal, error) {
	var goals []model.MonthlyGoal
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		Limit(1).
		Find(&goals).Error
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, nil
	}
	return &goals[0], nil
}

// Upsert 同一用户同一月份只保留一条目标
func (r *GoalRepository) Upsert(ctx context.Context, goal *model.MonthlyGoal) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"daily_study_minutes",
			"leetcode_problems",
			"codechef_problems",
			"codeforces_problems",
			"contest_participation",
			"career_milestones",
			"updated_at",
		}),
	}).Create(goal).Error
}
