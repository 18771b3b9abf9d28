package repository

import (
	"codepulse_backend/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

// Upsert 每个用户每天一条，重算时整行覆盖
func (r *StreakRepository) Upsert(ctx context.Context, rec *model.StreakRecord) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		UpdateAll: true,
	}).Create(rec).Error
}

func (r *StreakRepository) FindByDate(ctx context.Context, userID uint, date string) (*model.StreakRecord, error) {
	var recs []model.StreakRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Limit(1).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// FindRange 按日期降序，最近的在前
func (r *StreakRepository) FindRange(ctx context.Context, userID uint, from, to string) ([]model.StreakRecord, error) {
	var recs []model.StreakRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date DESC").
		Find(&recs).Error
	return recs, err
}
