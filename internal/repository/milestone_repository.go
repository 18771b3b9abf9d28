package repository

import (
	"codepulse_backend/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MilestoneRepository struct {
	DB *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) *MilestoneRepository {
	return &MilestoneRepository{DB: db}
}

func (r *MilestoneRepository) WithTx(tx *gorm.DB) *MilestoneRepository {
	return &MilestoneRepository{DB: tx}
}

// CreateIfAbsent 已存在时不写入，返回 false
func (r *MilestoneRepository) CreateIfAbsent(ctx context.Context, mc *model.MilestoneCompletion) (bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "roadmap_id"}, {Name: "milestone_id"}},
		DoNothing: true,
	}).Create(mc)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *MilestoneRepository) Find(ctx context.Context, userID uint, roadmapID, milestoneID string) (*model.MilestoneCompletion, error) {
	var rows []model.MilestoneCompletion
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND roadmap_id = ? AND milestone_id = ?", userID, roadmapID, milestoneID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListByUser roadmapID 为空时返回全部路线图
func (r *MilestoneRepository) ListByUser(ctx context.Context, userID uint, roadmapID string) ([]model.MilestoneCompletion, error) {
	var rows []model.MilestoneCompletion
	db := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if roadmapID != "" {
		db = db.Where("roadmap_id = ?", roadmapID)
	}
	err := db.Order("completed_at DESC").Find(&rows).Error
	return rows, err
}
