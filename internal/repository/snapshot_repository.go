package repository

import (
	"codepulse_backend/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository 平台累计计数快照，(user_id, date) 唯一
type SnapshotRepository struct {
	DB *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{DB: db}
}

// WithTx 返回绑定到事务的副本
func (r *SnapshotRepository) WithTx(tx *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{DB: tx}
}

// Upsert 同一天重复写入只覆盖当天这一行
func (r *SnapshotRepository) Upsert(ctx context.Context, s *model.PlatformSnapshot) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"leetcode_total",
			"codechef_total",
			"codeforces_total",
			"codeforces_contest_total",
			"codechef_contest_total",
			"updated_at",
		}),
	}).Create(s).Error
}

func (r *SnapshotRepository) FindByDate(ctx context.Context, userID uint, date string) (*model.PlatformSnapshot, error) {
	return r.first(r.DB.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date))
}

// FindLatestBefore date 之前（不含）最近的一条快照，用作月初基线
func (r *SnapshotRepository) FindLatestBefore(ctx context.Context, userID uint, date string) (*model.PlatformSnapshot, error) {
	return r.first(r.DB.WithContext(ctx).Where("user_id = ? AND date < ?", userID, date))
}

// FindLatestOnOrBefore date 当天或之前最近的一条快照
func (r *SnapshotRepository) FindLatestOnOrBefore(ctx context.Context, userID uint, date string) (*model.PlatformSnapshot, error) {
	return r.first(r.DB.WithContext(ctx).Where("user_id = ? AND date <= ?", userID, date))
}

// first 没有记录时返回 nil, nil
func (r *SnapshotRepository) first(db *gorm.DB) (*model.PlatformSnapshot, error) {
	var rows []model.PlatformSnapshot
	if err := db.Order("date DESC").Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
