package repository

import (
	"codepulse_backend/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerPatch 对某天台账的一次修改。
// 指针字段非 nil 时覆盖（刷题数为本月累计，可重复同步）；Delta 字段为原子增量。
type LedgerPatch struct {
	LeetCodeSolved       *int
	CodeChefSolved       *int
	CodeforcesSolved     *int
	ContestsParticipated *int

	LeetCodeDaily   *int
	CodeChefDaily   *int
	CodeforcesDaily *int
	ContestsDaily   *int

	StudyMinutesDelta int
	MilestonesDelta   int
}

func (p LedgerPatch) empty() bool {
	return p.LeetCodeSolved == nil && p.CodeChefSolved == nil && p.CodeforcesSolved == nil &&
		p.ContestsParticipated == nil && p.LeetCodeDaily == nil && p.CodeChefDaily == nil &&
		p.CodeforcesDaily == nil && p.ContestsDaily == nil &&
		p.StudyMinutesDelta == 0 && p.MilestonesDelta == 0
}

type LedgerRepository struct {
	DB *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{DB: db}
}

func (r *LedgerRepository) WithTx(tx *gorm.DB) *LedgerRepository {
	return &LedgerRepository{DB: tx}
}

// UpsertDay 按 (user_id, date) 插入或更新一行，并在同一连接上重算 total_problems_solved。
// 需要与其他写入保持原子性时，调用方应使用 WithTx。
func (r *LedgerRepository) UpsertDay(ctx context.Context, userID uint, date string, p LedgerPatch) error {
	if p.empty() {
		return nil
	}

	row := model.ActivityLedgerEntry{
		UserID:                    userID,
		Date:                      date,
		StudyMinutes:              p.StudyMinutesDelta,
		CareerMilestonesCompleted: p.MilestonesDelta,
		LeetCodeSolved:            deref(p.LeetCodeSolved),
		CodeChefSolved:            deref(p.CodeChefSolved),
		CodeforcesSolved:          deref(p.CodeforcesSolved),
		ContestsParticipated:      deref(p.ContestsParticipated),
		LeetCodeDaily:             deref(p.LeetCodeDaily),
		CodeChefDaily:             deref(p.CodeChefDaily),
		CodeforcesDaily:           deref(p.CodeforcesDaily),
		ContestsDaily:             deref(p.ContestsDaily),
	}
	row.TotalProblemsSolved = row.LeetCodeSolved + row.CodeChefSolved + row.CodeforcesSolved

	updates := map[string]interface{}{"updated_at": time.Now()}
	overwrite := map[string]*int{
		"leetcode_solved":       p.LeetCodeSolved,
		"codechef_solved":       p.CodeChefSolved,
		"codeforces_solved":     p.CodeforcesSolved,
		"contests_participated": p.ContestsParticipated,
		"leetcode_daily":        p.LeetCodeDaily,
		"codechef_daily":        p.CodeChefDaily,
		"codeforces_daily":      p.CodeforcesDaily,
		"contests_daily":        p.ContestsDaily,
	}
	for col, v := range overwrite {
		if v != nil {
			updates[col] = *v
		}
	}
	if p.StudyMinutesDelta != 0 {
		updates["study_minutes"] = gorm.Expr("study_minutes + ?", p.StudyMinutesDelta)
	}
	if p.MilestonesDelta != 0 {
		updates["career_milestones_completed"] = gorm.Expr("career_milestones_completed + ?", p.MilestonesDelta)
	}

	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&row).Error
	if err != nil {
		return err
	}
	return r.RecomputeTotal(ctx, userID, date)
}

// RecomputeTotal total_problems_solved = 三个平台刷题数之和
func (r *LedgerRepository) RecomputeTotal(ctx context.Context, userID uint, date string) error {
	return r.DB.WithContext(ctx).Model(&model.ActivityLedgerEntry{}).
		Where("user_id = ? AND date = ?", userID, date).
		UpdateColumn("total_problems_solved", gorm.Expr("leetcode_solved + codechef_solved + codeforces_solved")).
		Error
}

// FindDay 不存在时返回 nil, nil
func (r *LedgerRepository) FindDay(ctx context.Context, userID uint, date string) (*model.ActivityLedgerEntry, error) {
	var rows []model.ActivityLedgerEntry
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
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

// GetDay 不存在时返回全零行而不是错误
func (r *LedgerRepository) GetDay(ctx context.Context, userID uint, date string) (*model.ActivityLedgerEntry, error) {
	row, err := r.FindDay(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return &model.ActivityLedgerEntry{UserID: userID, Date: date}, nil
	}
	return row, nil
}

// FindRange [from, to] 闭区间，按日期升序
func (r *LedgerRepository) FindRange(ctx context.Context, userID uint, from, to string) ([]model.ActivityLedgerEntry, error) {
	var rows []model.ActivityLedgerEntry
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
