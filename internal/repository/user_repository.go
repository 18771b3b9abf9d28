package repository

import (
	"codepulse_backend/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

// ExistsByEmail 注册前查重
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// UpdateHandles 更新三个平台账号，空字符串表示解绑
func (r *UserRepository) UpdateHandles(ctx context.Context, userID uint, leetcode, codechef, codeforces string) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"leetcode_handle":   leetcode,
			"codechef_handle":   codechef,
			"codeforces_handle": codeforces,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastSeen(ctx context.Context, userID uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_seen", at).Error
}

func (r *UserRepository) MarkSynced(ctx context.Context, userID uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_synced_at", at).Error
}

// FindActive 未禁用且至少绑定了一个平台账号的用户；seenSince 非零时只取该时间之后登录过的
func (r *UserRepository) FindActive(ctx context.Context, seenSince time.Time) ([]model.User, error) {
	var users []model.User
	db := r.DB.WithContext(ctx).
		Where("disabled = ?", false).
		Where("(leetcode_handle <> '' OR codechef_handle <> '' OR codeforces_handle <> '')")
	if !seenSince.IsZero() {
		db = db.Where("last_seen >= ?", seenSince)
	}
	err := db.Order("id ASC").Find(&users).Error
	return users, err
}

// IsNotFound 统一判断记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
