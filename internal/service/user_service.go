package service

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/util"
	"context"
	"strings"
)

// UserService 用户资料与平台账号绑定
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		UserRepo: userRepo,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

// Handles 三个平台的账号，空字符串表示未绑定
type Handles struct {
	LeetCode   string `json:"leetcode"`
	CodeChef   string `json:"codechef"`
	Codeforces string `json:"codeforces"`
}

// UpdateHandles 覆盖用户绑定的平台账号。解绑后该平台的累计值在快照中沿用，已记录的进度不会回退。
func (s *UserService) UpdateHandles(ctx context.Context, userID uint, h Handles) (*model.User, error) {
	err := s.UserRepo.UpdateHandles(ctx, userID,
		strings.TrimSpace(h.LeetCode),
		strings.TrimSpace(h.CodeChef),
		strings.TrimSpace(h.Codeforces),
	)
	if repository.IsNotFound(err) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.UserRepo.FindByID(ctx, userID)
}
