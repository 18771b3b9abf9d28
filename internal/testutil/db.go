// Package testutil 测试用的数据库与数据构造工具
package testutil

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/pkg/database"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 在临时目录中创建已迁移的 SQLite 数据库
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "codepulse_test.db")
	db, err := database.OpenSQLite(path, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser 插入一个测试用户，handles 依次为 leetcode / codechef / codeforces
func CreateUser(t testing.TB, db *gorm.DB, email string, handles ...string) *model.User {
	t.Helper()

	u := &model.User{
		Name:     email,
		Email:    email,
		Password: "x",
		Role:     model.Student,
	}
	if len(handles) > 0 {
		u.LeetCodeHandle = handles[0]
	}
	if len(handles) > 1 {
		u.CodeChefHandle = handles[1]
	}
	if len(handles) > 2 {
		u.CodeforcesHandle = handles[2]
	}
	require.NoError(t, db.WithContext(context.Background()).Create(u).Error)
	return u
}
