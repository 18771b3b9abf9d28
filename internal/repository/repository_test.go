package repository_test

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilestoneCreateIfAbsent(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "ms@example.com")
	repo := repository.NewMilestoneRepository(db)
	ctx := context.Background()

	mc := func() *model.MilestoneCompletion {
		return &model.MilestoneCompletion{
			UserID:      u.ID,
			RoadmapID:   "backend",
			MilestoneID: "http-basics",
			CompletedAt: time.Now(),
			CreditDate:  "2024-03-10",
		}
	}

	created, err := repo.CreateIfAbsent(ctx, mc())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, mc())
	require.NoError(t, err)
	assert.False(t, created)

	rows, err := repo.ListByUser(ctx, u.ID, "backend")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = repo.ListByUser(ctx, u.ID, "frontend")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGoalUpsertAndFind(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "goal@example.com")
	repo := repository.NewGoalRepository(db)
	ctx := context.Background()

	g, err := repo.FindByMonth(ctx, u.ID, 2024, 3)
	require.NoError(t, err)
	assert.Nil(t, g)

	require.NoError(t, repo.Upsert(ctx, &model.MonthlyGoal{UserID: u.ID, Year: 2024, Month: 3, LeetCodeProblems: 20}))
	require.NoError(t, repo.Upsert(ctx, &model.MonthlyGoal{UserID: u.ID, Year: 2024, Month: 3, LeetCodeProblems: 30, DailyStudyMinutes: 60}))

	g, err = repo.FindByMonth(ctx, u.ID, 2024, 3)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, 30, g.LeetCodeProblems)
	assert.Equal(t, 60, g.DailyStudyMinutes)
}

func TestStreakUpsertOverwrites(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "streak@example.com")
	repo := repository.NewStreakRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.StreakRecord{UserID: u.ID, Date: "2024-03-10", OverallStreak: 2, HadOverallActivity: true}))
	require.NoError(t, repo.Upsert(ctx, &model.StreakRecord{UserID: u.ID, Date: "2024-03-10", OverallStreak: 3, HadOverallActivity: false}))

	rec, err := repo.FindByDate(ctx, u.ID, "2024-03-10")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 3, rec.OverallStreak)
	assert.False(t, rec.HadOverallActivity)

	recs, err := repo.FindRange(ctx, u.ID, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestUserFindActive(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	withHandle := testutil.CreateUser(t, db, "a@example.com", "alice")
	testutil.CreateUser(t, db, "b@example.com")
	disabled := testutil.CreateUser(t, db, "c@example.com", "", "", "tourist")
	require.NoError(t, db.Model(disabled).Update("disabled", true).Error)

	users, err := repo.FindActive(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, withHandle.ID, users[0].ID)

	require.NoError(t, repo.UpdateLastSeen(ctx, withHandle.ID, time.Now().Add(-72*time.Hour)))
	users, err = repo.FindActive(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserUpdateHandles(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "h@example.com", "old")

	require.NoError(t, repo.UpdateHandles(ctx, u.ID, "", "chef", "tourist"))
	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LeetCodeHandle)
	assert.Equal(t, "chef", got.CodeChefHandle)
	assert.Equal(t, "tourist", got.CodeforcesHandle)

	err = repo.UpdateHandles(ctx, 9999, "x", "", "")
	assert.True(t, repository.IsNotFound(err))
}

func TestProgressCacheDisabledIsNoop(t *testing.T) {
	var nilRepo *repository.ProgressCacheRepository
	ctx := context.Background()

	var out map[string]int
	assert.False(t, nilRepo.GetStreak(ctx, 1, &out))
	nilRepo.SetStreak(ctx, 1, map[string]int{"overall": 3})
	assert.NoError(t, nilRepo.Invalidate(ctx, 1, time.Now()))

	repo := repository.NewProgressCacheRepository(nil, 0)
	assert.Equal(t, 5*time.Minute, repo.TTL)
	assert.False(t, repo.GetProgress(ctx, 1, 2024, 3, &out))
	repo.SetProgress(ctx, 1, 2024, 3, out)
}
