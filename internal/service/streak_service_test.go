package service

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/testutil"
	"codepulse_backend/internal/util"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreakGraceFallsBackToYesterday(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "grace@example.com")
	today := env.at("2024-03-10")

	for _, d := range []string{"2024-03-07", "2024-03-08", "2024-03-09"} {
		env.seedLedger(u.ID, d, repository.LedgerPatch{LeetCodeDaily: intp(1)})
	}

	rec, err := env.streaks.Recompute(context.Background(), u.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.LeetCodeStreak)
	assert.Equal(t, 3, rec.CodingStreak)
	assert.Equal(t, 3, rec.OverallStreak)
	assert.Equal(t, 0, rec.CodeChefStreak)
	assert.False(t, rec.HadLeetCodeActivity, "no row for today yet")

	env.seedLedger(u.ID, "2024-03-10", repository.LedgerPatch{LeetCodeDaily: intp(2)})
	rec, err = env.streaks.Recompute(context.Background(), u.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.LeetCodeStreak)
	assert.True(t, rec.HadLeetCodeActivity)
}

func TestStreakGapBreaksTheRun(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "gap@example.com")
	today := env.at("2024-03-10")

	env.seedLedger(u.ID, "2024-03-07", repository.LedgerPatch{StudyMinutesDelta: 30})
	env.seedLedger(u.ID, "2024-03-09", repository.LedgerPatch{StudyMinutesDelta: 30})

	// 今天无活动时锚定到昨天：只要昨天有活动就计 1，前天（8 号）断档不会让结果变成 0。
	// 这里按连续天数的定义计算，有意不采用“前天断档即为 0”的口径。
	rec, err := env.streaks.Recompute(context.Background(), u.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.StudyStreak, "the gap on the 8th stops the walk")

	env.seedLedger(u.ID, "2024-03-06", repository.LedgerPatch{StudyMinutesDelta: 30})
	rec, err = env.streaks.Recompute(context.Background(), u.ID, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, rec.StudyStreak, "nothing on the anchor day or the day before")
}

func TestStreakCategoriesUseOr(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "or@example.com")
	today := env.at("2024-03-10")

	env.seedLedger(u.ID, "2024-03-08", repository.LedgerPatch{LeetCodeDaily: intp(1)})
	env.seedLedger(u.ID, "2024-03-09", repository.LedgerPatch{CodeforcesDaily: intp(3)})
	env.seedLedger(u.ID, "2024-03-10", repository.LedgerPatch{MilestonesDelta: 1})

	rec, err := env.streaks.Recompute(context.Background(), u.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.CodingStreak, "any platform counts as coding")
	assert.Equal(t, 1, rec.CodeforcesStreak)
	assert.Equal(t, 0, rec.LeetCodeStreak)
	assert.Equal(t, 1, rec.CareerStreak)
	assert.Equal(t, 3, rec.OverallStreak)
	assert.True(t, rec.HadCareerActivity)
	assert.False(t, rec.HadCodingActivity)
}

func TestStreakBoundedByWindow(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "window@example.com")
	today := env.at("2024-03-10")
	env.streaks.SetWindow(10)

	for i := 0; i < 30; i++ {
		d := util.FormatDate(today.AddDate(0, 0, -i))
		env.seedLedger(u.ID, d, repository.LedgerPatch{StudyMinutesDelta: 5})
	}

	rec, err := env.streaks.Recompute(context.Background(), u.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.StudyStreak)

	env.streaks.SetWindow(0)
	assert.Equal(t, defaultStreakWindow, env.streaks.Window())
}

func TestStreakBoundedByWindowWhenTodayIsInactive(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "window-grace@example.com")
	today := env.at("2024-03-10")
	env.streaks.SetWindow(10)

	for i := 1; i <= 29; i++ {
		d := util.FormatDate(today.AddDate(0, 0, -i))
		env.seedLedger(u.ID, d, repository.LedgerPatch{StudyMinutesDelta: 5})
	}

	rec, err := env.streaks.Recompute(context.Background(), u.ID, today)
	require.NoError(t, err)
	assert.False(t, rec.HadStudyActivity)
	assert.Equal(t, 10, rec.StudyStreak, "a run anchored on yesterday still reports the full window")
	assert.Equal(t, 10, rec.OverallStreak)
}

func TestCurrentStreakAndHistory(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "history@example.com")
	ctx := context.Background()

	env.at("2024-03-09")
	env.seedLedger(u.ID, "2024-03-09", repository.LedgerPatch{StudyMinutesDelta: 20})
	_, err := env.streaks.CurrentStreak(ctx, u.ID)
	require.NoError(t, err)

	env.at("2024-03-10")
	env.seedLedger(u.ID, "2024-03-10", repository.LedgerPatch{StudyMinutesDelta: 20})
	cur, err := env.streaks.CurrentStreak(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", cur.Date)
	assert.Equal(t, 2, cur.StudyStreak)

	history, err := env.streaks.StreakHistory(ctx, u.ID, 7)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-03-10", history[0].Date)
	assert.Equal(t, 1, history[1].StudyStreak)
}

func TestBackfilledStudyUpdatesStreakHistory(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "backfill@example.com")
	ctx := context.Background()

	env.at("2024-03-08")
	_, err := env.activity.AddStudyMinutes(ctx, u.ID, "", 30)
	require.NoError(t, err)

	env.at("2024-03-09")
	cur, err := env.streaks.CurrentStreak(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cur.StudyStreak)

	env.at("2024-03-10")
	_, err = env.activity.AddStudyMinutes(ctx, u.ID, "2024-03-09", 20)
	require.NoError(t, err)
	_, err = env.activity.AddStudyMinutes(ctx, u.ID, "", 10)
	require.NoError(t, err)

	history, err := env.streaks.StreakHistory(ctx, u.ID, 7)
	require.NoError(t, err)
	byDate := make(map[string]int, len(history))
	for _, rec := range history {
		byDate[rec.Date] = rec.StudyStreak
	}
	assert.Equal(t, map[string]int{
		"2024-03-08": 1,
		"2024-03-09": 2,
		"2024-03-10": 3,
	}, byDate)
}

func TestRecomputeSinceIsBoundedByWindow(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "since@example.com")
	today := env.at("2024-03-10")
	env.streaks.SetWindow(3)

	rec, err := env.streaks.RecomputeSince(context.Background(), u.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), today)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", rec.Date)

	var saved int64
	require.NoError(t, env.db.Model(&model.StreakRecord{}).Where("user_id = ?", u.ID).Count(&saved).Error)
	assert.Equal(t, int64(3), saved)
}
