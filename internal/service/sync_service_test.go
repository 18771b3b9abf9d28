package service

import (
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/platform"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/testutil"
	"codepulse_backend/internal/util"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSyncUserMonthlyAndDailyScenario(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "scenario@example.com", "alice")
	env.seedSnapshot(u.ID, "2024-02-29", 50, 0, 0)
	env.seedLedger(u.ID, "2024-03-09", repository.LedgerPatch{LeetCodeSolved: intp(10), LeetCodeDaily: intp(1)})
	env.at("2024-03-10")
	env.fetcher.set(platform.LeetCode, solved(62))

	res, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 12, res.Monthly.LeetCode)
	assert.Equal(t, 2, res.Daily.LeetCode)
	assert.Equal(t, "found 2 new problems today (12 this month)", res.Summary)
	assert.NotEmpty(t, res.RunID)

	row := env.day(u.ID, "2024-03-10")
	assert.Equal(t, 12, row.LeetCodeSolved, "ledger holds monthly-to-date, not yesterday + today")
	assert.Equal(t, 2, row.LeetCodeDaily)
	assert.Equal(t, 12, row.TotalProblemsSolved)

	snap, err := env.snapshots.FindByDate(context.Background(), u.ID, "2024-03-10")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 62, snap.LeetCodeTotal, "snapshot keeps the raw cumulative counter")

	require.NotNil(t, res.Streak)
	assert.Equal(t, 2, res.Streak.LeetCodeStreak)
}

func TestSyncUserIsIdempotentWithinADay(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "idem@example.com", "alice", "chef", "tourist")
	env.seedSnapshot(u.ID, "2024-02-20", 100, 20, 300)
	env.at("2024-03-05")
	env.fetcher.set(platform.LeetCode, solved(110))
	env.fetcher.set(platform.CodeChef, solvedWithContests(25, 4))
	env.fetcher.set(platform.Codeforces, solvedWithContests(301, 9))

	first, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)
	rowAfterFirst := *env.day(u.ID, "2024-03-05")

	second, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)
	rowAfterSecond := *env.day(u.ID, "2024-03-05")

	assert.Equal(t, first.Monthly, second.Monthly)
	assert.Equal(t, first.Daily, second.Daily)
	rowAfterFirst.UpdatedAt, rowAfterSecond.UpdatedAt = rowAfterFirst.CreatedAt, rowAfterSecond.CreatedAt
	assert.Equal(t, rowAfterFirst, rowAfterSecond)
	assert.Equal(t, 10+5+1, rowAfterSecond.TotalProblemsSolved)

	var snapshots int64
	require.NoError(t, env.db.Model(&model.PlatformSnapshot{}).Where("user_id = ?", u.ID).Count(&snapshots).Error)
	assert.Equal(t, int64(2), snapshots)
}

func TestSyncUserNeverProducesNegativeDeltas(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "neg@example.com", "alice")
	env.seedSnapshot(u.ID, "2024-02-28", 80, 0, 0)

	// 上游计数在本月内上下波动，包括低于基线
	sequence := []struct {
		date  string
		total int
	}{
		{"2024-03-01", 85},
		{"2024-03-02", 70},
		{"2024-03-03", 90},
		{"2024-03-04", 88},
		{"2024-03-05", 60},
		{"2024-03-06", 95},
	}
	for _, step := range sequence {
		env.at(step.date)
		env.fetcher.set(platform.LeetCode, solved(step.total))

		res, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Monthly.LeetCode, 0, step.date)
		assert.GreaterOrEqual(t, res.Daily.LeetCode, 0, step.date)

		row := env.day(u.ID, step.date)
		assert.GreaterOrEqual(t, row.LeetCodeSolved, 0)
		assert.GreaterOrEqual(t, row.LeetCodeDaily, 0)
	}

	assert.Equal(t, 0, env.day(u.ID, "2024-03-02").LeetCodeSolved)
	assert.Equal(t, 15, env.day(u.ID, "2024-03-06").LeetCodeSolved)
	assert.Equal(t, 15, env.day(u.ID, "2024-03-06").LeetCodeDaily)
}

func TestSyncUserPartialFailureCarriesForward(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "partial@example.com", "alice", "", "tourist")
	env.seedSnapshot(u.ID, "2024-02-29", 50, 0, 200)
	env.seedSnapshot(u.ID, "2024-03-09", 55, 0, 210)
	env.at("2024-03-10")
	env.fetcher.set(platform.LeetCode, solved(57))

	res, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, StatePartial, res.State)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "codeforces", res.Errors[0].Platform)
	assert.Contains(t, res.Summary, "1 platform(s) unavailable")

	assert.Equal(t, 7, res.Monthly.LeetCode)
	assert.Equal(t, 10, res.Monthly.Codeforces, "failed platform keeps its last known counter")

	snap, err := env.snapshots.FindByDate(context.Background(), u.ID, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, 210, snap.CodeforcesTotal)
	assert.Equal(t, 0, env.fetcher.calls[platform.CodeChef], "unbound platform is not fetched")
}

func TestSyncUserAllPlatformsFailStillCommits(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "allfail@example.com", "alice", "chef")
	env.seedSnapshot(u.ID, "2024-02-29", 50, 10, 0)
	env.seedSnapshot(u.ID, "2024-03-05", 60, 12, 0)
	env.at("2024-03-06")

	res, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, StatePartial, res.State)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, 10, res.Monthly.LeetCode)
	assert.Equal(t, 2, res.Monthly.CodeChef)
}

func TestSyncUserWithoutHandles(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "nohandles@example.com")
	env.at("2024-03-10")

	res, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, NoHandlesNote, res.Note)
	assert.Zero(t, res.Monthly)
	assert.Zero(t, res.Daily)
	assert.Empty(t, res.Errors)

	var rows int64
	require.NoError(t, env.db.Model(&model.ActivityLedgerEntry{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestSyncUserUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	env.at("2024-03-10")

	_, err := env.sync.SyncUser(context.Background(), 4242, SyncOptions{})
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func failSnapshotWrites(t *testing.T, db *gorm.DB, only func(*model.PlatformSnapshot) bool) {
	t.Helper()
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_snapshot", func(tx *gorm.DB) {
		if tx.Statement.Table != "platform_snapshots" {
			return
		}
		if s, ok := tx.Statement.Dest.(*model.PlatformSnapshot); ok && only != nil && !only(s) {
			return
		}
		tx.AddError(errors.New("disk full"))
	}))
}

func TestSyncUserCommitIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "atomic@example.com", "alice")
	env.at("2024-03-10")
	env.fetcher.set(platform.LeetCode, solved(30))
	failSnapshotWrites(t, env.db, nil)

	res, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrTransactionFailed)
	assert.True(t, IsCommitFailure(err))
	assert.Equal(t, StateFailed, res.State)

	found, err := env.ledger.FindDay(context.Background(), u.ID, "2024-03-10")
	require.NoError(t, err)
	assert.Nil(t, found, "ledger row must be rolled back with the snapshot")

	snap, err := env.snapshots.FindByDate(context.Background(), u.ID, "2024-03-10")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSyncUserMonthlyOnlyKeepsDailyIncrements(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "monthly@example.com", "alice")
	env.seedSnapshot(u.ID, "2024-02-29", 50, 0, 0)
	env.at("2024-03-10")

	env.fetcher.set(platform.LeetCode, solved(53))
	_, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)

	env.fetcher.set(platform.LeetCode, solved(58))
	res, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{MonthlyOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Monthly.LeetCode)
	assert.Zero(t, res.Daily)
	assert.Equal(t, "8 problems solved this month", res.Summary)

	row := env.day(u.ID, "2024-03-10")
	assert.Equal(t, 8, row.LeetCodeSolved)
	assert.Equal(t, 3, row.LeetCodeDaily)
}

func TestSyncUserRemovedHandleDoesNotRetractProgress(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "removed@example.com", "alice", "", "tourist")
	env.seedSnapshot(u.ID, "2024-02-29", 50, 0, 100)
	env.at("2024-03-09")
	env.fetcher.set(platform.LeetCode, solved(62))
	env.fetcher.set(platform.Codeforces, solved(100))
	_, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)

	require.NoError(t, repository.NewUserRepository(env.db).UpdateHandles(context.Background(), u.ID, "", "", "tourist"))
	env.at("2024-03-10")
	env.fetcher.set(platform.Codeforces, solved(101))
	res, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 12, res.Monthly.LeetCode)
	assert.Equal(t, 0, res.Daily.LeetCode)
	assert.Equal(t, 1, res.Daily.Codeforces)
	assert.Equal(t, 13, env.day(u.ID, "2024-03-10").TotalProblemsSolved)
}

func TestSyncUserMonthBoundary(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "boundary@example.com", "alice")
	env.seedSnapshot(u.ID, "2024-03-31", 120, 0, 0)
	env.seedLedger(u.ID, "2024-03-31", repository.LedgerPatch{LeetCodeSolved: intp(40)})
	env.at("2024-04-01")
	env.fetcher.set(platform.LeetCode, solved(123))

	res, err := env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Monthly.LeetCode)
	assert.Equal(t, 3, res.Daily.LeetCode, "yesterday belongs to the previous month")

	// 同一天再次同步时基线仍是上月的快照
	res, err = env.sync.SyncUser(context.Background(), u.ID, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Monthly.LeetCode)
}

// 基线严格取 1 号之前的快照，1 号当天写入的快照不参与本月基线
func TestMonthBaselineExcludesFirstOfMonthSnapshot(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "first@example.com", "alice")
	env.seedSnapshot(u.ID, "2024-02-29", 100, 0, 0)
	env.seedSnapshot(u.ID, "2024-03-01", 115, 0, 0)
	delta := NewDeltaService(env.snapshots, env.ledger)

	for _, date := range []string{"2024-03-01", "2024-03-05"} {
		res, err := delta.ComputeDeltas(context.Background(), u.ID, env.at(date), model.PlatformSnapshot{LeetCodeTotal: 120})
		require.NoError(t, err)
		assert.Equal(t, 20, res.Monthly.LeetCode, date)
	}
}

func TestSyncAllActiveUsersIsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	ok := testutil.CreateUser(t, env.db, "ok@example.com", "alice")
	partial := testutil.CreateUser(t, env.db, "partial@example.com", "", "chef")
	broken := testutil.CreateUser(t, env.db, "broken@example.com", "bob")
	testutil.CreateUser(t, env.db, "idle@example.com")
	env.at("2024-03-10")
	env.fetcher.set(platform.LeetCode, solved(5))

	failSnapshotWrites(t, env.db, func(s *model.PlatformSnapshot) bool { return s.UserID == broken.ID })

	sweep, err := env.sync.SyncAllActiveUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sweep.Total)
	assert.Equal(t, 1, sweep.Succeeded)
	assert.Equal(t, 1, sweep.Partial)
	assert.Equal(t, 1, sweep.Failed)
	require.Len(t, sweep.Errors, 1)
	assert.Equal(t, broken.ID, sweep.Errors[0].UserID)

	assert.Equal(t, 5, env.day(ok.ID, "2024-03-10").LeetCodeSolved)
	found, err := env.ledger.FindDay(context.Background(), partial.ID, "2024-03-10")
	require.NoError(t, err)
	assert.NotNil(t, found)
}

func TestSyncServiceTunables(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, 2, env.sync.Workers())
	env.sync.SetWorkers(8)
	assert.Equal(t, 8, env.sync.Workers())
	env.sync.SetWorkers(0)
	assert.Equal(t, 1, env.sync.Workers())
}
