package service

import (
	"codepulse_backend/internal/config"
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/platform"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/testutil"
	"codepulse_backend/internal/util"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeFetcher 按平台返回预设结果，未设置的平台视为失败
type fakeFetcher struct {
	mu    sync.Mutex
	stats map[platform.Platform]platform.Stat
	calls map[platform.Platform]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		stats: make(map[platform.Platform]platform.Stat),
		calls: make(map[platform.Platform]int),
	}
}

func (f *fakeFetcher) set(p platform.Platform, st platform.Stat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st.Platform = p
	f.stats[p] = st
}

func (f *fakeFetcher) FetchCumulative(_ context.Context, p platform.Platform, _ string) platform.Stat {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[p]++
	st, ok := f.stats[p]
	if !ok {
		zero := 0
		return platform.Stat{Platform: p, Status: platform.StatusFailed, ContestCount: &zero, Err: errors.New("upstream down")}
	}
	return st
}

func solved(n int) platform.Stat {
	return platform.Stat{Status: platform.StatusOK, Solved: n}
}

func solvedWithContests(n, contests int) platform.Stat {
	return platform.Stat{Status: platform.StatusOK, Solved: n, ContestCount: &contests}
}

type testEnv struct {
	t          *testing.T
	db         *gorm.DB
	fetcher    *fakeFetcher
	snapshots  *repository.SnapshotRepository
	ledger     *repository.LedgerRepository
	sync       *SyncService
	streaks    *StreakService
	progress   *ProgressService
	milestones *MilestoneService
	activity   *ActivityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	cache := repository.NewProgressCacheRepository(nil, 0)
	users := repository.NewUserRepository(db)
	snapshots := repository.NewSnapshotRepository(db)
	ledger := repository.NewLedgerRepository(db)
	fetcher := newFakeFetcher()

	streaks := NewStreakService(ledger, repository.NewStreakRepository(db), cache, time.UTC, 45)
	delta := NewDeltaService(snapshots, ledger)
	syncSvc := NewSyncService(db, users, snapshots, ledger, cache, fetcher, delta, streaks, config.SyncConfig{
		Timezone: "UTC",
		Workers:  2,
	})

	return &testEnv{
		t:          t,
		db:         db,
		fetcher:    fetcher,
		snapshots:  snapshots,
		ledger:     ledger,
		sync:       syncSvc,
		streaks:    streaks,
		progress:   NewProgressService(repository.NewGoalRepository(db), ledger, cache),
		milestones: NewMilestoneService(db, repository.NewMilestoneRepository(db), ledger, cache, streaks, time.UTC),
		activity:   NewActivityService(ledger, cache, streaks, time.UTC),
	}
}

// at 把所有服务的时钟固定到某天中午
func (e *testEnv) at(date string) time.Time {
	e.t.Helper()
	d, err := util.ParseDate(date, time.UTC)
	require.NoError(e.t, err)
	noon := d.Add(12 * time.Hour)
	clock := func() time.Time { return noon }
	e.sync.now = clock
	e.streaks.now = clock
	e.milestones.now = clock
	e.activity.now = clock
	return d
}

func (e *testEnv) seedSnapshot(userID uint, date string, lc, cc, cf int) {
	e.t.Helper()
	require.NoError(e.t, e.snapshots.Upsert(context.Background(), &model.PlatformSnapshot{
		UserID:          userID,
		Date:            date,
		LeetCodeTotal:   lc,
		CodeChefTotal:   cc,
		CodeforcesTotal: cf,
	}))
}

func (e *testEnv) seedLedger(userID uint, date string, p repository.LedgerPatch) {
	e.t.Helper()
	require.NoError(e.t, e.ledger.UpsertDay(context.Background(), userID, date, p))
}

func (e *testEnv) day(userID uint, date string) *model.ActivityLedgerEntry {
	e.t.Helper()
	row, err := e.ledger.GetDay(context.Background(), userID, date)
	require.NoError(e.t, err)
	return row
}

func intp(v int) *int { return &v }
