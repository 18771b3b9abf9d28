package service

import (
	"codepulse_backend/internal/config"
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/platform"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/util"
	"codepulse_backend/pkg/logger"
	"codepulse_backend/pkg/monitoring"
	"codepulse_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type SyncState string

const (
	StatePending         SyncState = "PENDING"
	StateFetching        SyncState = "FETCHING"
	StateDiffing         SyncState = "DIFFING"
	StateCommitting      SyncState = "COMMITTING"
	StateStreakRecompute SyncState = "STREAK_RECOMPUTE"
	StateDone            SyncState = "DONE"
	StatePartial         SyncState = "PARTIAL"
	StateFailed          SyncState = "FAILED"
)

const NoHandlesNote = "no platform handles configured, nothing to sync"

type SyncOptions struct {
	// MonthlyOnly 只刷新本月累计值，不改写当天增量（不影响连续天数）
	MonthlyOnly bool `json:"monthlyOnly"`
}

// SyncError 单个平台的软失败，只作提示
type SyncError struct {
	Platform string `json:"platform"`
	Message  string `json:"message"`
}

type SyncResult struct {
	RunID      string              `json:"runId"`
	UserID     uint                `json:"userId"`
	Date       string              `json:"date"`
	State      SyncState           `json:"state"`
	Monthly    PlatformCounts      `json:"monthly"`
	Daily      PlatformCounts      `json:"daily"`
	Streak     *model.StreakRecord `json:"streak,omitempty"`
	Errors     []SyncError         `json:"errors"`
	Note       string              `json:"note,omitempty"`
	Summary    string              `json:"summary"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
}

type SweepError struct {
	UserID  uint   `json:"userId"`
	Message string `json:"message"`
}

type SweepResult struct {
	RunID     string        `json:"runId"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Partial   int           `json:"partial"`
	Failed    int           `json:"failed"`
	Errors    []SweepError  `json:"errors"`
	Duration  time.Duration `json:"duration"`
}

// SyncService 同步编排：并发抓取各平台 -> 差量计算 -> 事务提交台账与快照 -> 重算连续天数
type SyncService struct {
	DB        *gorm.DB
	Users     *repository.UserRepository
	Snapshots *repository.SnapshotRepository
	Ledger    *repository.LedgerRepository
	Cache     *repository.ProgressCacheRepository
	Fetcher   platform.Fetcher
	Delta     *DeltaService
	Streaks   *StreakService
	Loc       *time.Location

	commitRetry      util.RetryPolicy
	activeWithinDays int
	workers          atomic.Int32
	now              func() time.Time
}

func NewSyncService(
	db *gorm.DB,
	users *repository.UserRepository,
	snapshots *repository.SnapshotRepository,
	ledger *repository.LedgerRepository,
	cache *repository.ProgressCacheRepository,
	fetcher platform.Fetcher,
	delta *DeltaService,
	streaks *StreakService,
	cfg config.SyncConfig,
) *SyncService {
	s := &SyncService{
		DB:        db,
		Users:     users,
		Snapshots: snapshots,
		Ledger:    ledger,
		Cache:     cache,
		Fetcher:   fetcher,
		Delta:     delta,
		Streaks:   streaks,
		Loc:       cfg.Location(),
		commitRetry: util.RetryPolicy{
			MaxAttempts: cfg.CommitRetry.MaxAttempts,
			MinBackoff:  cfg.CommitRetry.MinBackoff(),
			MaxBackoff:  cfg.CommitRetry.MaxBackoff(),
		},
		activeWithinDays: cfg.ActiveWithinDays,
		now:              time.Now,
	}
	s.SetWorkers(cfg.Workers)
	return s
}

// SetWorkers 批量同步的并发上限，配置热更新时调用
func (s *SyncService) SetWorkers(n int) {
	if n <= 0 {
		n = 1
	}
	s.workers.Store(int32(n))
}

func (s *SyncService) Workers() int {
	return int(s.workers.Load())
}

func (s *SyncService) today() time.Time {
	return util.Day(s.now().In(s.Loc))
}

// SyncUser 同步单个用户。平台抓取失败只体现在 Errors 中（状态为 PARTIAL）；
// 只有事务提交失败才返回错误，此时状态为 FAILED 且没有任何部分写入。
func (s *SyncService) SyncUser(ctx context.Context, userID uint, opts SyncOptions) (res *SyncResult, err error) {
	started := s.now()
	ctx, span := tracing.Start(ctx, "sync.user")
	span.SetAttributes(attribute.Int64("user.id", int64(userID)), attribute.Bool("monthly_only", opts.MonthlyOnly))

	res = &SyncResult{
		RunID:     uuid.NewString(),
		UserID:    userID,
		State:     StatePending,
		Errors:    []SyncError{},
		StartedAt: started,
	}
	log := logger.L().With(zap.String("runID", res.RunID), zap.Uint("userID", userID))

	defer func() {
		res.FinishedAt = s.now()
		monitoring.SyncRuns.WithLabelValues(string(res.State)).Inc()
		monitoring.SyncDuration.Observe(time.Since(started).Seconds())
		tracing.End(span, err)
	}()

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		res.State = StateFailed
		if repository.IsNotFound(err) {
			return res, util.ErrUserNotFound
		}
		return res, fmt.Errorf("load user: %w", err)
	}

	today := s.today()
	res.Date = util.FormatDate(today)

	if !user.HasAnyHandle() {
		res.State = StateDone
		res.Note = NoHandlesNote
		res.Summary = NoHandlesNote
		log.Info("sync skipped", zap.String("reason", NoHandlesNote))
		return res, nil
	}

	res.State = StateFetching
	stats := s.fetchAll(ctx, user)
	for _, st := range stats {
		if st.OK() {
			continue
		}
		msg := "platform unavailable"
		if st.Err != nil {
			msg = st.Err.Error()
		}
		res.Errors = append(res.Errors, SyncError{Platform: string(st.Platform), Message: msg})
	}

	res.State = StateDiffing
	prev, err := s.Snapshots.FindLatestOnOrBefore(ctx, userID, res.Date)
	if err != nil {
		res.State = StateFailed
		return res, fmt.Errorf("load previous snapshot: %w", err)
	}
	delta, err := s.Delta.ComputeDeltas(ctx, userID, today, mergeSnapshot(prev, stats))
	if err != nil {
		res.State = StateFailed
		return res, err
	}
	res.Monthly = delta.Monthly
	if !opts.MonthlyOnly {
		res.Daily = delta.Daily
	}

	res.State = StateCommitting
	if err = s.commit(ctx, userID, delta, opts); err != nil {
		res.State = StateFailed
		log.Error("sync commit failed, rolled back", zap.Error(err))
		return res, fmt.Errorf("%w: %v", util.ErrTransactionFailed, err)
	}

	res.State = StateStreakRecompute
	if streak, serr := s.Streaks.Recompute(ctx, userID, today); serr != nil {
		log.Warn("streak recompute failed after commit", zap.Error(serr))
	} else {
		res.Streak = streak
	}
	if cerr := s.Cache.Invalidate(ctx, userID, today); cerr != nil {
		log.Warn("invalidate progress cache failed", zap.Error(cerr))
	}
	if merr := s.Users.MarkSynced(ctx, userID, s.now()); merr != nil {
		log.Warn("mark user synced failed", zap.Error(merr))
	}

	if len(res.Errors) > 0 {
		res.State = StatePartial
	} else {
		res.State = StateDone
	}
	res.Summary = summarize(res, opts)

	log.Info("sync finished",
		zap.String("state", string(res.State)),
		zap.Int("monthlyProblems", res.Monthly.Problems()),
		zap.Int("dailyProblems", res.Daily.Problems()),
		zap.Int("platformErrors", len(res.Errors)),
	)
	return res, nil
}

// fetchAll 对已绑定的平台并发抓取，全部返回后再继续
func (s *SyncService) fetchAll(ctx context.Context, user *model.User) []platform.Stat {
	handles := map[platform.Platform]string{
		platform.LeetCode:   user.LeetCodeHandle,
		platform.CodeChef:   user.CodeChefHandle,
		platform.Codeforces: user.CodeforcesHandle,
	}

	var targets []platform.Platform
	for _, p := range platform.All {
		if handles[p] != "" {
			targets = append(targets, p)
		}
	}

	stats := make([]platform.Stat, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range targets {
		g.Go(func() error {
			stats[i] = s.Fetcher.FetchCumulative(gctx, p, handles[p])
			return nil
		})
	}
	_ = g.Wait()
	return stats
}

// mergeSnapshot 用本次成功抓到的值覆盖上一份快照；失败或未绑定的平台沿用上次的累计值，
// 避免把抓取失败记成 0 导致之后的差量虚高。
func mergeSnapshot(prev *model.PlatformSnapshot, stats []platform.Stat) model.PlatformSnapshot {
	var snap model.PlatformSnapshot
	if prev != nil {
		snap = model.PlatformSnapshot{
			LeetCodeTotal:          prev.LeetCodeTotal,
			CodeChefTotal:          prev.CodeChefTotal,
			CodeforcesTotal:        prev.CodeforcesTotal,
			CodeforcesContestTotal: prev.CodeforcesContestTotal,
			CodeChefContestTotal:   prev.CodeChefContestTotal,
		}
	}

	for _, st := range stats {
		if !st.OK() {
			continue
		}
		switch st.Platform {
		case platform.LeetCode:
			snap.LeetCodeTotal = st.Solved
		case platform.CodeChef:
			snap.CodeChefTotal = st.Solved
			if st.ContestCount != nil {
				snap.CodeChefContestTotal = *st.ContestCount
			}
		case platform.Codeforces:
			snap.CodeforcesTotal = st.Solved
			if st.ContestCount != nil {
				snap.CodeforcesContestTotal = *st.ContestCount
			}
		}
	}
	return snap
}

// commit 在一个事务中写入当天台账与快照，任一步失败整体回滚
func (s *SyncService) commit(ctx context.Context, userID uint, d *DeltaResult, opts SyncOptions) error {
	ctx, span := tracing.Start(ctx, "sync.commit")

	patch := repository.LedgerPatch{
		LeetCodeSolved:       &d.Monthly.LeetCode,
		CodeChefSolved:       &d.Monthly.CodeChef,
		CodeforcesSolved:     &d.Monthly.Codeforces,
		ContestsParticipated: &d.Monthly.Contests,
	}
	if !opts.MonthlyOnly {
		patch.LeetCodeDaily = &d.Daily.LeetCode
		patch.CodeChefDaily = &d.Daily.CodeChef
		patch.CodeforcesDaily = &d.Daily.Codeforces
		patch.ContestsDaily = &d.Daily.Contests
	}

	err := util.Retry(ctx, s.commitRetry, func(ctx context.Context) error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.Ledger.WithTx(tx).UpsertDay(ctx, userID, d.Date, patch); err != nil {
				return fmt.Errorf("upsert ledger: %w", err)
			}
			snap := d.Snapshot
			if err := s.Snapshots.WithTx(tx).Upsert(ctx, &snap); err != nil {
				return fmt.Errorf("upsert snapshot: %w", err)
			}
			return nil
		})
	})
	tracing.End(span, err)
	return err
}

func summarize(res *SyncResult, opts SyncOptions) string {
	var summary string
	if opts.MonthlyOnly {
		summary = fmt.Sprintf("%d problems solved this month", res.Monthly.Problems())
	} else {
		summary = fmt.Sprintf("found %d new problems today (%d this month)", res.Daily.Problems(), res.Monthly.Problems())
	}
	if n := len(res.Errors); n > 0 {
		summary += fmt.Sprintf("; %d platform(s) unavailable, previous totals kept", n)
	}
	return summary
}

// SyncAllActiveUsers 批量同步所有活跃用户，并发数受 workers 限制。
// 单个用户的失败记录在 Errors 中，不影响其他用户。
func (s *SyncService) SyncAllActiveUsers(ctx context.Context) (*SweepResult, error) {
	started := time.Now()
	sweep := &SweepResult{RunID: uuid.NewString(), Errors: []SweepError{}}
	log := logger.L().With(zap.String("sweepID", sweep.RunID))

	var since time.Time
	if s.activeWithinDays > 0 {
		since = s.now().AddDate(0, 0, -s.activeWithinDays)
	}
	users, err := s.Users.FindActive(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load active users: %w", err)
	}
	sweep.Total = len(users)

	type outcome struct {
		state SyncState
		err   error
	}
	outcomes := make([]outcome, len(users))

	g := new(errgroup.Group)
	g.SetLimit(s.Workers())
	for i, u := range users {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = outcome{state: StateFailed, err: fmt.Errorf("panic: %v", r)}
				}
			}()
			res, err := s.SyncUser(ctx, u.ID, SyncOptions{})
			o := outcome{err: err}
			if res != nil {
				o.state = res.State
			}
			outcomes[i] = o
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range outcomes {
		switch {
		case o.err != nil:
			sweep.Failed++
			sweep.Errors = append(sweep.Errors, SweepError{UserID: users[i].ID, Message: o.err.Error()})
			monitoring.SweepUsers.WithLabelValues("failed").Inc()
		case o.state == StatePartial:
			sweep.Partial++
			monitoring.SweepUsers.WithLabelValues("partial").Inc()
		default:
			sweep.Succeeded++
			monitoring.SweepUsers.WithLabelValues("ok").Inc()
		}
	}
	sweep.Duration = time.Since(started)

	log.Info("sync sweep finished",
		zap.Int("total", sweep.Total),
		zap.Int("succeeded", sweep.Succeeded),
		zap.Int("partial", sweep.Partial),
		zap.Int("failed", sweep.Failed),
		zap.Duration("duration", sweep.Duration),
	)
	if ctx.Err() != nil {
		return sweep, ctx.Err()
	}
	return sweep, nil
}

// IsCommitFailure 是否为事务提交失败
func IsCommitFailure(err error) bool {
	return errors.Is(err, util.ErrTransactionFailed)
}
