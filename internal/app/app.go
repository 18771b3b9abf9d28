package app

import (
	"codepulse_backend/internal/config"
	"codepulse_backend/internal/controller"
	"codepulse_backend/internal/platform"
	"codepulse_backend/internal/repository"
	"codepulse_backend/internal/service"
	"codepulse_backend/pkg/configwatcher"
	"codepulse_backend/pkg/database"
	"codepulse_backend/pkg/logger"
	"codepulse_backend/pkg/monitoring"
	"codepulse_backend/pkg/security"
	"codepulse_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const configDir = "configs"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	stopBackground  context.CancelFunc
}

type repositories struct {
	user      *repository.UserRepository
	snapshot  *repository.SnapshotRepository
	ledger    *repository.LedgerRepository
	goal      *repository.GoalRepository
	streak    *repository.StreakRepository
	milestone *repository.MilestoneRepository
	cache     *repository.ProgressCacheRepository
}

type services struct {
	auth      *service.AuthService
	user      *service.UserService
	delta     *service.DeltaService
	streak    *service.StreakService
	progress  *service.ProgressService
	activity  *service.ActivityService
	milestone *service.MilestoneService
	sync      *service.SyncService
}

type controllers struct {
	auth      *controller.AuthController
	user      *controller.UserController
	sync      *controller.SyncController
	progress  *controller.ProgressController
	streak    *controller.StreakController
	activity  *controller.ActivityController
	milestone *controller.MilestoneController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		snapshot:  repository.NewSnapshotRepository(db),
		ledger:    repository.NewLedgerRepository(db),
		goal:      repository.NewGoalRepository(db),
		streak:    repository.NewStreakRepository(db),
		milestone: repository.NewMilestoneRepository(db),
		cache:     repository.NewProgressCacheRepository(rdb, time.Duration(cfg.Redis.CacheTTLSeconds)*time.Second),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}
	loc := cfg.Sync.Location()

	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.delta = service.NewDeltaService(repos.snapshot, repos.ledger)
	s.streak = service.NewStreakService(repos.ledger, repos.streak, repos.cache, loc, cfg.Sync.StreakWindowDays)
	s.progress = service.NewProgressService(repos.goal, repos.ledger, repos.cache)
	s.activity = service.NewActivityService(repos.ledger, repos.cache, s.streak, loc)
	s.milestone = service.NewMilestoneService(db, repos.milestone, repos.ledger, repos.cache, s.streak, loc)

	s.sync = service.NewSyncService(
		db,
		repos.user,
		repos.snapshot,
		repos.ledger,
		repos.cache,
		platform.NewClient(cfg.Platforms),
		s.delta,
		s.streak,
		cfg.Sync,
	)

	// 配置热更新
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.sync.SetWorkers(newCfg.Sync.Workers)
		s.streak.SetWindow(newCfg.Sync.StreakWindowDays)
		logger.L().Info("sync tunables updated",
			zap.Int("workers", s.sync.Workers()),
			zap.Int("streakWindowDays", s.streak.Window()),
		)
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		user:      controller.NewUserController(s.user),
		sync:      controller.NewSyncController(s.sync),
		progress:  controller.NewProgressController(s.progress),
		streak:    controller.NewStreakController(s.streak),
		activity:  controller.NewActivityController(s.activity),
		milestone: controller.NewMilestoneController(s.milestone),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute, security.ByClientIP))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 定时批量同步与配置文件监听，ctx 取消时退出
func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	interval := time.Duration(a.Config.Sync.SweepIntervalMinutes) * time.Minute
	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := s.sync.SyncAllActiveUsers(ctx); err != nil {
						logger.L().Error("scheduled sync sweep error", zap.Error(err))
					}
				}
			}
		}()
	}

	go func() {
		err := configwatcher.WatchConfig(ctx, filepath.Join(configDir, "config.yaml"), func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.L().Warn("config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg, db)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("codepulse-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	if cfg.SweepOnce {
		return app
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	app.stopBackground = cancel
	app.startBackgroundTasks(ctx, services)

	return app
}

// SweepOnce 执行一次批量同步后返回，用于 cron 等外部调度
func (a *App) SweepOnce(ctx context.Context) error {
	res, err := a.services.sync.SyncAllActiveUsers(ctx)
	if err != nil {
		return err
	}
	logger.Log.Info("sweep once finished",
		zap.String("sweepID", res.RunID),
		zap.Int("total", res.Total),
		zap.Int("failed", res.Failed),
	)
	a.shutdownTracer()
	return nil
}

func (a *App) shutdownTracer() {
	if a.tracer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// 停止定时同步与配置监听
	if a.stopBackground != nil {
		a.stopBackground()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.shutdownTracer()
	if a.Redis != nil {
		a.Redis.Close()
	}
	logger.Log.Info("Server exiting")
}
