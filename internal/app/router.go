package app

import (
	"codepulse_backend/docs"
	"codepulse_backend/internal/config"
	"codepulse_backend/internal/middleware"
	"codepulse_backend/internal/model"
	"codepulse_backend/internal/util"
	"codepulse_backend/pkg/monitoring"
	"codepulse_backend/pkg/security"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c, cfg)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

// byUser 按登录用户限流
func byUser(ctx *gin.Context) string {
	if claims := util.GetUserFromContext(ctx); claims != nil {
		return "user:" + strconv.FormatUint(uint64(claims.UserID), 10)
	}
	return security.ByClientIP(ctx)
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers, cfg *config.Config) {
	user := rg.Group("/user")
	{
		user.GET("/profile", c.user.GetProfile)
		user.PUT("/handles", c.user.UpdateHandles)
	}

	// 手动同步会访问外部平台，按用户单独限流
	rg.POST("/sync", security.RateLimiter(cfg.RateLimit.SyncPerUserPerHour, time.Hour, byUser), c.sync.SyncNow)

	activity := rg.Group("/activity")
	{
		activity.GET("", c.activity.ListRange)
		activity.POST("/study", c.activity.AddStudyMinutes)
		activity.GET("/:date", c.activity.GetDay)
	}

	goals := rg.Group("/goals")
	{
		goals.GET("/:year/:month", c.progress.GetGoal)
		goals.PUT("/:year/:month", c.progress.UpsertGoal)
	}
	rg.GET("/progress/:year/:month", c.progress.GetMonthlyProgress)

	streak := rg.Group("/streak")
	{
		streak.GET("", c.streak.GetCurrentStreak)
		streak.GET("/history", c.streak.GetStreakHistory)
	}

	milestones := rg.Group("/milestones")
	{
		milestones.GET("", c.milestone.List)
		milestones.POST("/complete", c.milestone.Complete)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.ActivityMiddleware(repos.user))
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/sync/sweep", c.sync.Sweep)
	}
}
