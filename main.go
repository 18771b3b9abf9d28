// @title CodePulse 后端 API
// @version 1.0
// @description 刷题进度同步与学习台账服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"codepulse_backend/internal/app"
	"codepulse_backend/internal/config"
	"codepulse_backend/pkg/logger"
	"context"
	"flag"
	"log"
	"time"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	sweepOnce := flag.Bool("sweep-once", false, "执行一次活跃用户批量同步后退出")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.MigrateOnly = *migrateOnly
	cfg.SweepOnce = *sweepOnce

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	if *sweepOnce {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if err := application.SweepOnce(ctx); err != nil {
			log.Fatalf("sweep failed: %v", err)
		}
		return
	}

	application.Run()
}
