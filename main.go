// @title 课时排程与评估生命周期服务 API
// @version 1.0
// @description 按学期周次生成课时、管理评估窗口与缺考兜底的后端服务。

// @host localhost:8080
// @BasePath /api

package main

import (
	"flag"
	"log"

	"github.com/forhay123/haybee-edu-sub014/internal/app"
	"github.com/forhay123/haybee-edu-sub014/internal/config"
	"github.com/forhay123/haybee-edu-sub014/pkg/configwatcher"
	"github.com/forhay123/haybee-edu-sub014/pkg/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		if c, ok := newCfg.(*config.Config); ok {
			application.Config = c
			logger.Log.Info("配置已热更新")
		}
	})

	application.Run()
}
