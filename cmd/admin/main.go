package main

import (
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"store-rating-api/internal/app"
	"store-rating-api/internal/core/config"
	"store-rating-api/internal/core/logger"
	"store-rating-api/internal/core/server"
	"store-rating-api/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer a.Close()

	// 路由（后台端）
	r := router.NewAdminEngine(a.Deps(router.Modules(a.Services, nil)))

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	log.Info("admin api starting", zap.String("addr", addr), zap.String("admin_v1", "/admin/v1"))
	a.Run("admin api", addr, r, 5*time.Second, 10*time.Second, 60*time.Second)
}
