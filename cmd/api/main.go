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
	mdw "store-rating-api/internal/transport/http/middleware"
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

	// /auth/* 每 IP 5 rps，突发 10
	modules := router.Modules(a.Services, mdw.RateLimitPerIP(5, 10, 10*time.Minute))
	r := router.NewAPIEngine(a.Deps(modules))

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("env", cfg.App.Env),
		zap.String("db", cfg.DB.Driver),
	)
	a.Run("user api", addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)
}
