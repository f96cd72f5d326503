// Package app 两个进程（api / admin）共用的装配与运行逻辑。
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"store-rating-api/internal/core/auth"
	"store-rating-api/internal/core/cache"
	"store-rating-api/internal/core/config"
	"store-rating-api/internal/core/database"
	"store-rating-api/internal/core/server"
	"store-rating-api/internal/feature/store"
	"store-rating-api/internal/repo"
	"store-rating-api/internal/repo/memory"
	"store-rating-api/internal/service"
	"store-rating-api/internal/transport/http/router"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	JWT      *auth.JWTer
	Cache    *cache.Cache
	Services *service.Set

	db *gorm.DB
}

func New(cfg *config.Config, l *zap.Logger) (*App, error) {
	repos, db, err := openRepos(cfg, l)
	if err != nil {
		return nil, err
	}
	c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if c.RDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			l.Warn("redis unreachable, stats served uncached until it recovers", zap.Error(err))
		}
	}
	j := auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer)
	ttl := time.Duration(cfg.Cache.StatsTTLSec) * time.Second

	return &App{
		Cfg:      cfg,
		Log:      l,
		JWT:      j,
		Cache:    c,
		Services: service.NewSet(repos, j, c, ttl, l),
		db:       db,
	}, nil
}

func openRepos(cfg *config.Config, l *zap.Logger) (service.Repos, *gorm.DB, error) {
	if cfg.DB.Driver == "memory" {
		l.Warn("using in-memory storage; data is lost on restart")
		m := memory.New()
		return service.Repos{Users: m.Users(), Stores: m.Stores(), Ratings: m.Ratings()}, nil, nil
	}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return service.Repos{}, nil, fmt.Errorf("open db: %w", err)
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))

	switch cfg.DB.Migrate {
	case "auto":
		if err := database.AutoMigrate(db, store.Models()...); err != nil {
			return service.Repos{}, nil, fmt.Errorf("automigrate: %w", err)
		}
		l.Info("automigrate done")
	case "sql":
		if err := database.RunMigrations(cfg.DB.DSN); err != nil {
			return service.Repos{}, nil, err
		}
		l.Info("sql migrations applied")
	}

	return service.Repos{
		Users:   repo.NewUserRepo(db),
		Stores:  repo.NewStoreRepo(db),
		Ratings: repo.NewRatingRepo(db),
	}, db, nil
}

// Ready DB 与 redis 的连通性
func (a *App) Ready(ctx context.Context) error {
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
	}
	if err := a.Cache.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Deps 路由依赖；modules 为 nil 时只有 /health 与 /metrics
func (a *App) Deps(modules *router.Registry) router.Deps {
	return router.Deps{
		Log:          a.Log,
		JWT:          a.JWT,
		Modules:      modules,
		AllowOrigins: a.Cfg.CORS.AllowOrigins,
		Ready:        a.Ready,
	}
}

func (a *App) Close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.Cache.Close()
}

// Run 启动 HTTP 服务，收到 SIGINT/SIGTERM 后优雅关闭
func (a *App) Run(name, addr string, h http.Handler, rt, wt, it time.Duration) {
	srv := server.BuildServer(addr, h, a.Log, rt, wt, it)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	a.Log.Info(name+" started", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		a.Log.Error(name+" start FAILED", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.Log.Warn(name+" shutdown", zap.Error(err))
	}
	a.Log.Info(name + " stopped gracefully")
}
