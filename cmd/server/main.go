package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/yatube/internal/cache"
	"github.com/yatube/internal/config"
	"github.com/yatube/internal/db"
	"github.com/yatube/internal/handler"
	"github.com/yatube/internal/router"
	"gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	dsn := cfg.DatabasePath
	if cfg.DatabaseDriver == "postgres" {
		dsn = cfg.DatabaseDSN
	}
	gdb, err := db.Open(cfg.DatabaseDriver, dsn, logger.Warn)
	if err != nil {
		return err
	}
	if err := db.Init(gdb); err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cfg.SuperRootUserName != "" && cfg.SuperRootPassword != "" {
		if err := db.EnsureUser(gdb, cfg.SuperRootUserName, cfg.SuperRootPassword, true); err != nil {
			return err
		}
		log.Info("staff account ensured", slog.String("username", cfg.SuperRootUserName))
	}

	var groupCache *cache.Cache
	if cfg.RedisURL != "" {
		groupCache, err = cache.Connect(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", slog.String("error", err.Error()))
			groupCache = nil
		} else {
			defer groupCache.Close()
		}
	}

	api := handler.NewAPI(gdb, groupCache, cfg.PostsPerPage)
	r := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			slog.String("addr", cfg.ListenAddr),
			slog.String("driver", cfg.DatabaseDriver),
			slog.Bool("cache", groupCache != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
